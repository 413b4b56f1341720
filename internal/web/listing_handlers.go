package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/evcraddock/sharebnb/internal/apperr"
	"github.com/evcraddock/sharebnb/internal/auth"
	"github.com/evcraddock/sharebnb/internal/listing"
	"github.com/evcraddock/sharebnb/internal/storage"
)

// photoField is the multipart form field holding the listing photo.
const photoField = "photo"

func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.listings.FindAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{"listings": listings}, http.StatusOK)
}

func (s *Server) handleSearchListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.listings.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{"listings": listings}, http.StatusOK)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	l, err := s.listings.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{"listing": l}, http.StatusOK)
}

// listingRequest mirrors listing.NewListing with the fields that must be
// told apart from their zero value.
type listingRequest struct {
	Title    string   `json:"title"`
	City     string   `json:"city"`
	State    string   `json:"state"`
	Country  string   `json:"country"`
	HostID   int64    `json:"hostId"`
	PhotoURL string   `json:"photoUrl"`
	Price    *float64 `json:"price"`
	Details  string   `json:"details"`
}

func (req listingRequest) toNewListing() (listing.NewListing, []string) {
	in := listing.NewListing{
		Title:    req.Title,
		City:     req.City,
		State:    req.State,
		Country:  req.Country,
		HostID:   req.HostID,
		PhotoURL: req.PhotoURL,
		Details:  req.Details,
	}
	if req.Price != nil {
		in.Price = *req.Price
	}
	problems := in.Validate()
	if req.Price == nil {
		problems = append(problems, "price is required")
	}
	return in, problems
}

// handleCreateListing accepts a JSON body or a multipart form with an
// optional photo. The host defaults to the caller and must be the caller
// unless the caller is an admin.
func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var (
		req   listingRequest
		photo *storage.File
		err   error
	)
	if isMultipart(r) {
		req, photo, err = s.parseListingForm(w, r)
	} else {
		err = s.decodeJSON(w, r, &req)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if req.HostID == 0 {
		if id, ok := auth.FromContext(r.Context()); ok {
			req.HostID = id.UserID
		}
	}

	in, problems := req.toNewListing()
	if len(problems) > 0 {
		s.writeError(w, r, apperr.Invalid(problems))
		return
	}
	if err := actingAs(r, in.HostID); err != nil {
		s.writeError(w, r, err)
		return
	}

	l, err := s.creator.Create(r.Context(), in, photo)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{"listing": l}, http.StatusCreated)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// parseListingForm reads listing fields and the optional photo from a
// multipart form.
func (s *Server) parseListingForm(w http.ResponseWriter, r *http.Request) (listingRequest, *storage.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return listingRequest{}, nil, apperr.BadRequestf("Upload exceeds %d bytes", tooLarge.Limit)
		}
		return listingRequest{}, nil, apperr.BadRequestf("Invalid multipart form")
	}

	req := listingRequest{
		Title:    r.FormValue("title"),
		City:     r.FormValue("city"),
		State:    r.FormValue("state"),
		Country:  r.FormValue("country"),
		PhotoURL: r.FormValue("photoUrl"),
		Details:  r.FormValue("details"),
	}

	var problems []string
	if v := strings.TrimSpace(r.FormValue("hostId")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			problems = append(problems, "hostId must be a positive integer")
		}
		req.HostID = id
	}
	if v := strings.TrimSpace(r.FormValue("price")); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			problems = append(problems, "price must be a number")
		} else {
			req.Price = &price
		}
	}
	if len(problems) > 0 {
		return listingRequest{}, nil, apperr.Invalid(problems)
	}

	file, header, err := r.FormFile(photoField)
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil, nil
	}
	if err != nil {
		return listingRequest{}, nil, apperr.BadRequestf("Invalid photo upload")
	}
	photo, err := readPhoto(file, header)
	if err != nil {
		return listingRequest{}, nil, err
	}
	return req, photo, nil
}

func readPhoto(file multipart.File, header *multipart.FileHeader) (*storage.File, error) {
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if len(data) == 0 {
		return nil, apperr.BadRequestf("photo is empty")
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return &storage.File{Name: header.Filename, ContentType: contentType, Data: data}, nil
}
