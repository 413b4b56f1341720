package listing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/evcraddock/sharebnb/internal/storage"
)

// Uploader stores a photo and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, f storage.File) (string, error)
}

// Service creates listings, uploading the photo first when one is given.
type Service struct {
	repo     *Repository
	uploader Uploader
}

// NewService creates a listing service.
func NewService(repo *Repository, uploader Uploader) *Service {
	return &Service{repo: repo, uploader: uploader}
}

// Create runs the two steps of listing creation in order: upload the photo
// (if any), then insert the row with the photo's URL. The steps are not
// atomic. An upload failure aborts before anything is written; an insert
// failure after a successful upload leaves the object orphaned in the bucket,
// which is logged so it can be cleaned up.
func (s *Service) Create(ctx context.Context, in NewListing, photo *storage.File) (*Listing, error) {
	if photo != nil {
		if s.uploader == nil {
			return nil, fmt.Errorf("uploading listing photo: %w", storage.ErrNotConfigured)
		}
		url, err := s.uploader.Upload(ctx, *photo)
		if err != nil {
			return nil, fmt.Errorf("uploading listing photo: %w", err)
		}
		in.PhotoURL = url
	}

	l, err := s.repo.Create(ctx, in)
	if err != nil {
		if photo != nil {
			slog.WarnContext(ctx, "listing insert failed after photo upload; object orphaned",
				"photo_url", in.PhotoURL, "error", err)
		}
		return nil, err
	}

	return l, nil
}
