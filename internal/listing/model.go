// Package listing provides the listing domain model and data access.
package listing

import (
	"strings"

	"github.com/evcraddock/sharebnb/internal/db"
)

// Host is the owning user as embedded in a listing.
type Host struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Listing is a rentable property record owned by a host.
type Listing struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	City     string  `json:"city"`
	State    string  `json:"state"`
	Country  string  `json:"country"`
	HostID   int64   `json:"hostId"`
	PhotoURL string  `json:"photoUrl"`
	Price    float64 `json:"price"`
	Details  string  `json:"details"`
	Host     *Host   `json:"host,omitempty"`
}

// Summary is the reduced projection returned by FindAll and Search.
type Summary struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	City     string  `json:"city"`
	Price    float64 `json:"price"`
	PhotoURL string  `json:"photoUrl"`
	Details  string  `json:"details"`
}

// NewListing is the input to Create. PhotoURL may be empty.
type NewListing struct {
	Title    string  `json:"title"`
	City     string  `json:"city"`
	State    string  `json:"state"`
	Country  string  `json:"country"`
	HostID   int64   `json:"hostId"`
	PhotoURL string  `json:"photoUrl"`
	Price    float64 `json:"price"`
	Details  string  `json:"details"`
}

// Validate returns every problem with the input, or nil if it is valid.
func (n NewListing) Validate() []string {
	var problems []string
	required := []struct{ name, value string }{
		{"title", n.Title},
		{"city", n.City},
		{"state", n.State},
		{"country", n.Country},
		{"details", n.Details},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			problems = append(problems, f.name+" is required")
		}
	}
	if n.HostID <= 0 {
		problems = append(problems, "hostId must be a positive integer")
	}
	if n.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	return problems
}

// listingColumns is the field table for a full listing row.
func listingColumns(l *Listing) []db.Column {
	return []db.Column{
		{Name: "id", Dest: &l.ID},
		{Name: "title", Dest: &l.Title},
		{Name: "city", Dest: &l.City},
		{Name: "state", Dest: &l.State},
		{Name: "country", Dest: &l.Country},
		{Name: "host_id", Dest: &l.HostID},
		{Name: "photo_url", Dest: &l.PhotoURL},
		{Name: "price", Dest: &l.Price},
		{Name: "details", Dest: &l.Details},
	}
}

// summaryColumns is the field table for the reduced projection.
func summaryColumns(s *Summary) []db.Column {
	return []db.Column{
		{Name: "id", Dest: &s.ID},
		{Name: "title", Dest: &s.Title},
		{Name: "city", Dest: &s.City},
		{Name: "price", Dest: &s.Price},
		{Name: "photo_url", Dest: &s.PhotoURL},
		{Name: "details", Dest: &s.Details},
	}
}

// hostColumns is the field table for the host lookup on users.
func hostColumns(h *Host) []db.Column {
	return []db.Column{
		{Name: "id", Dest: &h.ID},
		{Name: "first_name", Dest: &h.FirstName},
		{Name: "last_name", Dest: &h.LastName},
	}
}

// scanListing scans a full listing from a database row.
func scanListing(row db.Scanner) (*Listing, error) {
	var l Listing
	if err := row.Scan(db.Dests(listingColumns(&l))...); err != nil {
		return nil, err
	}
	return &l, nil
}

// scanSummary scans a reduced listing from a database row.
func scanSummary(row db.Scanner) (*Summary, error) {
	var s Summary
	if err := row.Scan(db.Dests(summaryColumns(&s))...); err != nil {
		return nil, err
	}
	return &s, nil
}

// likePattern builds a substring LIKE pattern for term, lower-cased, with
// the wildcard and escape characters escaped using '\'.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}
