// Package user provides user registration, authentication and profiles.
package user

import (
	"strings"

	"github.com/evcraddock/sharebnb/internal/db"
)

// User is a registered user. The password hash is never part of it.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	IsAdmin   bool   `json:"isAdmin"`
}

// OwnedListing is a listing as it appears on its host's profile.
type OwnedListing struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	City     string  `json:"city"`
	State    string  `json:"state"`
	Country  string  `json:"country"`
	PhotoURL string  `json:"photoUrl"`
	Price    float64 `json:"price"`
	Details  string  `json:"details"`
}

// Profile is a user together with the listings they host.
type Profile struct {
	User
	Listings []*OwnedListing `json:"listings"`
}

// NewUser is the input to Register.
type NewUser struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	IsAdmin   bool   `json:"isAdmin"`
}

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 5

// Validate returns every problem with the input, or nil if it is valid.
func (n NewUser) Validate() []string {
	var problems []string
	if strings.TrimSpace(n.FirstName) == "" {
		problems = append(problems, "firstName is required")
	}
	if strings.TrimSpace(n.LastName) == "" {
		problems = append(problems, "lastName is required")
	}
	email := strings.TrimSpace(n.Email)
	if email == "" {
		problems = append(problems, "email is required")
	} else if !strings.Contains(email, "@") {
		problems = append(problems, "email is not a valid address")
	}
	if len(n.Password) < MinPasswordLength {
		problems = append(problems, "password must be at least 5 characters")
	}
	return problems
}

// normalizeEmail is applied on every write and lookup so uniqueness is
// case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func userColumns(u *User) []db.Column {
	return []db.Column{
		{Name: "id", Dest: &u.ID},
		{Name: "first_name", Dest: &u.FirstName},
		{Name: "last_name", Dest: &u.LastName},
		{Name: "email", Dest: &u.Email},
		{Name: "is_admin", Dest: &u.IsAdmin},
	}
}

func ownedListingColumns(l *OwnedListing) []db.Column {
	return []db.Column{
		{Name: "id", Dest: &l.ID},
		{Name: "title", Dest: &l.Title},
		{Name: "city", Dest: &l.City},
		{Name: "state", Dest: &l.State},
		{Name: "country", Dest: &l.Country},
		{Name: "photo_url", Dest: &l.PhotoURL},
		{Name: "price", Dest: &l.Price},
		{Name: "details", Dest: &l.Details},
	}
}
