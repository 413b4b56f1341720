package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/evcraddock/sharebnb/internal/apperr"
	"github.com/evcraddock/sharebnb/internal/db"
)

// Repository provides data access for users.
type Repository struct {
	conn *sql.DB
	cost int

	// dummyHash is compared against when the email is unknown.
	dummyHash []byte
}

// NewRepository creates a user repository that hashes passwords with the
// given bcrypt cost. A cost of zero, or one bcrypt rejects, selects
// bcrypt.DefaultCost.
func NewRepository(conn *sql.DB, cost int) *Repository {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		slog.Warn("bcrypt cost out of range; using default", "cost", cost, "default", bcrypt.DefaultCost)
		cost = bcrypt.DefaultCost
	}
	return &Repository{conn: conn, cost: cost, dummyHash: dummyHash(cost)}
}

// dummyHash hashes a fixed password at cost. It cannot fail for a cost in
// range; if it does, the default cost is used so unknown emails still pay
// for a full comparison.
func dummyHash(cost int) []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err == nil {
		return h
	}
	slog.Error("generating dummy password hash", "cost", cost, "error", err)
	h, err = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("generating dummy password hash: %v", err))
	}
	return h
}

var (
	selectUserSQL         = fmt.Sprintf("SELECT %s FROM users WHERE id = ?", db.Names(userColumns(&User{})))
	selectCredentialsSQL  = fmt.Sprintf("SELECT %s, password FROM users WHERE email = ?", db.Names(userColumns(&User{})))
	selectOwnedListingSQL = fmt.Sprintf("SELECT %s FROM listings WHERE host_id = ? ORDER BY id", db.Names(ownedListingColumns(&OwnedListing{})))
)

func invalidCredentials() error {
	return apperr.Unauthorizedf("Invalid email/password")
}

// Authenticate returns the user with the given email if password matches.
// An unknown email and a wrong password fail with the same Unauthorized
// error, and both cost one bcrypt comparison.
func (r *Repository) Authenticate(ctx context.Context, email, password string) (*User, error) {
	var u User
	var hash []byte
	dests := append(db.Dests(userColumns(&u)), &hash)

	err := r.conn.QueryRowContext(ctx, selectCredentialsSQL, normalizeEmail(email)).Scan(dests...)
	if errors.Is(err, sql.ErrNoRows) {
		_ = bcrypt.CompareHashAndPassword(r.dummyHash, []byte(password))
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, invalidCredentials()
	}

	return &u, nil
}

// Register creates a user. A taken email fails with BadRequest before
// anything is hashed or written.
func (r *Repository) Register(ctx context.Context, in NewUser) (*User, error) {
	email := normalizeEmail(in.Email)

	var exists int
	err := r.conn.QueryRowContext(ctx, "SELECT 1 FROM users WHERE email = ?", email).Scan(&exists)
	if err == nil {
		return nil, apperr.BadRequestf("Duplicate email: %s", email)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("checking duplicate email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), r.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	result, err := r.conn.ExecContext(ctx,
		"INSERT INTO users (first_name, last_name, email, password, is_admin) VALUES (?, ?, ?, ?, ?)",
		in.FirstName, in.LastName, email, string(hash), in.IsAdmin,
	)
	if db.IsUniqueViolation(err) {
		return nil, apperr.BadRequestf("Duplicate email: %s", email)
	}
	if err != nil {
		return nil, fmt.Errorf("inserting user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user ID: %w", err)
	}

	return &User{
		ID:        id,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     email,
		IsAdmin:   in.IsAdmin,
	}, nil
}

// Get returns a user's profile with the listings they host.
func (r *Repository) Get(ctx context.Context, id int64) (profile *Profile, err error) {
	var p Profile
	err = r.conn.QueryRowContext(ctx, selectUserSQL, id).Scan(db.Dests(userColumns(&p.User))...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("No user: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %d: %w", id, err)
	}

	rows, err := r.conn.QueryContext(ctx, selectOwnedListingSQL, id)
	if err != nil {
		return nil, fmt.Errorf("listing user %d listings: %w", id, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	p.Listings = make([]*OwnedListing, 0)
	for rows.Next() {
		var l OwnedListing
		if err := rows.Scan(db.Dests(ownedListingColumns(&l))...); err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		p.Listings = append(p.Listings, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating listings: %w", err)
	}

	return &p, nil
}
