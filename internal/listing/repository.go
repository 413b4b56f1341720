package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/evcraddock/sharebnb/internal/apperr"
	"github.com/evcraddock/sharebnb/internal/db"
)

// Repository provides data access for listings.
type Repository struct {
	conn *sql.DB
}

// NewRepository creates a listing repository.
func NewRepository(conn *sql.DB) *Repository {
	return &Repository{conn: conn}
}

const insertSQL = `INSERT INTO listings
	(title, city, state, country, host_id, photo_url, price, details)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

var (
	selectListingSQL = fmt.Sprintf("SELECT %s FROM listings WHERE id = ?", db.Names(listingColumns(&Listing{})))
	selectSummarySQL = fmt.Sprintf("SELECT %s FROM listings", db.Names(summaryColumns(&Summary{})))
	selectHostSQL    = fmt.Sprintf("SELECT %s FROM users WHERE id = ?", db.Names(hostColumns(&Host{})))
)

// Create inserts a listing and returns it with its generated ID.
func (r *Repository) Create(ctx context.Context, in NewListing) (*Listing, error) {
	result, err := r.conn.ExecContext(ctx, insertSQL,
		in.Title, in.City, in.State, in.Country,
		in.HostID, in.PhotoURL, in.Price, in.Details,
	)
	if db.IsForeignKeyViolation(err) {
		return nil, apperr.BadRequestf("No such host: %d", in.HostID)
	}
	if err != nil {
		return nil, fmt.Errorf("inserting listing: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	l, err := scanListing(r.conn.QueryRowContext(ctx, selectListingSQL, id))
	if err != nil {
		return nil, fmt.Errorf("reading back listing %d: %w", id, err)
	}
	return l, nil
}

// FindAll returns every listing in the reduced projection, ordered by city.
func (r *Repository) FindAll(ctx context.Context) ([]*Summary, error) {
	return r.querySummaries(ctx, selectSummarySQL+" ORDER BY city, id")
}

// Search returns listings whose title contains term, ignoring case.
// No match is an empty slice, not an error.
func (r *Repository) Search(ctx context.Context, term string) ([]*Summary, error) {
	query := selectSummarySQL + " WHERE " + db.LowerFunc + `(title) LIKE ? ESCAPE '\' ORDER BY city, id`
	return r.querySummaries(ctx, query, likePattern(term))
}

// Get returns a listing with its host resolved.
func (r *Repository) Get(ctx context.Context, id int64) (*Listing, error) {
	l, err := scanListing(r.conn.QueryRowContext(ctx, selectListingSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("No listing: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying listing %d: %w", id, err)
	}

	var h Host
	err = r.conn.QueryRowContext(ctx, selectHostSQL, l.HostID).Scan(db.Dests(hostColumns(&h))...)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// host_id is a foreign key, so this only happens if the row was
		// written with foreign keys disabled.
	case err != nil:
		return nil, fmt.Errorf("querying host %d: %w", l.HostID, err)
	default:
		l.Host = &h
	}

	return l, nil
}

func (r *Repository) querySummaries(ctx context.Context, query string, args ...interface{}) (summaries []*Summary, err error) {
	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing listings: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	summaries = make([]*Summary, 0)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating listings: %w", err)
	}

	return summaries, nil
}
