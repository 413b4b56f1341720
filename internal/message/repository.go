package message

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/evcraddock/sharebnb/internal/apperr"
	"github.com/evcraddock/sharebnb/internal/db"
)

// Repository provides data access for messages.
type Repository struct {
	conn *sql.DB
	now  func() time.Time
}

// NewRepository creates a message repository. now supplies sent and read
// timestamps; nil means the current UTC time.
func NewRepository(conn *sql.DB, now func() time.Time) *Repository {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Repository{conn: conn, now: now}
}

var (
	selectMessageSQL = fmt.Sprintf("SELECT %s FROM messages WHERE id = ?", db.Names(messageColumns(&messageRow{})))

	selectDetailSQL = fmt.Sprintf(`SELECT %s
		FROM messages AS m
		JOIN users AS f ON m.from_user_id = f.id
		JOIN users AS t ON m.to_user_id = t.id
		WHERE m.id = ?`, db.Names(detailColumns(&detailRow{})))

	selectInboundSQL = fmt.Sprintf(`SELECT %s
		FROM messages AS m
		JOIN users AS u ON m.from_user_id = u.id
		WHERE m.to_user_id = ?
		ORDER BY m.sent_at, m.id`, db.Names(inboundColumns(&inboundRow{})))
)

// Create stores a new unread message sent now.
func (r *Repository) Create(ctx context.Context, in NewMessage) (*Message, error) {
	result, err := r.conn.ExecContext(ctx,
		"INSERT INTO messages (from_user_id, to_user_id, body, sent_at) VALUES (?, ?, ?, ?)",
		in.FromUserID, in.ToUserID, in.Body, r.now(),
	)
	if db.IsForeignKeyViolation(err) {
		return nil, apperr.BadRequestf("No such user: %d or %d", in.FromUserID, in.ToUserID)
	}
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	var row messageRow
	if err := r.conn.QueryRowContext(ctx, selectMessageSQL, id).Scan(db.Dests(messageColumns(&row))...); err != nil {
		return nil, fmt.Errorf("reading back message %d: %w", id, err)
	}
	return row.toMessage(), nil
}

// MarkRead records that a message was read. The first read time is kept,
// so calling it again never moves read_at backwards or clears it.
func (r *Repository) MarkRead(ctx context.Context, id int64) (*ReadReceipt, error) {
	result, err := r.conn.ExecContext(ctx,
		"UPDATE messages SET read_at = COALESCE(read_at, ?) WHERE id = ?",
		r.now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("marking message %d read: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return nil, apperr.NotFoundf("No such message: %d", id)
	}

	var receipt ReadReceipt
	if err := r.conn.QueryRowContext(ctx,
		"SELECT id, read_at FROM messages WHERE id = ?", id,
	).Scan(&receipt.ID, &receipt.ReadAt); err != nil {
		return nil, fmt.Errorf("reading back message %d: %w", id, err)
	}
	return &receipt, nil
}

// Get returns a message with its sender and recipient.
func (r *Repository) Get(ctx context.Context, id int64) (*Detail, error) {
	var row detailRow
	err := r.conn.QueryRowContext(ctx, selectDetailSQL, id).Scan(db.Dests(detailColumns(&row))...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("No such message: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying message %d: %w", id, err)
	}
	return row.toDetail(), nil
}

// ToUser returns every message addressed to userID, oldest first.
// A user with no messages gets an empty slice.
func (r *Repository) ToUser(ctx context.Context, userID int64) (messages []*Inbound, err error) {
	rows, err := r.conn.QueryContext(ctx, selectInboundSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing messages to user %d: %w", userID, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	messages = make([]*Inbound, 0)
	for rows.Next() {
		var row inboundRow
		if err := rows.Scan(db.Dests(inboundColumns(&row))...); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, row.toInbound())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	return messages, nil
}
