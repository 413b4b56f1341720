// Package message provides direct messages between users and their read state.
package message

import (
	"database/sql"
	"strings"
	"time"

	"github.com/evcraddock/sharebnb/internal/db"
)

// Message is a directed message between two users as stored.
type Message struct {
	ID         int64      `json:"id"`
	FromUserID int64      `json:"fromUserId"`
	ToUserID   int64      `json:"toUserId"`
	Body       string     `json:"body"`
	SentAt     time.Time  `json:"sentAt"`
	ReadAt     *time.Time `json:"readAt"`
}

// Party is a sender or recipient as embedded in a message.
type Party struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Detail is a message with both users resolved.
type Detail struct {
	ID       int64      `json:"id"`
	FromUser Party      `json:"fromUser"`
	ToUser   Party      `json:"toUser"`
	Body     string     `json:"body"`
	SentAt   time.Time  `json:"sentAt"`
	ReadAt   *time.Time `json:"readAt"`
}

// Inbound is a message in a recipient's inbox, with the sender resolved.
type Inbound struct {
	ID       int64      `json:"id"`
	FromUser Party      `json:"fromUser"`
	Body     string     `json:"body"`
	SentAt   time.Time  `json:"sentAt"`
	ReadAt   *time.Time `json:"readAt"`
}

// ReadReceipt is the result of marking a message read.
type ReadReceipt struct {
	ID     int64     `json:"id"`
	ReadAt time.Time `json:"readAt"`
}

// NewMessage is the input to Create.
type NewMessage struct {
	FromUserID int64  `json:"fromUserId"`
	ToUserID   int64  `json:"toUserId"`
	Body       string `json:"body"`
}

// Validate returns every problem with the input, or nil if it is valid.
func (n NewMessage) Validate() []string {
	var problems []string
	if n.FromUserID <= 0 {
		problems = append(problems, "fromUserId must be a positive integer")
	}
	if n.ToUserID <= 0 {
		problems = append(problems, "toUserId must be a positive integer")
	}
	if n.FromUserID > 0 && n.FromUserID == n.ToUserID {
		problems = append(problems, "fromUserId and toUserId must differ")
	}
	if strings.TrimSpace(n.Body) == "" {
		problems = append(problems, "body is required")
	}
	return problems
}

func messageColumns(m *messageRow) []db.Column {
	return []db.Column{
		{Name: "id", Dest: &m.ID},
		{Name: "from_user_id", Dest: &m.FromUserID},
		{Name: "to_user_id", Dest: &m.ToUserID},
		{Name: "body", Dest: &m.Body},
		{Name: "sent_at", Dest: &m.SentAt},
		{Name: "read_at", Dest: &m.ReadAt},
	}
}

// messageRow is a messages row as scanned.
type messageRow struct {
	ID         int64
	FromUserID int64
	ToUserID   int64
	Body       string
	SentAt     time.Time
	ReadAt     sql.NullTime
}

func (r messageRow) toMessage() *Message {
	return &Message{
		ID:         r.ID,
		FromUserID: r.FromUserID,
		ToUserID:   r.ToUserID,
		Body:       r.Body,
		SentAt:     r.SentAt,
		ReadAt:     nullTime(r.ReadAt),
	}
}

// detailRow is the flat result of joining a message with both users.
type detailRow struct {
	ID            int64
	FromID        int64
	FromFirstName string
	FromLastName  string
	FromEmail     string
	ToID          int64
	ToFirstName   string
	ToLastName    string
	ToEmail       string
	Body          string
	SentAt        time.Time
	ReadAt        sql.NullTime
}

func detailColumns(r *detailRow) []db.Column {
	return []db.Column{
		{Name: "m.id", Dest: &r.ID},
		{Name: "f.id", Dest: &r.FromID},
		{Name: "f.first_name", Dest: &r.FromFirstName},
		{Name: "f.last_name", Dest: &r.FromLastName},
		{Name: "f.email", Dest: &r.FromEmail},
		{Name: "t.id", Dest: &r.ToID},
		{Name: "t.first_name", Dest: &r.ToFirstName},
		{Name: "t.last_name", Dest: &r.ToLastName},
		{Name: "t.email", Dest: &r.ToEmail},
		{Name: "m.body", Dest: &r.Body},
		{Name: "m.sent_at", Dest: &r.SentAt},
		{Name: "m.read_at", Dest: &r.ReadAt},
	}
}

func (r detailRow) toDetail() *Detail {
	return &Detail{
		ID: r.ID,
		FromUser: Party{
			ID:        r.FromID,
			FirstName: r.FromFirstName,
			LastName:  r.FromLastName,
			Email:     r.FromEmail,
		},
		ToUser: Party{
			ID:        r.ToID,
			FirstName: r.ToFirstName,
			LastName:  r.ToLastName,
			Email:     r.ToEmail,
		},
		Body:   r.Body,
		SentAt: r.SentAt,
		ReadAt: nullTime(r.ReadAt),
	}
}

// inboundRow is the flat result of joining a message with its sender.
type inboundRow struct {
	ID            int64
	FromID        int64
	FromFirstName string
	FromLastName  string
	FromEmail     string
	Body          string
	SentAt        time.Time
	ReadAt        sql.NullTime
}

func inboundColumns(r *inboundRow) []db.Column {
	return []db.Column{
		{Name: "m.id", Dest: &r.ID},
		{Name: "u.id", Dest: &r.FromID},
		{Name: "u.first_name", Dest: &r.FromFirstName},
		{Name: "u.last_name", Dest: &r.FromLastName},
		{Name: "u.email", Dest: &r.FromEmail},
		{Name: "m.body", Dest: &r.Body},
		{Name: "m.sent_at", Dest: &r.SentAt},
		{Name: "m.read_at", Dest: &r.ReadAt},
	}
}

func (r inboundRow) toInbound() *Inbound {
	return &Inbound{
		ID: r.ID,
		FromUser: Party{
			ID:        r.FromID,
			FirstName: r.FromFirstName,
			LastName:  r.FromLastName,
			Email:     r.FromEmail,
		},
		Body:   r.Body,
		SentAt: r.SentAt,
		ReadAt: nullTime(r.ReadAt),
	}
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
