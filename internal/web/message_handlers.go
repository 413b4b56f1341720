package web

import (
	"net/http"

	"github.com/evcraddock/sharebnb/internal/apperr"
	"github.com/evcraddock/sharebnb/internal/auth"
	"github.com/evcraddock/sharebnb/internal/message"
)

// handleCreateMessage sends a message. The sender defaults to the caller
// and must be the caller unless the caller is an admin.
func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req message.NewMessage
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.FromUserID == 0 {
		if id, ok := auth.FromContext(r.Context()); ok {
			req.FromUserID = id.UserID
		}
	}
	if problems := req.Validate(); len(problems) > 0 {
		s.writeError(w, r, apperr.Invalid(problems))
		return
	}
	if err := actingAs(r, req.FromUserID); err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.messages.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{"message": m}, http.StatusCreated)
}

// handleGetMessage returns a message to its sender or recipient.
func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.messages.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if actingAs(r, m.FromUser.ID) != nil && actingAs(r, m.ToUser.ID) != nil {
		s.writeError(w, r, apperr.Unauthorizedf("Cannot read this message"))
		return
	}
	apiJSON(w, map[string]interface{}{"message": m}, http.StatusOK)
}

// handleMessagesToUser lists the caller's inbox.
func (s *Server) handleMessagesToUser(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := actingAs(r, userID); err != nil {
		s.writeError(w, r, err)
		return
	}

	messages, err := s.messages.ToUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{"messages": messages}, http.StatusOK)
}

// handleMarkRead marks a message read. Only its recipient can do that.
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.messages.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := actingAs(r, m.ToUser.ID); err != nil {
		s.writeError(w, r, apperr.Unauthorizedf("Cannot mark this message read"))
		return
	}

	receipt, err := s.messages.MarkRead(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{"message": receipt}, http.StatusOK)
}
