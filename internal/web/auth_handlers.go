package web

import (
	"net/http"
	"strings"

	"github.com/evcraddock/sharebnb/internal/apperr"
	"github.com/evcraddock/sharebnb/internal/auth"
	"github.com/evcraddock/sharebnb/internal/user"
)

type tokenResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user,omitempty"`
}

// handleRegister creates an account and logs it in.
// Only an admin caller may create another admin.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req user.NewUser
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if problems := req.Validate(); len(problems) > 0 {
		s.writeError(w, r, apperr.Invalid(problems))
		return
	}
	if req.IsAdmin {
		if id, ok := auth.FromContext(r.Context()); !ok || !id.IsAdmin {
			s.writeError(w, r, apperr.Unauthorizedf("Only admins can create admins"))
			return
		}
	}

	u, err := s.users.Register(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := s.tokens.Issue(u.ID, u.IsAdmin)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	apiJSON(w, tokenResponse{Token: token, User: u}, http.StatusCreated)
}

// handleToken exchanges an email and password for a token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var problems []string
	if strings.TrimSpace(req.Email) == "" {
		problems = append(problems, "email is required")
	}
	if req.Password == "" {
		problems = append(problems, "password is required")
	}
	if len(problems) > 0 {
		s.writeError(w, r, apperr.Invalid(problems))
		return
	}

	u, err := s.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := s.tokens.Issue(u.ID, u.IsAdmin)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	apiJSON(w, tokenResponse{Token: token}, http.StatusOK)
}
