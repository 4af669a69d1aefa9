package server

import (
	"net/http"

	"github.com/jonathan/hackathon-judge/internal/observability"
	"github.com/jonathan/hackathon-judge/internal/types"
)

// handleAdminLogin exchanges the admin credentials for a bearer token.
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	logger := observability.NewLogger(r.Context())

	if s.jwtService == nil || !s.auth.AdminEnabled() {
		s.writeError(w, &ErrAdminDisabled{})
		return
	}

	var req types.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	if !s.auth.VerifyAdmin(req.Username, req.Password) {
		logger.LogWarnf("admin_login", "rejected username=%q", req.Username)
		s.writeError(w, &ErrInvalidCredentials{})
		return
	}

	token, err := s.jwtService.GenerateToken(req.Username)
	if err != nil {
		logger.LogError("admin_login", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	logger.LogInfof("admin_login", "issued token username=%q", req.Username)
	s.jsonResponse(w, http.StatusOK, types.LoginResponse{
		Token:     token,
		ExpiresIn: int(s.jwtService.Expiration().Seconds()),
	})
}
