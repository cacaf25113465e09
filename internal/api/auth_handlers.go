package api

import (
	"net/http"

	"github.com/fairytaleapp/fairytale-server/internal/domain"
	"github.com/fairytaleapp/fairytale-server/internal/http/response"
)

// GoogleLoginRequest is the request body for Google sign-in.
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// DeviceLoginRequest is the request body for anonymous device sign-in.
type DeviceLoginRequest struct {
	DeviceID string `json:"device_id" validate:"required,min=8,max=128"`
	Name     string `json:"name,omitempty" validate:"omitempty,max=100"`
}

// AuthResponse contains the authenticated user and an access token.
type AuthResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// handleGoogleLogin exchanges a Google ID token for an access token,
// creating the user on first sign-in.
func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req GoogleLoginRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	user, token, err := s.userService.AuthenticateGoogle(r.Context(), req.IDToken)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, AuthResponse{User: user, Token: token}, s.logger)
}

// handleDeviceLogin signs in a device-bound anonymous user, creating the
// user on first sign-in.
func (s *Server) handleDeviceLogin(w http.ResponseWriter, r *http.Request) {
	var req DeviceLoginRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	user, token, err := s.userService.GetOrCreateByDevice(r.Context(), req.DeviceID, req.Name)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, AuthResponse{User: user, Token: token}, s.logger)
}
