package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fairytaleapp/fairytale-server/internal/http/response"
)

// handleAdminListUsers returns all users with their story counts.
func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.adminService.ListUsers(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, users, s.logger)
}

// handleAdminStats returns aggregate usage statistics.
func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.adminService.Stats(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, stats, s.logger)
}

// handleAdminListFiles lists objects in external file storage, optionally
// filtered by a prefix query parameter.
func (s *Server) handleAdminListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.adminService.ListStorageFiles(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, files, s.logger)
}

// handleAdminDeleteStory removes any user's story, bypassing the ownership check.
func (s *Server) handleAdminDeleteStory(w http.ResponseWriter, r *http.Request) {
	if err := s.adminService.DeleteStory(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}
