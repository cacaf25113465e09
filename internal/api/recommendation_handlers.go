package api

import (
	"net/http"

	"github.com/fairytaleapp/fairytale-server/internal/http/response"
)

// UpdateUserTagsRequest is the request body for replacing a user's interest tags.
type UpdateUserTagsRequest struct {
	TagIDs []string `json:"tag_ids" validate:"required,min=1,max=20,dive,required"`
}

// handleGetRecommendations returns the user's ranked tag recommendations.
func (s *Server) handleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	recommendations, err := s.recommendationService.GetUserRecommendations(r.Context(), getUserID(r.Context()))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, recommendations, s.logger)
}

// handleUpdateUserTags replaces the user's interest tag set.
func (s *Server) handleUpdateUserTags(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserTagsRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.recommendationService.UpdateUserTags(r.Context(), getUserID(r.Context()), req.TagIDs); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]string{"status": "updated"}, s.logger)
}

// handleGetUserTags returns the user's current interest tags.
func (s *Server) handleGetUserTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.recommendationService.ListUserTags(r.Context(), getUserID(r.Context()))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, tags, s.logger)
}
