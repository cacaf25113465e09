package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fairytaleapp/fairytale-server/internal/http/response"
	"github.com/fairytaleapp/fairytale-server/internal/service"
)

// GenerateStoryRequest is the request body for story generation.
type GenerateStoryRequest struct {
	Title            string `json:"title,omitempty" validate:"omitempty,max=200"`
	Prompt           string `json:"prompt" validate:"required,min=3,max=2000"`
	WantsAudio       bool   `json:"wants_audio"`
	WantsTranslation bool   `json:"wants_translation"`
}

// TranslateStoryRequest is the request body for on-demand translation.
type TranslateStoryRequest struct {
	TargetLang string `json:"target_lang,omitempty" validate:"omitempty,lang"`
}

// ShareStoryRequest is the request body for sharing a story with another user.
type ShareStoryRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// handleGenerateStory generates and persists a new story for the
// authenticated user. Derived audio and translation are produced later by
// the background pipeline.
func (s *Server) handleGenerateStory(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())

	var req GenerateStoryRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	story, err := s.storyService.Generate(r.Context(), userID, service.GenerateStoryInput{
		Title:            req.Title,
		Prompt:           req.Prompt,
		WantsAudio:       req.WantsAudio,
		WantsTranslation: req.WantsTranslation,
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, story, s.logger)
}

// handleStreamGeneration streams generated story text to the client as it
// is produced, using chunked transfer encoding.
func (s *Server) handleStreamGeneration(w http.ResponseWriter, r *http.Request) {
	prompt := r.URL.Query().Get("prompt")
	if prompt == "" {
		response.BadRequest(w, "prompt query parameter is required", s.logger)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalError(w, "streaming not supported", s.logger)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	chunks, errs := s.storyService.StreamGeneration(r.Context(), prompt)
	for {
		select {
		case chunk, open := <-chunks:
			if !open {
				return
			}
			if _, err := io.WriteString(w, chunk); err != nil {
				return
			}
			flusher.Flush()
		case err := <-errs:
			if err != nil {
				s.logger.Error("Story stream failed", "error", err)
			}
			return
		case <-r.Context().Done():
			return
		}
	}
}

// handleListStories returns all stories owned by the authenticated user.
func (s *Server) handleListStories(w http.ResponseWriter, r *http.Request) {
	stories, err := s.storyService.List(r.Context(), getUserID(r.Context()))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, stories, s.logger)
}

// handleGetStory returns a single story with its content units.
func (s *Server) handleGetStory(w http.ResponseWriter, r *http.Request) {
	story, err := s.storyService.Get(r.Context(), getUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, story, s.logger)
}

// handleTranslateStory translates a story's text on demand. Repeated calls
// return the stored translation without calling the provider again.
func (s *Server) handleTranslateStory(w http.ResponseWriter, r *http.Request) {
	var req TranslateStoryRequest
	// The body is optional; an empty target language defaults downstream.
	if r.ContentLength > 0 {
		if err := s.decodeAndValidate(r, &req); err != nil {
			response.HandleError(w, err, s.logger)
			return
		}
	}

	translated, err := s.storyService.Translate(r.Context(), getUserID(r.Context()), chi.URLParam(r, "id"), req.TargetLang)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]string{"translated_text": translated}, s.logger)
}

// handleDeleteStory removes a story, its content rows, and its stored files.
func (s *Server) handleDeleteStory(w http.ResponseWriter, r *http.Request) {
	if err := s.storyService.Delete(r.Context(), getUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

// handleShareStory notifies another user that a story was shared with them.
func (s *Server) handleShareStory(w http.ResponseWriter, r *http.Request) {
	var req ShareStoryRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.storyService.Share(r.Context(), getUserID(r.Context()), chi.URLParam(r, "id"), req.UserID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]string{"status": "shared"}, s.logger)
}

// handleRegisterVoice stores a reference voice sample for the authenticated
// user. The sample drives voice-cloned audio synthesis in the pipeline.
func (s *Server) handleRegisterVoice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		response.BadRequest(w, "invalid multipart form", s.logger)
		return
	}

	file, _, err := r.FormFile("audioFile")
	if err != nil {
		response.BadRequest(w, "audioFile form field is required", s.logger)
		return
	}
	defer file.Close()

	sample, err := io.ReadAll(io.LimitReader(file, MaxUploadSize))
	if err != nil {
		response.BadRequest(w, "failed to read voice sample", s.logger)
		return
	}

	user, err := s.userService.RegisterReferenceVoice(r.Context(), getUserID(r.Context()), sample)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]string{
		"file_id": user.ReferenceVoiceFileID,
	}, s.logger)
}
