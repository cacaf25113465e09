// Package api provides the HTTP API server and handlers for the FairyTale application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/fairytaleapp/fairytale-server/internal/auth"
	"github.com/fairytaleapp/fairytale-server/internal/http/response"
	"github.com/fairytaleapp/fairytale-server/internal/service"
	"github.com/fairytaleapp/fairytale-server/internal/sse"
	"github.com/fairytaleapp/fairytale-server/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	userService           *service.UserService
	storyService          *service.StoryService
	recommendationService *service.RecommendationService
	adminService          *service.AdminService
	tokens                *auth.TokenService
	sseHandler            *sse.Handler
	validator             *validation.Validator
	router                *chi.Mux
	logger                *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(userService *service.UserService, storyService *service.StoryService, recommendationService *service.RecommendationService, adminService *service.AdminService, tokens *auth.TokenService, sseManager *sse.Manager, logger *slog.Logger) *Server {
	s := &Server{
		userService:           userService,
		storyService:          storyService,
		recommendationService: recommendationService,
		adminService:          adminService,
		tokens:                tokens,
		validator:             validation.New(),
		router:                chi.NewRouter(),
		logger:                logger,
	}

	// The SSE handler resolves the user from request context, which
	// requireAuth populates before the handler runs.
	s.sseHandler = sse.NewHandler(sseManager, func(r *http.Request) (string, bool) {
		userID := getUserID(r.Context())
		return userID, userID != ""
	}, logger)

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth endpoints (public).
		r.Route("/auth", func(r chi.Router) {
			r.Post("/google-login", s.handleGoogleLogin)
			r.Post("/device-login", s.handleDeviceLogin)
		})

		// Stories (require auth).
		r.Route("/stories", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/generate", s.handleGenerateStory)
			r.Get("/generate/stream", s.handleStreamGeneration)
			r.Post("/register-voice", s.handleRegisterVoice)
			r.Get("/", s.handleListStories)
			r.Get("/{id}", s.handleGetStory)
			r.Post("/{id}/translate", s.handleTranslateStory)
			r.Delete("/{id}", s.handleDeleteStory)
			r.Post("/{id}/share", s.handleShareStory)
		})

		// Recommendations (require auth).
		r.Route("/recommendations", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleGetRecommendations)
			r.Post("/tags", s.handleUpdateUserTags)
			r.Get("/tags", s.handleGetUserTags)
		})

		// Admin endpoints.
		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Use(s.requireAdmin)
			r.Get("/users", s.handleAdminListUsers)
			r.Get("/stats", s.handleAdminStats)
			r.Get("/files", s.handleAdminListFiles)
			r.Delete("/stories/{id}", s.handleAdminDeleteStory)
		})

		// Server-sent events for pipeline progress.
		r.With(s.requireAuth).Get("/events", s.sseHandler.ServeHTTP)
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
