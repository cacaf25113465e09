package service

import (
	"context"
	"log/slog"

	"github.com/fairytaleapp/fairytale-server/internal/domain"
	"github.com/fairytaleapp/fairytale-server/internal/storage"
	"github.com/fairytaleapp/fairytale-server/internal/store"
)

// AdminUser is a user row enriched with their story count.
type AdminUser struct {
	*domain.User
	StoryCount int `json:"story_count"`
}

// AdminService provides the administrative views and maintenance actions.
type AdminService struct {
	store   store.Store
	files   storage.Client
	stories *StoryService
	logger  *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(s store.Store, files storage.Client, stories *StoryService, logger *slog.Logger) *AdminService {
	return &AdminService{
		store:   s,
		files:   files,
		stories: stories,
		logger:  logger,
	}
}

// ListUsers returns all users with their story counts, most recent login first.
func (s *AdminService) ListUsers(ctx context.Context) ([]*AdminUser, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.StoryCountsByUser(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*AdminUser, 0, len(users))
	for _, u := range users {
		result = append(result, &AdminUser{
			User:       u,
			StoryCount: counts[u.ID],
		})
	}
	return result, nil
}

// Stats returns aggregate server statistics.
func (s *AdminService) Stats(ctx context.Context) (*store.Stats, error) {
	return s.store.Stats(ctx)
}

// ListStorageFiles lists stored objects, optionally under a prefix.
func (s *AdminService) ListStorageFiles(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	return s.files.List(ctx, prefix)
}

// DeleteStory removes any user's story through the same cascade path as an
// owner delete.
func (s *AdminService) DeleteStory(ctx context.Context, storyID string) error {
	if err := s.stories.deleteCascade(ctx, storyID); err != nil {
		return err
	}
	s.logger.Info("story deleted by admin", "story_id", storyID)
	return nil
}
