package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fairytaleapp/fairytale-server/internal/domain"
	apperrors "github.com/fairytaleapp/fairytale-server/internal/errors"
	"github.com/fairytaleapp/fairytale-server/internal/store"
)

// RecommendationService handles tag selection and recommendation reads.
type RecommendationService struct {
	store  store.Store
	logger *slog.Logger
}

// NewRecommendationService creates a new recommendation service.
func NewRecommendationService(s store.Store, logger *slog.Logger) *RecommendationService {
	return &RecommendationService{
		store:  s,
		logger: logger,
	}
}

// ListTags returns the tag catalog.
func (s *RecommendationService) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	return s.store.ListTags(ctx)
}

// ListUserTags returns the user's current tag set.
func (s *RecommendationService) ListUserTags(ctx context.Context, userID string) ([]*domain.UserTag, error) {
	return s.store.ListUserTags(ctx, userID)
}

// UpdateUserTags replaces the user's tag set. The swap, the history append,
// and the recommendation increments all commit atomically; an unknown tag
// id rejects the whole update.
func (s *RecommendationService) UpdateUserTags(ctx context.Context, userID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return apperrors.Validation("at least one tag is required")
	}

	seen := make(map[string]struct{}, len(tagIDs))
	for _, tagID := range tagIDs {
		if _, dup := seen[tagID]; dup {
			return apperrors.Validationf("duplicate tag %s", tagID)
		}
		seen[tagID] = struct{}{}
	}

	if err := s.store.ReplaceUserTags(ctx, userID, tagIDs); err != nil {
		if apperrors.Is(err, store.ErrNotFound) {
			return apperrors.Validation("unknown tag id")
		}
		return fmt.Errorf("replace user tags: %w", err)
	}

	s.logger.Info("user tags updated", "user_id", userID, "tags", len(tagIDs))
	return nil
}

// GetUserRecommendations returns the user's recommendations, highest count
// first. A user with no tag history gets the seeded catalog with zero
// counts so clients always have something to show.
func (s *RecommendationService) GetUserRecommendations(ctx context.Context, userID string) ([]*domain.Recommendation, error) {
	recs, err := s.store.ListRecommendations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(recs) > 0 {
		return recs, nil
	}

	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	fallback := make([]*domain.Recommendation, 0, len(tags))
	for _, tag := range tags {
		fallback = append(fallback, &domain.Recommendation{
			UserID:  userID,
			TagID:   tag.ID,
			TagName: tag.Name,
		})
	}
	return fallback, nil
}
