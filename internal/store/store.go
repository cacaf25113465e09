// Package store defines the persistence interface for the FairyTale server.
package store

import (
	"context"
	"errors"

	"github.com/fairytaleapp/fairytale-server/internal/domain"
)

// Sentinel errors returned by Store implementations.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// RecommendationCount is one (user, tag, count) triple produced by the
// recommendation aggregator.
type RecommendationCount struct {
	UserID string
	TagID  string
	Count  int
}

// TagCount pairs a tag name with an occurrence count, for statistics.
type TagCount struct {
	TagName string `json:"tag_name"`
	Count   int    `json:"count"`
}

// Stats holds aggregate numbers for the admin dashboard.
type Stats struct {
	TotalUsers        int            `json:"total_users"`
	TotalStories      int            `json:"total_stories"`
	AudioStories      int            `json:"audio_stories"`
	TranslatedStories int            `json:"translated_stories"`
	ContentKinds      map[string]int `json:"content_kinds"`
	PopularTags       []TagCount     `json:"popular_tags"`
}

// Store defines the interface for all persistence operations.
type Store interface {
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByDevice(ctx context.Context, deviceID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	ListUsers(ctx context.Context) ([]*domain.User, error)
	StoryCountsByUser(ctx context.Context) (map[string]int, error)

	// Stories
	CreateStory(ctx context.Context, story *domain.Story) error
	GetStory(ctx context.Context, id string) (*domain.Story, error)
	ListUserStories(ctx context.Context, userID string) ([]*domain.Story, error)
	// DeleteStory removes a story and its contents, returning the external
	// file IDs its content units referenced so the caller can clean them up.
	DeleteStory(ctx context.Context, id string) ([]string, error)
	// ListAudioPending returns stories with wants_audio set and no audio
	// content yet. The query is the pipeline's only de-duplication mechanism.
	ListAudioPending(ctx context.Context) ([]*domain.Story, error)
	// ListTranslationPending returns stories with wants_translation set and
	// no translated text content yet.
	ListTranslationPending(ctx context.Context) ([]*domain.Story, error)

	// Contents
	AddContent(ctx context.Context, content *domain.StoryContent) error

	// Tags
	ListTags(ctx context.Context) ([]*domain.Tag, error)
	GetTag(ctx context.Context, id string) (*domain.Tag, error)
	ListUserTags(ctx context.Context, userID string) ([]*domain.UserTag, error)
	// ReplaceUserTags atomically replaces a user's tag set: old associations
	// are deleted, the new set inserted, history appended, and recommendation
	// counts incremented, all inside one transaction.
	ReplaceUserTags(ctx context.Context, userID string, tagIDs []string) error

	// Recommendations
	ListRecommendations(ctx context.Context, userID string) ([]*domain.Recommendation, error)
	// AggregateTagHistory returns per-tag association counts from the user's
	// tagging history.
	AggregateTagHistory(ctx context.Context, userID string) (map[string]int, error)
	// ListHistoryUserIDs returns the distinct users that have any tagging
	// history, i.e. the users the aggregator has to recompute.
	ListHistoryUserIDs(ctx context.Context) ([]string, error)
	// UpsertRecommendationCounts overwrites recommendation rows for the given
	// triples in a single transaction (one batch per aggregator cycle).
	UpsertRecommendationCounts(ctx context.Context, counts []RecommendationCount) error

	// Admin
	Stats(ctx context.Context) (*Stats, error)
}
