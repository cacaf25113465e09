// Package service provides the business logic layer for stories, users,
// recommendations, and administration.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fairytaleapp/fairytale-server/internal/domain"
	apperrors "github.com/fairytaleapp/fairytale-server/internal/errors"
	"github.com/fairytaleapp/fairytale-server/internal/id"
	"github.com/fairytaleapp/fairytale-server/internal/normalize"
	"github.com/fairytaleapp/fairytale-server/internal/sse"
	"github.com/fairytaleapp/fairytale-server/internal/storage"
	"github.com/fairytaleapp/fairytale-server/internal/store"
)

// AIProvider is the AI surface the services need.
type AIProvider interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	Enrich(ctx context.Context, story string) (string, error)
	Translate(ctx context.Context, text, targetLang string) (string, error)
	GenerateTextStream(ctx context.Context, prompt string) (<-chan string, <-chan error)
}

// Emitter delivers events to a user's connected clients.
type Emitter interface {
	EmitToUser(userID string, event sse.Event)
}

// GenerateStoryInput describes a story generation request.
type GenerateStoryInput struct {
	Title            string
	Prompt           string
	WantsAudio       bool
	WantsTranslation bool
}

// StoryService handles story generation, retrieval, sharing, and deletion.
type StoryService struct {
	store   store.Store
	ai      AIProvider
	files   storage.Client
	emitter Emitter
	logger  *slog.Logger
}

// NewStoryService creates a new story service.
func NewStoryService(s store.Store, ai AIProvider, files storage.Client, emitter Emitter, logger *slog.Logger) *StoryService {
	return &StoryService{
		store:   s,
		ai:      ai,
		files:   files,
		emitter: emitter,
		logger:  logger,
	}
}

// Generate produces a new story for the user: base text from the prompt,
// enriched, then persisted together with its canonical text content. The
// audio and translation flags only mark desired derived content; the
// background pipeline produces it later.
func (s *StoryService) Generate(ctx context.Context, userID string, input GenerateStoryInput) (*domain.Story, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, apperrors.NotFound("user not found")
	}

	text, err := s.ai.GenerateText(ctx, input.Prompt)
	if err != nil {
		return nil, err
	}

	enriched, err := s.ai.Enrich(ctx, text)
	if err != nil {
		return nil, err
	}

	storyID, err := id.Generate("story")
	if err != nil {
		return nil, err
	}
	contentID, err := id.Generate("content")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	story := &domain.Story{
		ID:               storyID,
		UserID:           userID,
		Title:            input.Title,
		WantsAudio:       input.WantsAudio,
		WantsTranslation: input.WantsTranslation,
		CreatedAt:        now,
		Contents: []*domain.StoryContent{{
			ID:        contentID,
			StoryID:   storyID,
			Kind:      domain.ContentText,
			Text:      enriched,
			CreatedAt: now,
		}},
	}

	if err := s.store.CreateStory(ctx, story); err != nil {
		return nil, fmt.Errorf("create story: %w", err)
	}

	s.logger.Info("story generated",
		"story_id", storyID,
		"user_id", userID,
		"wants_audio", input.WantsAudio,
		"wants_translation", input.WantsTranslation,
	)
	return story, nil
}

// StreamGeneration yields story text in chunks as the provider produces it.
// Nothing is persisted; the client submits the final text separately if it
// wants to keep the story.
func (s *StoryService) StreamGeneration(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	return s.ai.GenerateTextStream(ctx, prompt)
}

// Get returns a story owned by the user.
func (s *StoryService) Get(ctx context.Context, userID, storyID string) (*domain.Story, error) {
	story, err := s.store.GetStory(ctx, storyID)
	if err != nil {
		if apperrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("story not found")
		}
		return nil, err
	}
	if story.UserID != userID {
		return nil, apperrors.Unauthorized("story belongs to another user")
	}
	return story, nil
}

// List returns all of the user's stories, newest first.
func (s *StoryService) List(ctx context.Context, userID string) ([]*domain.Story, error) {
	return s.store.ListUserStories(ctx, userID)
}

// Translate translates a story's canonical text on demand. If a translation
// already exists it is returned without another provider call.
func (s *StoryService) Translate(ctx context.Context, userID, storyID, targetLang string) (string, error) {
	story, err := s.Get(ctx, userID, storyID)
	if err != nil {
		return "", err
	}

	for _, c := range story.Contents {
		if c.Kind == domain.ContentTranslatedText {
			return c.Text, nil
		}
	}

	text := story.CanonicalText()
	if text == nil || text.Text == "" {
		return "", apperrors.Validation("story has no text to translate")
	}

	if targetLang != "" {
		if targetLang = normalize.LanguageCode(targetLang); targetLang == "" {
			return "", apperrors.Validation("unsupported target language")
		}
	}

	translated, err := s.ai.Translate(ctx, text.Text, targetLang)
	if err != nil {
		return "", err
	}

	contentID, err := id.Generate("content")
	if err != nil {
		return "", err
	}
	err = s.store.AddContent(ctx, &domain.StoryContent{
		ID:        contentID,
		StoryID:   storyID,
		Kind:      domain.ContentTranslatedText,
		Text:      translated,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("persist translation: %w", err)
	}

	s.emitter.EmitToUser(userID, sse.NewTranslationCompleteEvent(storyID, translated))
	return translated, nil
}

// Delete removes the user's story, then deletes its stored files
// best-effort: a failed storage delete is logged, every remaining file is
// still attempted, and the call succeeds regardless.
func (s *StoryService) Delete(ctx context.Context, userID, storyID string) error {
	if _, err := s.Get(ctx, userID, storyID); err != nil {
		return err
	}
	return s.deleteCascade(ctx, storyID)
}

func (s *StoryService) deleteCascade(ctx context.Context, storyID string) error {
	fileIDs, err := s.store.DeleteStory(ctx, storyID)
	if err != nil {
		if apperrors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound("story not found")
		}
		return fmt.Errorf("delete story: %w", err)
	}

	for _, fileID := range fileIDs {
		if err := s.files.Delete(ctx, fileID); err != nil {
			s.logger.Warn("failed to delete stored file",
				"story_id", storyID,
				"file_id", fileID,
				"error", err,
			)
		}
	}

	s.logger.Info("story deleted", "story_id", storyID, "files", len(fileIDs))
	return nil
}

// Share notifies another user that a story was shared with them. The
// requesting user must own the story and the target user must exist.
func (s *StoryService) Share(ctx context.Context, ownerID, storyID, targetUserID string) error {
	story, err := s.Get(ctx, ownerID, storyID)
	if err != nil {
		return err
	}

	if targetUserID == ownerID {
		return apperrors.Validation("cannot share a story with yourself")
	}
	if _, err := s.store.GetUser(ctx, targetUserID); err != nil {
		return apperrors.NotFound("target user not found")
	}

	s.emitter.EmitToUser(targetUserID, sse.NewStorySharedEvent(story.ID, ownerID, story.Title))

	s.logger.Info("story shared",
		"story_id", storyID,
		"shared_by", ownerID,
		"shared_with", targetUserID,
	)
	return nil
}
