package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairytaleapp/fairytale-server/internal/domain"
	apperrors "github.com/fairytaleapp/fairytale-server/internal/errors"
	"github.com/fairytaleapp/fairytale-server/internal/sse"
	"github.com/fairytaleapp/fairytale-server/internal/store"
)

func newStoryService(t *testing.T) (*StoryService, store.Store, *fakeStorage, *fakeEmitter) {
	t.Helper()
	s := newTestStore(t)
	files := newFakeStorage()
	emitter := &fakeEmitter{}
	ai := &fakeAI{
		text:      "A robot lived alone.",
		enriched:  "Once upon a time, a curious robot lived alone on a quiet hill.",
		translate: "Once upon a time.",
	}
	svc := NewStoryService(s, ai, files, emitter, testLogger())
	return svc, s, files, emitter
}

func TestGenerateStory(t *testing.T) {
	svc, s, _, _ := newStoryService(t)
	ctx := context.Background()
	createUser(t, s, "user-1")

	story, err := svc.Generate(ctx, "user-1", GenerateStoryInput{
		Title:      "The Quiet Hill",
		Prompt:     "a robot on a hill",
		WantsAudio: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, story.ID)
	assert.True(t, story.WantsAudio)
	assert.False(t, story.WantsTranslation)

	// The enriched text is persisted as the canonical content.
	got, err := s.GetStory(ctx, story.ID)
	require.NoError(t, err)
	text := got.CanonicalText()
	require.NotNil(t, text)
	assert.Equal(t, "Once upon a time, a curious robot lived alone on a quiet hill.", text.Text)

	// Having wants_audio set makes it pending for the pipeline.
	pending, err := s.ListAudioPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, story.ID, pending[0].ID)
}

func TestGenerateStoryUnknownUser(t *testing.T) {
	svc, _, _, _ := newStoryService(t)

	_, err := svc.Generate(context.Background(), "ghost", GenerateStoryInput{
		Title:  "T",
		Prompt: "p",
	})
	require.Error(t, err)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestGenerateStoryProviderFailure(t *testing.T) {
	s := newTestStore(t)
	createUser(t, s, "user-1")
	ai := &fakeAI{err: apperrors.ServiceError("ai offline", nil)}
	svc := NewStoryService(s, ai, newFakeStorage(), &fakeEmitter{}, testLogger())

	_, err := svc.Generate(context.Background(), "user-1", GenerateStoryInput{
		Title:  "T",
		Prompt: "p",
	})
	require.Error(t, err)

	// Nothing persisted on failure.
	stories, listErr := s.ListUserStories(context.Background(), "user-1")
	require.NoError(t, listErr)
	assert.Empty(t, stories)
}

func TestGetStoryOwnership(t *testing.T) {
	svc, s, _, _ := newStoryService(t)
	ctx := context.Background()
	createUser(t, s, "user-1")
	createUser(t, s, "user-2")

	story, err := svc.Generate(ctx, "user-1", GenerateStoryInput{Title: "T", Prompt: "p"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "user-1", story.ID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, "user-2", story.ID)
	require.Error(t, err)
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeUnauthorized, appErr.Code)

	_, err = svc.Get(ctx, "user-1", "story-ghost")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestTranslateOnDemand(t *testing.T) {
	svc, s, _, emitter := newStoryService(t)
	ctx := context.Background()
	createUser(t, s, "user-1")

	story, err := svc.Generate(ctx, "user-1", GenerateStoryInput{Title: "T", Prompt: "p"})
	require.NoError(t, err)

	translated, err := svc.Translate(ctx, "user-1", story.ID, "en")
	require.NoError(t, err)
	assert.Equal(t, "Once upon a time.", translated)

	got, err := s.GetStory(ctx, story.ID)
	require.NoError(t, err)
	assert.True(t, got.HasContent(domain.ContentTranslatedText))

	events := emitter.all()
	require.Len(t, events, 1)
	assert.Equal(t, sse.EventTranslationComplete, events[0].Type)

	// A second call reuses the stored translation without a new event.
	again, err := svc.Translate(ctx, "user-1", story.ID, "en")
	require.NoError(t, err)
	assert.Equal(t, translated, again)
	assert.Len(t, emitter.all(), 1)
}

func TestTranslateNormalizesTargetLanguage(t *testing.T) {
	svc, s, _, _ := newStoryService(t)
	ctx := context.Background()
	createUser(t, s, "user-1")

	story, err := svc.Generate(ctx, "user-1", GenerateStoryInput{Title: "T", Prompt: "p"})
	require.NoError(t, err)

	// Locale-style input is accepted.
	_, err = svc.Translate(ctx, "user-1", story.ID, "en-US")
	require.NoError(t, err)
}

func TestTranslateRejectsUnknownLanguage(t *testing.T) {
	svc, s, _, _ := newStoryService(t)
	ctx := context.Background()
	createUser(t, s, "user-1")

	story, err := svc.Generate(ctx, "user-1", GenerateStoryInput{Title: "T", Prompt: "p"})
	require.NoError(t, err)

	_, err = svc.Translate(ctx, "user-1", story.ID, "klingon")
	require.Error(t, err)
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
}

func TestDeleteStoryAttemptsEveryFileDelete(t *testing.T) {
	svc, s, files, _ := newStoryService(t)
	ctx := context.Background()
	createUser(t, s, "user-1")

	story, err := svc.Generate(ctx, "user-1", GenerateStoryInput{Title: "T", Prompt: "p"})
	require.NoError(t, err)

	// Attach two stored files; the first delete will fail.
	for i, fid := range []string{"file-a", "file-b"} {
		files.objects[fid] = []byte("data")
		require.NoError(t, s.AddContent(ctx, &domain.StoryContent{
			ID:        fid + "-content",
			StoryID:   story.ID,
			Kind:      []domain.ContentKind{domain.ContentAudio, domain.ContentReferenceVoice}[i],
			FileID:    fid,
			CreatedAt: time.Now().UTC(),
		}))
	}
	files.failDelete["file-a"] = true

	// The delete still succeeds, and both files were attempted.
	require.NoError(t, svc.Delete(ctx, "user-1", story.ID))
	assert.ElementsMatch(t, []string{"file-a", "file-b"}, files.deletes)

	_, err = s.GetStory(ctx, story.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteStoryNotOwner(t *testing.T) {
	svc, s, _, _ := newStoryService(t)
	ctx := context.Background()
	createUser(t, s, "user-1")
	createUser(t, s, "user-2")

	story, err := svc.Generate(ctx, "user-1", GenerateStoryInput{Title: "T", Prompt: "p"})
	require.NoError(t, err)

	err = svc.Delete(ctx, "user-2", story.ID)
	require.Error(t, err)

	// Story untouched.
	_, err = s.GetStory(ctx, story.ID)
	require.NoError(t, err)
}

func TestShareStory(t *testing.T) {
	svc, s, _, emitter := newStoryService(t)
	ctx := context.Background()
	createUser(t, s, "user-1")
	createUser(t, s, "user-2")

	story, err := svc.Generate(ctx, "user-1", GenerateStoryInput{Title: "The Quiet Hill", Prompt: "p"})
	require.NoError(t, err)

	require.NoError(t, svc.Share(ctx, "user-1", story.ID, "user-2"))

	events := emitter.all()
	require.Len(t, events, 1)
	assert.Equal(t, sse.EventStoryShared, events[0].Type)
	assert.Equal(t, "user-2", events[0].UserID)
	data, ok := events[0].Data.(sse.StorySharedData)
	require.True(t, ok)
	assert.Equal(t, story.ID, data.StoryID)
	assert.Equal(t, "user-1", data.SharedBy)
	assert.Equal(t, "The Quiet Hill", data.Title)
}

func TestShareStoryValidation(t *testing.T) {
	svc, s, _, _ := newStoryService(t)
	ctx := context.Background()
	createUser(t, s, "user-1")

	story, err := svc.Generate(ctx, "user-1", GenerateStoryInput{Title: "T", Prompt: "p"})
	require.NoError(t, err)

	// Sharing with yourself is rejected.
	err = svc.Share(ctx, "user-1", story.ID, "user-1")
	require.Error(t, err)

	// Sharing with a missing user is rejected.
	err = svc.Share(ctx, "user-1", story.ID, "user-ghost")
	require.Error(t, err)
}

func TestStreamGeneration(t *testing.T) {
	svc, _, _, _ := newStoryService(t)

	chunks, errc := svc.StreamGeneration(context.Background(), "a robot")

	var got string
	for chunk := range chunks {
		got += chunk
	}
	require.NoError(t, <-errc)
	assert.Equal(t, "A robot lived alone.", got)
}
