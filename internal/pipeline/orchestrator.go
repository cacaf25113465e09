// Package pipeline contains the background loops that complete stories:
// the orchestrator producing derived audio and translations, and the
// recommendation aggregator.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fairytaleapp/fairytale-server/internal/domain"
	"github.com/fairytaleapp/fairytale-server/internal/id"
	"github.com/fairytaleapp/fairytale-server/internal/sse"
)

// Store is the persistence surface the orchestrator needs.
type Store interface {
	ListAudioPending(ctx context.Context) ([]*domain.Story, error)
	ListTranslationPending(ctx context.Context) ([]*domain.Story, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	AddContent(ctx context.Context, content *domain.StoryContent) error
}

// AIClient is the AI provider surface the orchestrator needs.
type AIClient interface {
	SynthesizeAudio(ctx context.Context, text string, speakerWAV []byte) ([]byte, error)
	Translate(ctx context.Context, text, targetLang string) (string, error)
	Callback(ctx context.Context, callbackData string) (string, error)
}

// FileStore is the object storage surface the orchestrator needs.
type FileStore interface {
	Upload(ctx context.Context, data []byte, name string) (string, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// Emitter delivers progress events to a story owner's clients.
type Emitter interface {
	EmitToUser(userID string, event sse.Event)
}

// Audio stage progress milestones and statuses.
const (
	progressStarting   = 10
	progressGenerating = 60
	progressUploading  = 90
	progressCompleted  = 100

	statusStarting    = "starting"
	statusGenerating  = "generating"
	statusUploading   = "uploading"
	statusCompleted   = "completed"
	statusTranslating = "translating"
)

// stageErr tags a failure with the stage it happened in, so the loop can
// name the stage in the error event without guessing from the message.
type stageErr struct {
	stage string
	err   error
}

func (e *stageErr) Error() string {
	return e.stage + ": " + e.err.Error()
}

func (e *stageErr) Unwrap() error {
	return e.err
}

// Orchestrator polls for stories missing derived content and produces it.
// There is no reservation of in-flight items: a crash between the external
// side effect and the persisted completion marker means the story is
// reprocessed next cycle, so external writes are at-least-once.
type Orchestrator struct {
	store    Store
	ai       AIClient
	files    FileStore
	emitter  Emitter
	logger   *slog.Logger
	interval time.Duration
}

// NewOrchestrator creates an orchestrator polling at the given interval.
func NewOrchestrator(store Store, ai AIClient, files FileStore, emitter Emitter, interval time.Duration, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		ai:       ai,
		files:    files,
		emitter:  emitter,
		logger:   logger,
		interval: interval,
	}
}

// Run executes cycles until ctx is cancelled. Cancellation is observed at
// the top of the loop and during the inter-cycle sleep, never mid-stage:
// an in-flight story finishes its current stage before shutdown.
func (o *Orchestrator) Run(ctx context.Context) {
	o.logger.Info("orchestrator starting", slog.Duration("interval", o.interval))

	for {
		if ctx.Err() != nil {
			o.logger.Info("orchestrator stopping")
			return
		}

		o.runCycle(ctx)

		select {
		case <-time.After(o.interval):
		case <-ctx.Done():
			o.logger.Info("orchestrator stopping")
			return
		}
	}
}

// runCycle processes one poll of both pending sets. Cycle-level failures
// are logged and never propagate; the loop always re-enters.
func (o *Orchestrator) runCycle(ctx context.Context) {
	audioPending, err := o.store.ListAudioPending(ctx)
	if err != nil {
		o.logger.Error("audio pending query failed", slog.String("error", err.Error()))
	} else {
		for _, story := range audioPending {
			o.processAudio(ctx, story)
		}
	}

	translationPending, err := o.store.ListTranslationPending(ctx)
	if err != nil {
		o.logger.Error("translation pending query failed", slog.String("error", err.Error()))
		return
	}
	for _, story := range translationPending {
		o.processTranslation(ctx, story)
	}
}

// processAudio runs the audio stage for one story. On failure the owner
// gets an audio.error event naming the failed stage; nothing is persisted,
// so the story stays pending for the next cycle.
func (o *Orchestrator) processAudio(ctx context.Context, story *domain.Story) {
	logger := o.logger.With(slog.String("story_id", story.ID))

	if err := o.runAudioStages(ctx, story, logger); err != nil {
		var sErr *stageErr
		stage := "audio"
		if errors.As(err, &sErr) {
			stage = sErr.stage
		}
		logger.Error("audio stage failed",
			slog.String("stage", stage),
			slog.String("error", err.Error()))
		o.emitter.EmitToUser(story.UserID, sse.NewAudioErrorEvent(story.ID, stage, err.Error()))
	}
}

func (o *Orchestrator) runAudioStages(ctx context.Context, story *domain.Story, logger *slog.Logger) error {
	text := story.CanonicalText()
	if text == nil || text.Text == "" {
		// Nothing to narrate. Not an error event: the story simply is not
		// ready yet.
		logger.Warn("audio pending story has no canonical text, skipping")
		return nil
	}

	user, err := o.store.GetUser(ctx, story.UserID)
	if err != nil {
		return &stageErr{stage: "user_lookup", err: err}
	}
	if !user.HasReferenceVoice() {
		return &stageErr{stage: "no_reference_voice",
			err: fmt.Errorf("user %s has no registered reference voice", user.ID)}
	}

	voice, err := o.files.Download(ctx, user.ReferenceVoiceFileID)
	if err != nil {
		return &stageErr{stage: "voice_download", err: err}
	}
	if len(voice) == 0 {
		return &stageErr{stage: "voice_download",
			err: fmt.Errorf("reference voice %s is empty", user.ReferenceVoiceFileID)}
	}

	o.emitter.EmitToUser(story.UserID,
		sse.NewAudioProgressEvent(story.ID, progressStarting, statusStarting, ""))

	audio, err := o.ai.SynthesizeAudio(ctx, text.Text, voice)
	if err != nil {
		return &stageErr{stage: "synthesis", err: err}
	}

	o.emitter.EmitToUser(story.UserID,
		sse.NewAudioProgressEvent(story.ID, progressGenerating, statusGenerating, ""))

	name := fmt.Sprintf("audio_%s_%d.wav", story.ID, time.Now().Unix())
	fileID, err := o.files.Upload(ctx, audio, name)
	if err != nil {
		return &stageErr{stage: "upload", err: err}
	}

	o.emitter.EmitToUser(story.UserID,
		sse.NewAudioProgressEvent(story.ID, progressUploading, statusUploading, ""))

	contentID, err := id.Generate("content")
	if err != nil {
		return &stageErr{stage: "persist", err: err}
	}
	// The audio content row is the single completion marker: once it lands
	// the pending query stops returning this story.
	err = o.store.AddContent(ctx, &domain.StoryContent{
		ID:        contentID,
		StoryID:   story.ID,
		Kind:      domain.ContentAudio,
		FileID:    fileID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return &stageErr{stage: "persist", err: err}
	}

	o.emitter.EmitToUser(story.UserID,
		sse.NewAudioProgressEvent(story.ID, progressCompleted, statusCompleted, fileID))

	logger.Info("audio generated",
		slog.String("file_id", fileID),
		slog.Int("size", len(audio)))
	o.notifyProvider(ctx, "audio_completed:"+story.ID, logger)
	return nil
}

// notifyProvider posts a completion callback to the AI provider. Delivery
// is best-effort: the derived content is already persisted, so a failed
// callback is logged and never retried or surfaced to the owner.
func (o *Orchestrator) notifyProvider(ctx context.Context, callbackData string, logger *slog.Logger) {
	if _, err := o.ai.Callback(ctx, callbackData); err != nil {
		logger.Warn("provider callback failed", slog.String("error", err.Error()))
	}
}

// processTranslation runs the translation stage for one story.
func (o *Orchestrator) processTranslation(ctx context.Context, story *domain.Story) {
	logger := o.logger.With(slog.String("story_id", story.ID))

	if err := o.runTranslationStages(ctx, story, logger); err != nil {
		var sErr *stageErr
		stage := "translation"
		if errors.As(err, &sErr) {
			stage = sErr.stage
		}
		logger.Error("translation stage failed",
			slog.String("stage", stage),
			slog.String("error", err.Error()))
		o.emitter.EmitToUser(story.UserID,
			sse.NewTranslationErrorEvent(story.ID, stage, err.Error()))
	}
}

func (o *Orchestrator) runTranslationStages(ctx context.Context, story *domain.Story, logger *slog.Logger) error {
	text := story.CanonicalText()
	if text == nil || text.Text == "" {
		logger.Warn("translation pending story has no canonical text, skipping")
		return nil
	}

	o.emitter.EmitToUser(story.UserID,
		sse.NewTranslationProgressEvent(story.ID, statusTranslating))

	translated, err := o.ai.Translate(ctx, text.Text, "")
	if err != nil {
		return &stageErr{stage: "translate", err: err}
	}

	contentID, err := id.Generate("content")
	if err != nil {
		return &stageErr{stage: "persist", err: err}
	}
	err = o.store.AddContent(ctx, &domain.StoryContent{
		ID:        contentID,
		StoryID:   story.ID,
		Kind:      domain.ContentTranslatedText,
		Text:      translated,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return &stageErr{stage: "persist", err: err}
	}

	o.emitter.EmitToUser(story.UserID,
		sse.NewTranslationCompleteEvent(story.ID, translated))

	logger.Info("translation generated")
	o.notifyProvider(ctx, "translation_completed:"+story.ID, logger)
	return nil
}
