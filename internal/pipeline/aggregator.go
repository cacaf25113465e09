package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/fairytaleapp/fairytale-server/internal/store"
)

// AggregatorStore is the persistence surface the aggregator needs.
type AggregatorStore interface {
	ListHistoryUserIDs(ctx context.Context) ([]string, error)
	AggregateTagHistory(ctx context.Context, userID string) (map[string]int, error)
	UpsertRecommendationCounts(ctx context.Context, counts []store.RecommendationCount) error
}

// Aggregator periodically recomputes recommendation counts from the tag
// history log. The recompute is authoritative: it overwrites whatever the
// incremental path accumulated, so the two can never drift for long.
type Aggregator struct {
	store    AggregatorStore
	logger   *slog.Logger
	interval time.Duration
}

// NewAggregator creates an aggregator with the given recompute interval.
func NewAggregator(store AggregatorStore, interval time.Duration, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		store:    store,
		logger:   logger,
		interval: interval,
	}
}

// Run executes recompute cycles until ctx is cancelled, with the same
// cancellation contract as the orchestrator.
func (a *Aggregator) Run(ctx context.Context) {
	a.logger.Info("recommendation aggregator starting", slog.Duration("interval", a.interval))

	for {
		if ctx.Err() != nil {
			a.logger.Info("recommendation aggregator stopping")
			return
		}

		if err := a.runCycle(ctx); err != nil {
			// A failed cycle writes nothing; the next one recomputes from
			// scratch anyway.
			a.logger.Error("aggregation cycle failed", slog.String("error", err.Error()))
		}

		select {
		case <-time.After(a.interval):
		case <-ctx.Done():
			a.logger.Info("recommendation aggregator stopping")
			return
		}
	}
}

// runCycle recomputes counts for every user with history and writes them
// as one batch.
func (a *Aggregator) runCycle(ctx context.Context) error {
	userIDs, err := a.store.ListHistoryUserIDs(ctx)
	if err != nil {
		return err
	}

	var batch []store.RecommendationCount
	for _, userID := range userIDs {
		counts, err := a.store.AggregateTagHistory(ctx, userID)
		if err != nil {
			return err
		}

		tagIDs := make([]string, 0, len(counts))
		for tagID := range counts {
			tagIDs = append(tagIDs, tagID)
		}
		sort.Strings(tagIDs)

		for _, tagID := range tagIDs {
			batch = append(batch, store.RecommendationCount{
				UserID: userID,
				TagID:  tagID,
				Count:  counts[tagID],
			})
		}
	}

	if err := a.store.UpsertRecommendationCounts(ctx, batch); err != nil {
		return err
	}

	a.logger.Info("recommendations recomputed",
		slog.Int("users", len(userIDs)),
		slog.Int("rows", len(batch)))
	return nil
}
