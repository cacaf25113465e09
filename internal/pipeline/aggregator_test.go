package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairytaleapp/fairytale-server/internal/domain"
	"github.com/fairytaleapp/fairytale-server/internal/store"
	"github.com/fairytaleapp/fairytale-server/internal/store/sqlite"
)

func newAggregatorFixture(t *testing.T) (*Aggregator, *sqlite.Store) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := sqlite.Open(dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	logger := slog.New(slog.DiscardHandler)
	return NewAggregator(s, time.Hour, logger), s
}

func seedAggregatorUser(t *testing.T, s *sqlite.Store, userID string) {
	t.Helper()
	user := &domain.User{
		ID:          userID,
		DeviceID:    "device-" + userID,
		Name:        "Test User",
		CreatedAt:   time.Now().UTC(),
		LastLoginAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
}

func TestAggregatorRecomputesFromHistory(t *testing.T) {
	agg, s := newAggregatorFixture(t)
	ctx := context.Background()

	seedAggregatorUser(t, s, "user-1")

	// History ends up with space once and dinosaur twice.
	require.NoError(t, s.ReplaceUserTags(ctx, "user-1", []string{"tag-space", "tag-dinosaur"}))
	require.NoError(t, s.ReplaceUserTags(ctx, "user-1", []string{"tag-dinosaur"}))

	// Drift the stored counts away from the history.
	require.NoError(t, s.UpsertRecommendationCounts(ctx, []store.RecommendationCount{
		{UserID: "user-1", TagID: "tag-space", Count: 99},
	}))

	require.NoError(t, agg.runCycle(ctx))

	recs, err := s.ListRecommendations(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "tag-dinosaur", recs[0].TagID)
	assert.Equal(t, 2, recs[0].TagCount)
	assert.Equal(t, "tag-space", recs[1].TagID)
	assert.Equal(t, 1, recs[1].TagCount)
}

func TestAggregatorIsIdempotent(t *testing.T) {
	agg, s := newAggregatorFixture(t)
	ctx := context.Background()

	seedAggregatorUser(t, s, "user-1")
	require.NoError(t, s.ReplaceUserTags(ctx, "user-1", []string{"tag-hero"}))

	require.NoError(t, agg.runCycle(ctx))
	first, err := s.ListRecommendations(ctx, "user-1")
	require.NoError(t, err)

	// With no new history, a second cycle changes nothing.
	require.NoError(t, agg.runCycle(ctx))
	second, err := s.ListRecommendations(ctx, "user-1")
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].TagID, second[i].TagID)
		assert.Equal(t, first[i].TagCount, second[i].TagCount)
	}
}

func TestAggregatorCoversAllUsersWithHistory(t *testing.T) {
	agg, s := newAggregatorFixture(t)
	ctx := context.Background()

	seedAggregatorUser(t, s, "user-1")
	seedAggregatorUser(t, s, "user-2")
	seedAggregatorUser(t, s, "user-3") // never tags anything

	require.NoError(t, s.ReplaceUserTags(ctx, "user-1", []string{"tag-space"}))
	require.NoError(t, s.ReplaceUserTags(ctx, "user-2", []string{"tag-hero", "tag-dinosaur"}))

	require.NoError(t, agg.runCycle(ctx))

	recs1, err := s.ListRecommendations(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, recs1, 1)

	recs2, err := s.ListRecommendations(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, recs2, 2)

	recs3, err := s.ListRecommendations(ctx, "user-3")
	require.NoError(t, err)
	assert.Empty(t, recs3)
}

func TestAggregatorRunStopsOnCancel(t *testing.T) {
	agg, _ := newAggregatorFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		agg.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("aggregator did not stop after cancellation")
	}
}
