package providers

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/fairytaleapp/fairytale-server/internal/ai"
	"github.com/fairytaleapp/fairytale-server/internal/config"
	"github.com/fairytaleapp/fairytale-server/internal/pipeline"
	"github.com/fairytaleapp/fairytale-server/internal/storage"
)

// OrchestratorHandle wraps the enrichment orchestrator with its run context.
type OrchestratorHandle struct {
	*pipeline.Orchestrator
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *OrchestratorHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideOrchestrator provides the background story-enrichment worker.
func ProvideOrchestrator(i do.Injector) (*OrchestratorHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	aiClient := do.MustInvoke[*ai.Client](i)
	files := do.MustInvoke[storage.Client](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	orchestrator := pipeline.NewOrchestrator(storeHandle.Store, aiClient, files, sseHandle.Manager, cfg.Pipeline.PollInterval, log)

	ctx, cancel := context.WithCancel(context.Background())
	go orchestrator.Run(ctx)

	log.Info("Enrichment orchestrator started", "interval", cfg.Pipeline.PollInterval)

	return &OrchestratorHandle{Orchestrator: orchestrator, cancel: cancel}, nil
}

// AggregatorHandle wraps the recommendation aggregator with its run context.
type AggregatorHandle struct {
	*pipeline.Aggregator
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *AggregatorHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideAggregator provides the periodic recommendation recompute worker.
func ProvideAggregator(i do.Injector) (*AggregatorHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	aggregator := pipeline.NewAggregator(storeHandle.Store, cfg.Recommend.Interval, log)

	ctx, cancel := context.WithCancel(context.Background())
	go aggregator.Run(ctx)

	log.Info("Recommendation aggregator started", "interval", cfg.Recommend.Interval)

	return &AggregatorHandle{Aggregator: aggregator, cancel: cancel}, nil
}
