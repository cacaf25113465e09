package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/fairytaleapp/fairytale-server/internal/ai"
	"github.com/fairytaleapp/fairytale-server/internal/config"
)

// ProvideAIClient provides the rate-limited AI provider client.
func ProvideAIClient(i do.Injector) (*ai.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	client := ai.New(ai.Config{
		BaseURL: cfg.AI.BaseURL,
		APIKey:  cfg.AI.APIKey,
		RPS:     cfg.AI.RPS,
		Burst:   cfg.AI.Burst,
		Timeout: cfg.AI.Timeout,
	}, log)

	return client, nil
}
