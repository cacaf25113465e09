package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/fairytaleapp/fairytale-server/internal/ai"
	"github.com/fairytaleapp/fairytale-server/internal/auth"
	"github.com/fairytaleapp/fairytale-server/internal/service"
	"github.com/fairytaleapp/fairytale-server/internal/storage"
)

// ProvideStoryService provides the story service.
func ProvideStoryService(i do.Injector) (*service.StoryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	aiClient := do.MustInvoke[*ai.Client](i)
	files := do.MustInvoke[storage.Client](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewStoryService(storeHandle.Store, aiClient, files, sseHandle.Manager, log), nil
}

// ProvideUserService provides the user service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	files := do.MustInvoke[storage.Client](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	verifier := do.MustInvoke[auth.GoogleVerifier](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewUserService(storeHandle.Store, files, tokens, verifier, log), nil
}

// ProvideRecommendationService provides the recommendation service.
func ProvideRecommendationService(i do.Injector) (*service.RecommendationService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewRecommendationService(storeHandle.Store, log), nil
}

// ProvideAdminService provides the admin service.
func ProvideAdminService(i do.Injector) (*service.AdminService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	files := do.MustInvoke[storage.Client](i)
	stories := do.MustInvoke[*service.StoryService](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewAdminService(storeHandle.Store, files, stories, log), nil
}
