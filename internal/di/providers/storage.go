package providers

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/fairytaleapp/fairytale-server/internal/config"
	"github.com/fairytaleapp/fairytale-server/internal/storage"
)

// ProvideFileStorage provides the S3-compatible external file store.
func ProvideFileStorage(i do.Injector) (storage.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	client, err := storage.NewS3Client(context.Background(), storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		Bucket:    cfg.Storage.Bucket,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
	}, log)
	if err != nil {
		return nil, err
	}

	log.Info("File storage ready", "bucket", cfg.Storage.Bucket)

	return client, nil
}
