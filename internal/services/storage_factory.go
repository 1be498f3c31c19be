package services

import (
	"context"
	"log/slog"
	"time"

	"eventhub/internal/config"
)

// NewStorageService picks the storage for uploaded images. R2 is used when it
// is configured and reachable, with local disk as its fallback; otherwise
// files go straight to local disk. The local storage is returned as well so
// the server can serve its files.
func NewStorageService(ctx context.Context, cfg config.StorageConfig, localURL string, logger *slog.Logger) (StorageService, *LocalStorageService, error) {
	local, err := NewLocalStorageService(cfg.UploadDir, localURL)
	if err != nil {
		return nil, nil, err
	}

	if !cfg.R2.Enabled() {
		logger.Info("storing uploads on local disk", "dir", local.BasePath())
		return local, local, nil
	}

	r2, err := NewR2Service(ctx, cfg.R2)
	if err != nil {
		logger.Warn("R2 storage unavailable, using local storage only", "error", err)
		return local, local, nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := r2.HealthCheck(checkCtx); err != nil {
		logger.Warn("R2 health check failed, using local storage only", "error", err)
		return local, local, nil
	}

	logger.Info("storing uploads in R2", "bucket", cfg.R2.BucketName)
	return NewStorageServiceWithFallback(r2, local, logger), local, nil
}
