package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type cleaner interface {
	Cleanup(ctx context.Context) error
}

// startCleanupTask runs Cleanup on every tick until stopCh closes
func startCleanupTask(c cleaner, logger *zap.Logger, freq time.Duration, stopCh <-chan struct{}) {
	if freq <= 0 {
		return
	}

	ticker := time.NewTicker(freq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-stopCh:
			return
		}
	}
}
