package di

import (
	"go.uber.org/zap"

	"github.com/mikey/image-classifier/internal/adapters/reporter"
	"github.com/mikey/image-classifier/internal/core"
	"github.com/mikey/image-classifier/internal/ports"
)

// CloseClassifier releases what the classifier service holds once intake has stopped.
// Queued reports drain first, then the model, then the cache. cacheRepo may be nil.
func CloseClassifier(
	logger *zap.Logger,
	inferencer core.Inferencer,
	dispatcher *reporter.Dispatcher,
	cacheRepo ports.CacheRepository,
) {
	if err := dispatcher.Close(); err != nil {
		logger.Error("Failed to close reporter", zap.Error(err))
	}

	if err := inferencer.Close(); err != nil {
		logger.Error("Failed to close inferencer", zap.Error(err))
	}

	if cacheRepo != nil {
		cacheRepo.Stop()
	}
}
