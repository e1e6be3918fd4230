package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/image-classifier/internal/adapters/reporter"
	"github.com/mikey/image-classifier/internal/config"
	"github.com/mikey/image-classifier/internal/core"
	"github.com/mikey/image-classifier/internal/factory"
	"github.com/mikey/image-classifier/internal/logging"
	"github.com/mikey/image-classifier/internal/ports"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideClassifier(container); err != nil {
		return nil, err
	}

	// Register capture source
	if err := container.Provide(factory.NewCaptureFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CaptureFactory) (ports.CaptureSource, error) {
		return f.CreateCaptureSource()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideClassifier registers everything the classifier service needs.
// The container must already provide *config.Config and *zap.Logger.
func provideClassifier(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewInferenceFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewReporterFactory); err != nil {
		return err
	}

	// Register inferencer
	if err := container.Provide(func(f *factory.InferenceFactory) (core.Inferencer, error) {
		return f.CreateInferencer()
	}); err != nil {
		return err
	}

	// Register labels
	if err := container.Provide(func(f *factory.InferenceFactory) ([]string, error) {
		return f.LoadLabels()
	}); err != nil {
		return err
	}

	// Register selection and cache options
	if err := container.Provide(func(f *factory.InferenceFactory) (core.Options, error) {
		return f.CreateOptions()
	}); err != nil {
		return err
	}

	// Register cache repository
	if err := container.Provide(func(f *factory.CacheFactory) (ports.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return err
	}

	// Register reporter
	if err := container.Provide(func(f *factory.ReporterFactory) (*reporter.Dispatcher, error) {
		return f.CreateReporter()
	}); err != nil {
		return err
	}

	// Register classifier service
	return container.Provide(func(
		inferencer core.Inferencer,
		dispatcher *reporter.Dispatcher,
		cacheRepo ports.CacheRepository,
		logger *zap.Logger,
		labels []string,
		opts core.Options,
	) *core.ClassifierService {
		var resultCache core.ResultCache
		if cacheRepo != nil {
			resultCache = cacheRepo
		}
		return core.NewClassifierService(inferencer, dispatcher, resultCache, logger, labels, opts)
	})
}
