package factory

import (
	"fmt"
	"strings"

	"github.com/mikey/image-classifier/internal/assets"
	"github.com/mikey/image-classifier/internal/config"
	"github.com/mikey/image-classifier/internal/core"
	"github.com/mikey/image-classifier/internal/ports"
	"go.uber.org/zap"
)

// InferenceFactory loads the classifier model and its labels
type InferenceFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewInferenceFactory creates a new inference factory
func NewInferenceFactory(cfg *config.Config, logger *zap.Logger) *InferenceFactory {
	return &InferenceFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// LoadLabels reads the label list that matches the model's output row
func (f *InferenceFactory) LoadLabels() ([]string, error) {
	path := f.cfg.GetClassifier().LabelsPath
	labels, err := assets.ReadLabels(path)
	if err != nil {
		return nil, err
	}

	f.logger.Info("Loaded labels", zap.String("path", path), zap.Int("count", len(labels)))
	return labels, nil
}

// CreateInferencer opens the model with the runtime registered for classifier.backend
func (f *InferenceFactory) CreateInferencer() (core.Inferencer, error) {
	clsCfg := f.cfg.GetClassifier()

	loader, ok := ports.LookupBackend(ports.InferenceBackend(clsCfg.Backend))
	if !ok {
		return nil, fmt.Errorf("unsupported classifier backend: %s (available: %s)",
			clsCfg.Backend, strings.Join(ports.Backends(), ", "))
	}

	f.logger.Info("Loading model",
		zap.String("backend", clsCfg.Backend),
		zap.String("model", clsCfg.ModelPath))

	return loader(ports.BackendSettings{
		ModelPath:       clsCfg.ModelPath,
		NumThreads:      clsCfg.NumThreads,
		ONNXLibraryPath: f.cfg.GetONNX().LibraryPath,
	}, f.logger)
}

// CreateOptions returns the selection and caching options of the classifier service
func (f *InferenceFactory) CreateOptions() (core.Options, error) {
	clsCfg := f.cfg.GetClassifier()
	cacheCfg, err := f.cfg.GetCache()
	if err != nil {
		return core.Options{}, err
	}

	return core.Options{
		TopK:         clsCfg.TopK,
		Threshold:    clsCfg.Threshold,
		CacheEnabled: cacheCfg.Enabled,
		CacheTTL:     cacheCfg.TTL,
	}, nil
}
