package tflite

import (
	"github.com/mikey/image-classifier/internal/assets"
	"github.com/mikey/image-classifier/internal/core"
	"github.com/mikey/image-classifier/internal/ports"
	"go.uber.org/zap"
)

func init() {
	ports.RegisterBackend(ports.BackendTFLite, Load)
}

// Load maps the model file and opens an interpreter over it
func Load(settings ports.BackendSettings, logger *zap.Logger) (core.Inferencer, error) {
	model, err := assets.MapModel(settings.ModelPath)
	if err != nil {
		return nil, err
	}

	inf, err := NewInferencer(model, settings.NumThreads, logger)
	if err != nil {
		model.Close()
		return nil, err
	}
	return inf, nil
}
