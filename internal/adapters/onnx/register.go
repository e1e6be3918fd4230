package onnx

import (
	"github.com/mikey/image-classifier/internal/core"
	"github.com/mikey/image-classifier/internal/ports"
	"go.uber.org/zap"
)

func init() {
	ports.RegisterBackend(ports.BackendONNX, Load)
}

// Load opens an ONNX session for the model file
func Load(settings ports.BackendSettings, logger *zap.Logger) (core.Inferencer, error) {
	inf, err := NewInferencer(settings.ModelPath, settings.ONNXLibraryPath, settings.NumThreads, logger)
	if err != nil {
		return nil, err
	}
	return inf, nil
}
