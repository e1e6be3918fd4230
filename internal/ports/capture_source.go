package ports

import (
	"context"

	"github.com/mikey/image-classifier/internal/core"
)

// CaptureSource feeds captured images to the classifier
type CaptureSource interface {
	// ProcessImage classifies the image stored at path
	ProcessImage(ctx context.Context, path string) (*core.Classification, error)

	// Start starts the capture source
	Start() error

	// Stop stops the capture source
	Stop() error
}
