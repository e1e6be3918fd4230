package capture

import (
	"context"

	"github.com/mikey/image-classifier/internal/core"
)

// Classifier is the part of the classifier service a capture source drives
type Classifier interface {
	ClassifyImage(ctx context.Context, image []byte) (*core.Classification, error)
}
