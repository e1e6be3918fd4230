package ports

import (
	"github.com/mikey/image-classifier/internal/core"
)

// CacheRepository is a result cache that owns background resources
type CacheRepository interface {
	core.ResultCache

	// Stop stops background cleanup and releases the store
	Stop()
}
