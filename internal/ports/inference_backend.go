package ports

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mikey/image-classifier/internal/core"
	"go.uber.org/zap"
)

// InferenceBackend names a supported model runtime
type InferenceBackend string

const (
	BackendTFLite InferenceBackend = "tflite"
	BackendONNX   InferenceBackend = "onnx"
)

// BackendSettings holds what a backend needs to open a model
type BackendSettings struct {
	ModelPath       string
	NumThreads      int
	ONNXLibraryPath string
}

// BackendLoader opens a model with one runtime
type BackendLoader func(settings BackendSettings, logger *zap.Logger) (core.Inferencer, error)

var (
	backendsMu sync.RWMutex
	backends   = make(map[InferenceBackend]BackendLoader)
)

// RegisterBackend makes a runtime available under name. Adapters call it from
// init, so commands enable a backend by importing its package.
func RegisterBackend(name InferenceBackend, loader BackendLoader) {
	backendsMu.Lock()
	defer backendsMu.Unlock()

	if loader == nil {
		panic("ports: RegisterBackend loader is nil")
	}
	if _, dup := backends[name]; dup {
		panic(fmt.Sprintf("ports: RegisterBackend called twice for %s", name))
	}
	backends[name] = loader
}

// LookupBackend returns the loader registered under name
func LookupBackend(name InferenceBackend) (BackendLoader, bool) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	loader, ok := backends[name]
	return loader, ok
}

// Backends lists the registered backend names in sorted order
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}
