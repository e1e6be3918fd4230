package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mikey/image-classifier/internal/adapters/onnx"
	"github.com/mikey/image-classifier/internal/adapters/reporter"
	_ "github.com/mikey/image-classifier/internal/adapters/tflite"
	"github.com/mikey/image-classifier/internal/core"
	"github.com/mikey/image-classifier/internal/di"
	"github.com/mikey/image-classifier/internal/ports"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	source ports.CaptureSource,
	inferencer core.Inferencer,
	dispatcher *reporter.Dispatcher,
	cacheRepo ports.CacheRepository,
) error {
	defer logger.Sync()

	// Start the capture source
	if err := source.Start(); err != nil {
		logger.Error("Failed to start capture source", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	// Stop intake before draining reports
	if err := source.Stop(); err != nil {
		logger.Error("Failed to stop capture source", zap.Error(err))
	}

	di.CloseClassifier(logger, inferencer, dispatcher, cacheRepo)

	logger.Info("Shutdown complete")
	return nil
}
