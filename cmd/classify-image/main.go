package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mikey/image-classifier/internal/adapters/capture"
	_ "github.com/mikey/image-classifier/internal/adapters/onnx"
	"github.com/mikey/image-classifier/internal/adapters/reporter"
	_ "github.com/mikey/image-classifier/internal/adapters/tflite"
	"github.com/mikey/image-classifier/internal/core"
	"github.com/mikey/image-classifier/internal/di"
	"github.com/mikey/image-classifier/internal/ports"
	"go.uber.org/zap"
)

func main() {
	flags, err := di.ParseFlags("classify-image", os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(2)
	}

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	var failed int
	if err := container.Invoke(func(
		logger *zap.Logger,
		source *capture.CliSource,
		inferencer core.Inferencer,
		dispatcher *reporter.Dispatcher,
		cacheRepo ports.CacheRepository,
	) {
		failed = run(logger, source, inferencer, dispatcher, cacheRepo, flags.Images)
	}); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// run classifies every image and returns how many failed
func run(
	logger *zap.Logger,
	source *capture.CliSource,
	inferencer core.Inferencer,
	dispatcher *reporter.Dispatcher,
	cacheRepo ports.CacheRepository,
	images []string,
) int {
	defer logger.Sync()

	ctx := context.Background()
	failed := 0
	for _, path := range images {
		if _, err := source.ProcessImage(ctx, path); err != nil {
			failed++
		}
	}

	// Wait for queued reports before exiting
	di.CloseClassifier(logger, inferencer, dispatcher, cacheRepo)

	if failed > 0 {
		logger.Warn("Some images could not be classified",
			zap.Int("failed", failed),
			zap.Int("total", len(images)))
	}
	return failed
}
