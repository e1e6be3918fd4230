package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mikey/image-classifier/internal/core"
	"go.uber.org/zap"
)

// CliSource classifies explicit image files and prints the results
type CliSource struct {
	service Classifier
	logger  *zap.Logger
	verbose bool
	out     io.Writer
}

// NewCliSource creates a new CLI capture source writing to stdout
func NewCliSource(service Classifier, logger *zap.Logger, verbose bool) *CliSource {
	return &CliSource{
		service: service,
		logger:  logger,
		verbose: verbose,
		out:     os.Stdout,
	}
}

// SetOutput redirects the printed summary
func (s *CliSource) SetOutput(w io.Writer) {
	s.out = w
}

// ProcessImage classifies one image file and displays the results
func (s *CliSource) ProcessImage(ctx context.Context, path string) (*core.Classification, error) {
	s.logger.Debug("Processing image", zap.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("Failed to read image", zap.String("path", path), zap.Error(err))
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	fmt.Fprintf(s.out, "\n=== Image ===\n")
	fmt.Fprintf(s.out, "Path: %s\n", path)
	fmt.Fprintf(s.out, "Size: %d bytes\n", len(data))

	startTime := time.Now()
	result, err := s.service.ClassifyImage(ctx, data)
	if err != nil {
		s.logger.Error("Failed to classify image", zap.String("path", path), zap.Error(err))
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return nil, err
	}
	duration := time.Since(startTime)

	fmt.Fprintf(s.out, "\n=== Results ===\n")
	for _, r := range result.Results {
		fmt.Fprintf(s.out, "%s\n", r)
	}
	fmt.Fprintf(s.out, "Best label: %s\n", result.Record.BestLabel)
	fmt.Fprintf(s.out, "Accepted: %t\n", result.Accepted)

	if s.verbose {
		fmt.Fprintf(s.out, "\nAll labels:\n%s\n", result.Summary)
		fmt.Fprintf(s.out, "Record: %s\n", result.Payload)
		fmt.Fprintf(s.out, "Digest: %s\n", result.Digest)
		fmt.Fprintf(s.out, "Cached: %t\n", result.Cached)
	}
	fmt.Fprintf(s.out, "Processing time: %v\n", duration)

	return result, nil
}

// Start is a no-op for the CLI source
func (s *CliSource) Start() error {
	return nil
}

// Stop is a no-op for the CLI source
func (s *CliSource) Stop() error {
	return nil
}
