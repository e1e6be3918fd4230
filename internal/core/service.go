package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Options tunes selection and caching for the classifier service
type Options struct {
	TopK         int
	Threshold    float64
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ClassifierService is the core service for image classification
type ClassifierService struct {
	inferencer Inferencer
	reporter   Reporter
	cache      ResultCache
	logger     *zap.Logger
	labels     []string
	opts       Options
	now        func() time.Time
}

// NewClassifierService creates a new classifier service
func NewClassifierService(
	inferencer Inferencer,
	reporter Reporter,
	cache ResultCache,
	logger *zap.Logger,
	labels []string,
	opts Options,
) *ClassifierService {
	if cache == nil {
		opts.CacheEnabled = false
	}

	return &ClassifierService{
		inferencer: inferencer,
		reporter:   reporter,
		cache:      cache,
		logger:     logger,
		labels:     labels,
		opts:       opts,
		now:        time.Now,
	}
}

// Labels returns the label list the service ranks against
func (s *ClassifierService) Labels() []string {
	return s.labels
}

// ClassifyImage runs inference on an encoded image and classifies the output
func (s *ClassifierService) ClassifyImage(ctx context.Context, image []byte) (*Classification, error) {
	sum := sha256.Sum256(image)
	digest := hex.EncodeToString(sum[:])

	// Check cache if enabled
	if s.opts.CacheEnabled {
		if entry, err := s.cache.Get(ctx, digest); err == nil {
			s.logger.Debug("Cache hit for image", zap.String("digest", digest))
			result, err := s.classify(ctx, entry.Confidences)
			if err != nil {
				return nil, err
			}
			result.Digest = digest
			result.Cached = true
			return result, nil
		}
	}

	confidences, err := s.inferencer.Infer(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("failed to run inference: %w", err)
	}

	// Update cache with the raw output if enabled
	if s.opts.CacheEnabled {
		now := s.now()
		entry := &CacheEntry{
			Digest:      digest,
			Confidences: confidences,
			LastSeen:    now,
			ExpiresAt:   now.Add(s.opts.CacheTTL),
		}
		if err := s.cache.Set(ctx, entry); err != nil {
			s.logger.Error("Failed to update cache", zap.Error(err))
		}
	}

	result, err := s.classify(ctx, confidences)
	if err != nil {
		return nil, err
	}
	result.Digest = digest
	return result, nil
}

// Classify ranks already computed confidences and reports the record
func (s *ClassifierService) Classify(ctx context.Context, confidences []byte) (*Classification, error) {
	return s.classify(ctx, confidences)
}

func (s *ClassifierService) classify(ctx context.Context, confidences []byte) (*Classification, error) {
	selection, err := SelectTopK(confidences, s.labels, s.opts.TopK, s.opts.Threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to select labels: %w", err)
	}

	if s.logger.Core().Enabled(zap.DebugLevel) {
		for i, b := range confidences {
			if b > 0 {
				s.logger.Debug("Label scored",
					zap.Int("index", i),
					zap.String("label", s.labels[i]),
					zap.Float32("confidence", float32(b)/255))
			}
		}
	}

	record := NewRecord(selection, s.now())
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal classification record: %w", err)
	}

	s.logger.Info("Classified image",
		zap.String("best_label", record.BestLabel),
		zap.Bool("accepted", selection.Accepted),
		zap.ByteString("record", payload))

	if s.reporter != nil {
		s.reporter.Report(ctx, payload)
	}

	return &Classification{
		Selection: selection,
		Record:    record,
		Payload:   payload,
	}, nil
}
