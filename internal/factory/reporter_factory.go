package factory

import (
	"fmt"

	"github.com/mikey/image-classifier/internal/adapters/reporter"
	"github.com/mikey/image-classifier/internal/config"
	"go.uber.org/zap"
)

// ReporterFactory creates the result reporter based on configuration
type ReporterFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewReporterFactory creates a new reporter factory
func NewReporterFactory(cfg *config.Config, logger *zap.Logger) *ReporterFactory {
	return &ReporterFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateReporter creates a dispatcher around the configured sender
func (f *ReporterFactory) CreateReporter() (*reporter.Dispatcher, error) {
	repCfg, err := f.cfg.GetReporter()
	if err != nil {
		return nil, err
	}

	var sender reporter.Sender
	switch repCfg.Type {
	case "http":
		sender, err = reporter.NewHTTPSender(repCfg.Endpoint, repCfg.Timeout)
	case "smtp":
		sender, err = reporter.NewSMTPSender(
			repCfg.SMTP.Address,
			repCfg.SMTP.Port,
			repCfg.SMTP.From,
			repCfg.SMTP.To,
			repCfg.SMTP.Subject,
		)
	case "none":
		sender = reporter.NewNopSender(f.logger)
	default:
		return nil, fmt.Errorf("unsupported reporter type: %s", repCfg.Type)
	}
	if err != nil {
		return nil, err
	}

	f.logger.Info("Creating reporter",
		zap.String("type", repCfg.Type),
		zap.Int("workers", repCfg.Workers),
		zap.Int("queue_size", repCfg.QueueSize),
		zap.Duration("timeout", repCfg.Timeout))

	return reporter.NewDispatcher(sender, f.logger, repCfg.Workers, repCfg.QueueSize, repCfg.Timeout), nil
}
