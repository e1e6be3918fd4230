package factory

import (
	"fmt"

	"github.com/mikey/image-classifier/internal/adapters/capture"
	"github.com/mikey/image-classifier/internal/allowlist"
	"github.com/mikey/image-classifier/internal/config"
	"github.com/mikey/image-classifier/internal/core"
	"github.com/mikey/image-classifier/internal/ports"
	"go.uber.org/zap"
)

// CaptureFactory creates capture sources based on configuration
type CaptureFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.ClassifierService
}

// NewCaptureFactory creates a new capture factory
func NewCaptureFactory(cfg *config.Config, logger *zap.Logger, service *core.ClassifierService) *CaptureFactory {
	return &CaptureFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// CreateCaptureSource creates a capture source based on the configuration
func (f *CaptureFactory) CreateCaptureSource() (ports.CaptureSource, error) {
	capCfg, err := f.cfg.GetCapture()
	if err != nil {
		return nil, err
	}

	switch capCfg.Mode {
	case "watch":
		return capture.NewWatchSource(
			f.service,
			f.logger,
			capCfg.WatchDir,
			capCfg.Extensions,
			capCfg.SettleDelay,
		), nil
	case "smtp":
		return capture.NewMailSource(
			f.service,
			f.logger,
			capCfg.SMTP.ListenAddress,
			allowlist.NewChecker(capCfg.SMTP.AllowedDomains, f.logger),
			capCfg.SMTP.MaxMessageBytes,
			capCfg.SMTP.Timeout,
		), nil
	case "cli":
		return capture.NewCliSource(f.service, f.logger, capCfg.Verbose), nil
	default:
		return nil, fmt.Errorf("unsupported capture mode: %s", capCfg.Mode)
	}
}
