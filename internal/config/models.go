package config

import (
	"fmt"
	"time"
)

// ClassifierConfig represents the configuration for the label classifier
type ClassifierConfig struct {
	Backend    string
	ModelPath  string
	LabelsPath string
	TopK       int
	Threshold  float64
	NumThreads int
}

// ONNXConfig represents the configuration for the ONNX runtime backend
type ONNXConfig struct {
	LibraryPath string
}

// SMTPConfig represents the mail relay used by the smtp reporter
type SMTPConfig struct {
	Address string
	Port    int
	From    string
	To      []string
	Subject string
}

// ReporterConfig represents the configuration for result reporting
type ReporterConfig struct {
	Type      string
	Endpoint  string
	Timeout   time.Duration
	Workers   int
	QueueSize int
	SMTP      SMTPConfig
}

// MailCaptureConfig represents the SMTP listener of the mail capture source
type MailCaptureConfig struct {
	ListenAddress   string
	AllowedDomains  []string
	MaxMessageBytes int64
	Timeout         time.Duration
}

// CaptureConfig represents the configuration for the capture source
type CaptureConfig struct {
	Mode        string
	WatchDir    string
	Extensions  []string
	SettleDelay time.Duration
	Verbose     bool
	SMTP        MailCaptureConfig
}

// CacheConfig represents the configuration for the result cache
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// GetClassifier returns the classifier configuration
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		Backend:    c.GetString("classifier.backend"),
		ModelPath:  c.GetString("classifier.model_path"),
		LabelsPath: c.GetString("classifier.labels_path"),
		TopK:       c.GetInt("classifier.top_k"),
		Threshold:  c.GetFloat64("classifier.threshold"),
		NumThreads: c.GetInt("classifier.num_threads"),
	}
}

// GetONNX returns the ONNX runtime configuration
func (c *Config) GetONNX() ONNXConfig {
	return ONNXConfig{
		LibraryPath: c.GetString("onnx.library_path"),
	}
}

// GetReporter returns the reporter configuration
func (c *Config) GetReporter() (ReporterConfig, error) {
	timeout, err := c.GetDuration("reporter.timeout")
	if err != nil {
		return ReporterConfig{}, fmt.Errorf("invalid reporter timeout: %w", err)
	}

	return ReporterConfig{
		Type:      c.GetString("reporter.type"),
		Endpoint:  c.GetString("reporter.endpoint"),
		Timeout:   timeout,
		Workers:   c.GetInt("reporter.workers"),
		QueueSize: c.GetInt("reporter.queue_size"),
		SMTP: SMTPConfig{
			Address: c.GetString("reporter.smtp.address"),
			Port:    c.GetInt("reporter.smtp.port"),
			From:    c.GetString("reporter.smtp.from"),
			To:      c.GetStringSlice("reporter.smtp.to"),
			Subject: c.GetString("reporter.smtp.subject"),
		},
	}, nil
}

// GetCapture returns the capture source configuration
func (c *Config) GetCapture() (CaptureConfig, error) {
	settle, err := c.GetDuration("capture.settle_delay")
	if err != nil {
		return CaptureConfig{}, fmt.Errorf("invalid capture settle delay: %w", err)
	}
	mailTimeout, err := c.GetDuration("capture.smtp.timeout")
	if err != nil {
		return CaptureConfig{}, fmt.Errorf("invalid capture smtp timeout: %w", err)
	}

	return CaptureConfig{
		Mode:        c.GetString("capture.mode"),
		WatchDir:    c.GetString("capture.watch_dir"),
		Extensions:  c.GetStringSlice("capture.extensions"),
		SettleDelay: settle,
		Verbose:     c.GetBool("capture.verbose"),
		SMTP: MailCaptureConfig{
			ListenAddress:   c.GetString("capture.smtp.listen_address"),
			AllowedDomains:  c.GetStringSlice("capture.smtp.allowed_domains"),
			MaxMessageBytes: c.GetViper().GetInt64("capture.smtp.max_message_bytes"),
			Timeout:         mailTimeout,
		},
	}, nil
}

// GetCache returns the result cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, fmt.Errorf("invalid cache ttl: %w", err)
	}
	cleanupFreq, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, fmt.Errorf("invalid cache cleanup frequency: %w", err)
	}

	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              ttl,
		CleanupFrequency: cleanupFreq,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
	}, nil
}
