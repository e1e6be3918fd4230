package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/image-classifier/")
	v.AddConfigPath("$HOME/.image-classifier")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	return load(v, false)
}

// NewFromFile creates a configuration instance from an explicit config file path
func NewFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	return load(v, true)
}

// load applies defaults and environment bindings, then reads the config file.
// A missing file is only an error when it was named explicitly.
func load(v *viper.Viper, required bool) (*Config, error) {
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("IMAGE_CLASSIFIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || required {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Classifier defaults
	v.SetDefault("classifier.backend", "tflite")
	v.SetDefault("classifier.model_path", "./assets/mobilenet_quant_v1_224.tflite")
	v.SetDefault("classifier.labels_path", "./assets/labels.txt")
	v.SetDefault("classifier.top_k", 3)
	v.SetDefault("classifier.threshold", 0.4)
	v.SetDefault("classifier.num_threads", 2)

	// ONNX runtime defaults
	v.SetDefault("onnx.library_path", "")

	// Reporter defaults
	v.SetDefault("reporter.type", "http")
	v.SetDefault("reporter.endpoint", "http://www.luoshuitianhe.xin/post.php")
	v.SetDefault("reporter.timeout", "10s")
	v.SetDefault("reporter.workers", 4)
	v.SetDefault("reporter.queue_size", 64)
	v.SetDefault("reporter.smtp.address", "localhost")
	v.SetDefault("reporter.smtp.port", 25)
	v.SetDefault("reporter.smtp.from", "classifier@localhost")
	v.SetDefault("reporter.smtp.to", []string{})
	v.SetDefault("reporter.smtp.subject", "Image classification")

	// Capture defaults
	v.SetDefault("capture.mode", "watch")
	v.SetDefault("capture.watch_dir", "./captures")
	v.SetDefault("capture.extensions", []string{".jpg", ".jpeg", ".png"})
	v.SetDefault("capture.settle_delay", "500ms")
	v.SetDefault("capture.verbose", false)
	v.SetDefault("capture.smtp.listen_address", "0.0.0.0:10025")
	v.SetDefault("capture.smtp.allowed_domains", []string{})
	v.SetDefault("capture.smtp.max_message_bytes", 30*1024*1024)
	v.SetDefault("capture.smtp.timeout", "30s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "/data/classification_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/image_classifier")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
