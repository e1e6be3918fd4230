package di

import (
	"flag"
	"fmt"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/image-classifier/internal/adapters/capture"
	"github.com/mikey/image-classifier/internal/config"
	"github.com/mikey/image-classifier/internal/core"
	"github.com/mikey/image-classifier/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Classifier flags
	Backend     string
	ModelPath   string
	LabelsPath  string
	TopK        int
	Threshold   float64
	NumThreads  int
	ONNXLibrary string

	// Reporter flags
	Report   string
	Endpoint string
	Timeout  time.Duration

	// Output flags
	Verbose    bool
	JSONLog    bool
	ConfigFile string

	// Images to classify
	Images []string
}

// ParseFlags parses command line arguments into a CLIFlags struct
func ParseFlags(name string, args []string) (*CLIFlags, error) {
	flags := &CLIFlags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] <image>...\n", name)
		fs.PrintDefaults()
	}

	// Classifier flags
	fs.StringVar(&flags.Backend, "backend", "tflite", "Inference backend (tflite, onnx)")
	fs.StringVar(&flags.ModelPath, "model", "./assets/mobilenet_quant_v1_224.tflite", "Path to the model file")
	fs.StringVar(&flags.LabelsPath, "labels", "./assets/labels.txt", "Path to the labels file")
	fs.IntVar(&flags.TopK, "top-k", core.DefaultTopK, "Number of results to keep")
	fs.Float64Var(&flags.Threshold, "threshold", core.DefaultThreshold, "Confidence a top result must exceed")
	fs.IntVar(&flags.NumThreads, "threads", 2, "Inference threads")
	fs.StringVar(&flags.ONNXLibrary, "onnx-library", "", "Path to the ONNX runtime shared library")

	// Reporter flags
	fs.StringVar(&flags.Report, "report", "none", "Reporter type (http, none)")
	fs.StringVar(&flags.Endpoint, "endpoint", "http://www.luoshuitianhe.xin/post.php", "Report endpoint for the http reporter")
	fs.DurationVar(&flags.Timeout, "timeout", 10*time.Second, "Report request timeout")

	// Output flags
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose output and logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	flags.Images = fs.Args()
	if len(flags.Images) == 0 {
		fs.Usage()
		return nil, fmt.Errorf("no images given")
	}

	return flags, nil
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	if err := provideClassifier(container); err != nil {
		return nil, err
	}

	// Register CLI capture source
	if err := container.Provide(func(
		service *core.ClassifierService,
		logger *zap.Logger,
		flags *CLIFlags,
	) *capture.CliSource {
		return capture.NewCliSource(service, logger, flags.Verbose)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set some cli specific settings
	v.Set("capture.mode", "cli")
	v.Set("capture.verbose", flags.Verbose)
	v.Set("cache.enabled", false)

	// Set classifier configuration
	v.Set("classifier.backend", flags.Backend)
	v.Set("classifier.model_path", flags.ModelPath)
	v.Set("classifier.labels_path", flags.LabelsPath)
	v.Set("classifier.top_k", flags.TopK)
	v.Set("classifier.threshold", flags.Threshold)
	v.Set("classifier.num_threads", flags.NumThreads)
	v.Set("onnx.library_path", flags.ONNXLibrary)

	// Set reporter configuration
	v.Set("reporter.type", flags.Report)
	v.Set("reporter.endpoint", flags.Endpoint)
	v.Set("reporter.timeout", flags.Timeout.String())

	return config.NewFromViper(v)
}
