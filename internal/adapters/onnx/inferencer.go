package onnx

import (
	"context"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/mikey/image-classifier/internal/imageproc"
)

// Dynamic spatial dimensions fall back to the usual classifier input size
const defaultSide = 224

var (
	envMu   sync.Mutex
	envRefs int
)

// acquireEnvironment initializes the shared runtime on first use
func acquireEnvironment(libraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if !ort.IsInitialized() {
			if err := ort.InitializeEnvironment(); err != nil {
				return fmt.Errorf("failed to initialize ONNX environment: %w", err)
			}
		}
	}
	envRefs++
	return nil
}

// releaseEnvironment tears the runtime down after the last session closes
func releaseEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()

	envRefs--
	if envRefs > 0 {
		return nil
	}
	envRefs = 0
	return ort.DestroyEnvironment()
}

// Inferencer runs an ONNX image classifier with NCHW float input
type Inferencer struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	logger       *zap.Logger

	width  int
	height int

	mu     sync.Mutex
	closed bool
}

// NewInferencer discovers the model's input and output shapes and opens a session
func NewInferencer(modelPath, libraryPath string, numThreads int, logger *zap.Logger) (*Inferencer, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("failed to stat model: %w", err)
	}

	if err := acquireEnvironment(libraryPath); err != nil {
		return nil, err
	}

	inf, err := newInferencer(modelPath, numThreads, logger)
	if err != nil {
		_ = releaseEnvironment()
		return nil, err
	}
	return inf, nil
}

func newInferencer(modelPath string, numThreads int, logger *zap.Logger) (*Inferencer, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model io info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("unexpected model io (in:%d out:%d)", len(inputs), len(outputs))
	}

	in, out := inputs[0], outputs[0]
	inputShape, err := imageShape(in.Dimensions)
	if err != nil {
		return nil, err
	}
	outputShape, err := scoreShape(out.Dimensions)
	if err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer opts.Destroy()

	if numThreads > 0 {
		if err := opts.SetIntraOpNumThreads(numThreads); err != nil {
			logger.Warn("Failed to set ONNX thread count", zap.Error(err))
		}
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{in.Name}, []string{out.Name},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		opts)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	logger.Info("ONNX model loaded",
		zap.String("model", modelPath),
		zap.String("input", in.Name),
		zap.String("output", out.Name),
		zap.Int64s("input_shape", inputShape),
		zap.Int64s("output_shape", outputShape))

	return &Inferencer{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		logger:       logger,
		width:        int(inputShape[3]),
		height:       int(inputShape[2]),
	}, nil
}

// imageShape resolves an NCHW input shape, fixing dynamic dimensions
func imageShape(dims ort.Shape) (ort.Shape, error) {
	if len(dims) != 4 {
		return nil, fmt.Errorf("expected 4D input, got %dD", len(dims))
	}
	if dims[1] > 0 && dims[1] != 3 {
		return nil, fmt.Errorf("expected 3 input channels, got %d", dims[1])
	}

	shape := ort.NewShape(1, 3, defaultSide, defaultSide)
	if dims[2] > 0 {
		shape[2] = dims[2]
	}
	if dims[3] > 0 {
		shape[3] = dims[3]
	}
	return shape, nil
}

// scoreShape resolves a [1, labels] output shape
func scoreShape(dims ort.Shape) (ort.Shape, error) {
	if len(dims) == 0 || dims[len(dims)-1] <= 0 {
		return nil, fmt.Errorf("output shape %v has no fixed label dimension", dims)
	}

	shape := make(ort.Shape, len(dims))
	for i, d := range dims {
		if d <= 0 {
			d = 1
		}
		shape[i] = d
	}
	if shape.FlattenedSize() != dims[len(dims)-1] {
		return nil, fmt.Errorf("expected a single row of scores, got shape %v", dims)
	}
	return shape, nil
}

// Infer classifies one encoded image and returns the scores quantized to bytes
func (i *Inferencer) Infer(ctx context.Context, image []byte) ([]byte, error) {
	img, err := imageproc.Decode(image)
	if err != nil {
		return nil, err
	}
	data := imageproc.PackCHW(imageproc.Fit(img, i.width, i.height))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil, fmt.Errorf("inferencer is closed")
	}

	copy(i.inputTensor.GetData(), data)

	if err := i.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	scores := i.outputTensor.GetData()
	if !imageproc.IsDistribution(scores) {
		scores = imageproc.Softmax(scores)
	}
	return imageproc.Quantize(scores), nil
}

// Close destroys the session and its tensors
func (i *Inferencer) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true

	var firstErr error
	if err := i.session.Destroy(); err != nil {
		firstErr = err
	}
	if err := i.inputTensor.Destroy(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := i.outputTensor.Destroy(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := releaseEnvironment(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
