package tflite

import (
	"context"
	"fmt"
	"sync"

	"github.com/mattn/go-tflite"
	"go.uber.org/zap"

	"github.com/mikey/image-classifier/internal/assets"
	"github.com/mikey/image-classifier/internal/imageproc"
)

// Float inputs are scaled to [-1, 1]
const (
	floatMean = 127.5
	floatStd  = 127.5
)

// Inferencer runs a TensorFlow Lite image classifier
type Inferencer struct {
	model       *assets.MappedModel
	tfModel     *tflite.Model
	options     *tflite.InterpreterOptions
	interpreter *tflite.Interpreter
	logger      *zap.Logger

	width  int
	height int

	// Interpreters are not safe for concurrent use
	mu     sync.Mutex
	closed bool
}

// NewInferencer loads the memory-mapped model and allocates its tensors
func NewInferencer(model *assets.MappedModel, numThreads int, logger *zap.Logger) (*Inferencer, error) {
	tfModel := tflite.NewModel(model.Bytes())
	if tfModel == nil {
		return nil, fmt.Errorf("failed to load tflite model %s", model.Path())
	}

	options := tflite.NewInterpreterOptions()
	if numThreads > 0 {
		options.SetNumThread(numThreads)
	}
	options.SetErrorReporter(func(msg string, _ interface{}) {
		logger.Warn("TFLite runtime", zap.String("message", msg))
	}, nil)

	interpreter := tflite.NewInterpreter(tfModel, options)
	if interpreter == nil {
		options.Delete()
		tfModel.Delete()
		return nil, fmt.Errorf("failed to create tflite interpreter")
	}

	inf := &Inferencer{
		model:       model,
		tfModel:     tfModel,
		options:     options,
		interpreter: interpreter,
		logger:      logger,
	}

	if status := interpreter.AllocateTensors(); status != tflite.OK {
		inf.release()
		return nil, fmt.Errorf("failed to allocate tensors: status %v", status)
	}

	input := interpreter.GetInputTensor(0)
	if input == nil || input.NumDims() != 4 || input.Dim(3) != 3 {
		inf.release()
		return nil, fmt.Errorf("unsupported input tensor: want [1, h, w, 3]")
	}
	inf.height = input.Dim(1)
	inf.width = input.Dim(2)

	output := interpreter.GetOutputTensor(0)
	if output == nil {
		inf.release()
		return nil, fmt.Errorf("model has no output tensor")
	}

	logger.Info("TFLite model loaded",
		zap.String("model", model.Path()),
		zap.Int("width", inf.width),
		zap.Int("height", inf.height),
		zap.String("input_type", fmt.Sprint(input.Type())),
		zap.String("output_type", fmt.Sprint(output.Type())),
		zap.Int("threads", numThreads))

	return inf, nil
}

// Infer classifies one encoded image and returns row 0 of the output as bytes
func (i *Inferencer) Infer(ctx context.Context, image []byte) ([]byte, error) {
	img, err := imageproc.Decode(image)
	if err != nil {
		return nil, err
	}
	img = imageproc.Fit(img, i.width, i.height)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil, fmt.Errorf("inferencer is closed")
	}

	input := i.interpreter.GetInputTensor(0)
	switch input.Type() {
	case tflite.UInt8:
		if status := input.CopyFromBuffer(imageproc.PackRGB8(img)); status != tflite.OK {
			return nil, fmt.Errorf("failed to fill input tensor: status %v", status)
		}
	case tflite.Float32:
		if status := input.CopyFromBuffer(imageproc.PackRGBFloat(img, floatMean, floatStd)); status != tflite.OK {
			return nil, fmt.Errorf("failed to fill input tensor: status %v", status)
		}
	default:
		return nil, fmt.Errorf("unsupported input tensor type %v", input.Type())
	}

	if status := i.interpreter.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("invoke failed: status %v", status)
	}

	output := i.interpreter.GetOutputTensor(0)
	switch output.Type() {
	case tflite.UInt8:
		// Copy out of interpreter memory before the next Invoke reuses it
		return append([]byte(nil), output.UInt8s()...), nil
	case tflite.Float32:
		return imageproc.Quantize(output.Float32s()), nil
	default:
		return nil, fmt.Errorf("unsupported output tensor type %v", output.Type())
	}
}

// Close releases the interpreter and the model mapping
func (i *Inferencer) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true
	i.release()
	return i.model.Close()
}

func (i *Inferencer) release() {
	if i.interpreter != nil {
		i.interpreter.Delete()
		i.interpreter = nil
	}
	if i.options != nil {
		i.options.Delete()
		i.options = nil
	}
	if i.tfModel != nil {
		i.tfModel.Delete()
		i.tfModel = nil
	}
}
