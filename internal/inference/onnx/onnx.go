// Package onnx implements the sound classifier on ONNX Runtime.
package onnx

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	envOnce sync.Once
	envErr  error
)

// initEnvironment starts the ONNX Runtime environment once per process.
func initEnvironment(libraryPath string) error {
	envOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		envErr = ort.InitializeEnvironment()
	})
	return envErr
}

// Options locates the model and runtime.
type Options struct {
	// ModelPath is the .onnx model file.
	ModelPath string
	// LibraryPath optionally points at the onnxruntime shared library. Empty
	// uses the platform default search path.
	LibraryPath string
	// InputName and OutputName are the model's tensor names.
	InputName  string
	OutputName string
}

// Model is a loaded ONNX classifier session. It is not safe for concurrent
// use; the pipeline runs inference sequentially.
type Model struct {
	session *ort.DynamicAdvancedSession
}

// Load initializes the runtime and opens the model.
func Load(opts Options) (*Model, error) {
	if err := initEnvironment(opts.LibraryPath); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}

	inputName := opts.InputName
	if inputName == "" {
		inputName = "input"
	}
	outputName := opts.OutputName
	if outputName == "" {
		outputName = "output"
	}

	session, err := ort.NewDynamicAdvancedSession(opts.ModelPath,
		[]string{inputName}, []string{outputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", opts.ModelPath, err)
	}

	return &Model{session: session}, nil
}

// Infer scores one chunk of mono samples. The returned matrix has one row per
// model output frame and one column per class.
func (m *Model) Infer(samples []float32) ([][]float32, error) {
	inputShape := ort.NewShape(1, int64(len(samples)))
	input, err := ort.NewTensor(inputShape, samples)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	// A nil output slot lets the runtime allocate the output tensor, so the
	// framewise output length never has to be known up front.
	outputs := []ort.Value{nil}
	if err := m.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("run inference: %w", err)
	}
	defer outputs[0].Destroy()

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}

	return reshape(tensor.GetData(), tensor.GetShape())
}

// reshape converts the flat output buffer into rows of class scores. Models
// emit either [frames, classes] or [1, frames, classes].
func reshape(data []float32, shape ort.Shape) ([][]float32, error) {
	dims := []int64(shape)
	for len(dims) > 2 && dims[0] == 1 {
		dims = dims[1:]
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("unexpected output shape %v", shape)
	}

	frames := int(dims[0])
	classes := int(dims[1])
	if frames*classes != len(data) {
		return nil, fmt.Errorf("output shape %v does not match %d values", shape, len(data))
	}

	matrix := make([][]float32, frames)
	for i := range matrix {
		matrix[i] = data[i*classes : (i+1)*classes]
	}
	return matrix, nil
}

// Close releases the session. The runtime environment stays up for the
// process lifetime.
func (m *Model) Close() error {
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	return err
}
