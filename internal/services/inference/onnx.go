//go:build cgo

package inference

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"RugDetector/internal/domain/models"
	"RugDetector/internal/schema"
)

// ONNX runs the exported classifier through onnxruntime. The session is
// created per call from the in-memory model bytes; the runtime environment
// is process-global and initialized once.
type ONNX struct {
	modelBytes []byte
	modelHash  string
	inputName  string
	outputName string

	mu sync.Mutex
}

// ONNXConfig locates the model and the onnxruntime shared library.
type ONNXConfig struct {
	ModelPath   string
	LibraryPath string
	InputName   string
	OutputName  string
}

var ortInitOnce sync.Once

// NewONNX loads the model file and initializes the onnxruntime environment.
func NewONNX(cfg ONNXConfig) (*ONNX, error) {
	raw, err := os.ReadFile(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("read onnx model: %w", err)
	}

	if cfg.LibraryPath != "" {
		abs, err := filepath.Abs(cfg.LibraryPath)
		if err != nil {
			return nil, fmt.Errorf("resolve onnxruntime library path: %w", err)
		}
		ort.SetSharedLibraryPath(abs)
	}
	var initErr error
	ortInitOnce.Do(func() {
		if !ort.IsInitialized() {
			initErr = ort.InitializeEnvironment()
		}
	})
	if initErr != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", initErr)
	}
	if !ort.IsInitialized() {
		return nil, fmt.Errorf("onnxruntime environment not initialized")
	}

	inputName := cfg.InputName
	if inputName == "" {
		inputName = "input"
	}
	outputName := cfg.OutputName
	if outputName == "" {
		outputName = "output"
	}

	sum := sha256.Sum256(raw)
	return &ONNX{
		modelBytes: raw,
		modelHash:  hex.EncodeToString(sum[:]),
		inputName:  inputName,
		outputName: outputName,
	}, nil
}

// Classify runs a single forward pass with a [1, 60] float32 input and reads
// back the 3-class probability row.
func (o *ONNX) Classify(_ context.Context, vector []float64) (models.Probabilities, error) {
	if len(vector) != schema.FieldCount {
		return models.Probabilities{}, fmt.Errorf("classify: got %d features, want %d", len(vector), schema.FieldCount)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	data := make([]float32, len(vector))
	for i, v := range vector {
		data[i] = float32(v)
	}

	input, err := ort.NewTensor(ort.NewShape(1, int64(schema.FieldCount)), data)
	if err != nil {
		return models.Probabilities{}, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	session, err := ort.NewDynamicAdvancedSessionWithONNXData(
		o.modelBytes,
		[]string{o.inputName},
		[]string{o.outputName},
		nil,
	)
	if err != nil {
		return models.Probabilities{}, fmt.Errorf("create onnx session: %w", err)
	}
	defer session.Destroy()

	outputs := []ort.Value{nil}
	if err := session.Run([]ort.Value{input}, outputs); err != nil {
		return models.Probabilities{}, fmt.Errorf("run onnx inference: %w", err)
	}

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return models.Probabilities{}, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}
	defer out.Destroy()

	probs := out.GetData()
	if len(probs) < 3 {
		return models.Probabilities{}, fmt.Errorf("onnx output has %d values, want 3", len(probs))
	}
	return models.Probabilities{
		Low:    float64(probs[0]),
		Medium: float64(probs[1]),
		High:   float64(probs[2]),
	}, nil
}

// ModelHash returns the SHA-256 of the model file.
func (o *ONNX) ModelHash() string { return o.modelHash }

// Method identifies this backend in responses.
func (o *ONNX) Method() string { return "real_onnx" }
