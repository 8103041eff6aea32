//go:build !cgo

package inference

import (
	"context"
	"fmt"

	"RugDetector/internal/domain/models"
)

// ONNX is unavailable without cgo; onnxruntime binds through C.
type ONNX struct{}

// ONNXConfig locates the model and the onnxruntime shared library.
type ONNXConfig struct {
	ModelPath   string
	LibraryPath string
	InputName   string
	OutputName  string
}

// NewONNX always fails on non-cgo builds.
func NewONNX(ONNXConfig) (*ONNX, error) {
	return nil, fmt.Errorf("onnx backend requires a cgo-enabled build")
}

func (o *ONNX) Classify(context.Context, []float64) (models.Probabilities, error) {
	return models.Probabilities{}, fmt.Errorf("onnx backend not built")
}

func (o *ONNX) ModelHash() string { return "no-model" }

func (o *ONNX) Method() string { return "real_onnx" }
