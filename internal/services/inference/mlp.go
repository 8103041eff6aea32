package inference

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"RugDetector/internal/domain/models"
	"RugDetector/internal/schema"
)

// mlpWeights is the JSON export format for a dense feed-forward classifier:
// per layer a weight matrix [out][in] and a bias vector [out]. Hidden layers
// use ReLU; the final layer is followed by softmax.
type mlpWeights struct {
	Layers []struct {
		Weights [][]float64 `json:"weights"`
		Biases  []float64   `json:"biases"`
	} `json:"layers"`
}

// MLP is a pure-Go classifier over exported dense-layer weights. Inputs are
// the 60 features in canonical order; outputs are 3-class probabilities.
type MLP struct {
	weights   mlpWeights
	modelHash string
}

// NewMLP loads JSON weights from path and validates the layer shapes against
// the schema width and the 3-class output.
func NewMLP(path string) (*MLP, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model weights: %w", err)
	}

	var w mlpWeights
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("parse model weights: %w", err)
	}
	if len(w.Layers) == 0 {
		return nil, fmt.Errorf("model weights: no layers")
	}

	in := schema.FieldCount
	for i, layer := range w.Layers {
		if len(layer.Weights) == 0 || len(layer.Weights) != len(layer.Biases) {
			return nil, fmt.Errorf("model weights: layer %d shape mismatch", i)
		}
		for _, row := range layer.Weights {
			if len(row) != in {
				return nil, fmt.Errorf("model weights: layer %d expects %d inputs, row has %d", i, in, len(row))
			}
		}
		in = len(layer.Weights)
	}
	if in != 3 {
		return nil, fmt.Errorf("model weights: final layer has %d outputs, want 3", in)
	}

	sum := sha256.Sum256(raw)
	return &MLP{weights: w, modelHash: hex.EncodeToString(sum[:])}, nil
}

// Classify runs the forward pass.
func (m *MLP) Classify(_ context.Context, vector []float64) (models.Probabilities, error) {
	if len(vector) != schema.FieldCount {
		return models.Probabilities{}, fmt.Errorf("classify: got %d features, want %d", len(vector), schema.FieldCount)
	}

	act := vector
	last := len(m.weights.Layers) - 1
	for i, layer := range m.weights.Layers {
		next := make([]float64, len(layer.Weights))
		for j, row := range layer.Weights {
			sum := layer.Biases[j]
			for k, w := range row {
				sum += w * act[k]
			}
			if i != last && sum < 0 {
				sum = 0 // ReLU
			}
			next[j] = sum
		}
		act = next
	}

	out := softmax(act)
	return models.Probabilities{Low: out[0], Medium: out[1], High: out[2]}, nil
}

// ModelHash returns the SHA-256 of the weights file.
func (m *MLP) ModelHash() string { return m.modelHash }

// Method identifies this backend in responses.
func (m *MLP) Method() string { return "mlp" }

func softmax(logits []float64) []float64 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(logits))
	var total float64
	for i, v := range logits {
		out[i] = math.Exp(v - max)
		total += out[i]
	}
	for i := range out {
		out[i] /= total
	}
	return out
}
