// Package quantize converts feature vectors between floating point and the
// bounded-integer form consumed by the integer-only proving substrate.
package quantize

import (
	"fmt"
	"math"

	"RugDetector/internal/schema"
)

// Scale is the fixed quantization multiplier: three decimal places of
// precision survive the transform.
const Scale = 1000

// LengthError reports a quantized vector of the wrong length.
type LengthError struct {
	Got  int
	Want int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("quantize: expected vector of length %d, got %d", e.Want, e.Got)
}

// Quantize maps a feature mapping to its ordered int32 vector. The mapping
// must conform to the schema; validation errors propagate unchanged. Values
// are scaled by Scale, truncated toward zero, and clamped (saturating) to the
// int32 range — out-of-range inputs are silently lossy, never an error.
// Position i corresponds to reg.CanonicalOrder()[i].
func Quantize(reg *schema.Registry, features map[string]float64) ([]int32, error) {
	if err := reg.Validate(features); err != nil {
		return nil, err
	}

	out := make([]int32, 0, reg.Size())
	for _, name := range reg.CanonicalOrder() {
		out = append(out, quantizeValue(features[name]))
	}
	return out, nil
}

// Dequantize inverts Quantize up to truncation loss: each integer divided by
// Scale. The result is positional, in the same order as the input; callers
// needing named access re-zip with Registry.Fields themselves.
func Dequantize(vector []int32) ([]float64, error) {
	if len(vector) != schema.FieldCount {
		return nil, &LengthError{Got: len(vector), Want: schema.FieldCount}
	}
	out := make([]float64, len(vector))
	for i, q := range vector {
		out[i] = float64(q) / Scale
	}
	return out, nil
}

// quantizeValue applies scale, truncation toward zero, and saturation.
// Truncation (not round-to-nearest) is contractual: 899.5 becomes 899.
// NaN maps to zero so one bad measurement cannot abort a whole analysis.
func quantizeValue(v float64) int32 {
	scaled := math.Trunc(v * Scale)
	switch {
	case math.IsNaN(scaled):
		return 0
	case scaled >= math.MaxInt32:
		return math.MaxInt32
	case scaled <= math.MinInt32:
		return math.MinInt32
	default:
		return int32(scaled)
	}
}
