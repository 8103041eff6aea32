package inference

import (
	"context"
	"fmt"

	"RugDetector/internal/domain/models"
	"RugDetector/internal/schema"
)

// redFlagWeights scores the features that most directly predict an exit
// scam. Weights sum to 1; flag features contribute their weight directly,
// ratio features contribute proportionally.
var redFlagWeights = map[string]float64{
	"hasSelfDestruct":          0.14,
	"hasHiddenMint":            0.14,
	"holderConcentration":      0.12,
	"liquidityProvidedByOwner": 0.10,
	"lowLiquidityWarning":      0.08,
	"rugpullHistoryOnDEX":      0.08,
	"suspiciousPatterns":       0.07,
	"ownerBalance":             0.07,
	"hasPausableTransfers":     0.05,
	"sellingPressure":          0.05,
	"frontRunningDetected":     0.04,
	"ownerBlacklisted":         0.03,
	"highFailureRate":          0.03,
}

// trustWeights discount the risk score when protective signals are present.
var trustWeights = map[string]float64{
	"verifiedContract": 0.10,
	"auditedByFirm":    0.10,
	"hasLiquidityLock": 0.08,
	"openSourceCode":   0.05,
}

// Heuristic is the no-model fallback. It scores a weighted set of red-flag
// and trust features and spreads the result over three classes, so the same
// vector always yields the same assessment.
type Heuristic struct {
	redFlags map[int]float64 // canonical index -> weight
	trust    map[int]float64
}

// NewHeuristic resolves the weighted feature names to canonical positions.
func NewHeuristic(reg *schema.Registry) *Heuristic {
	index := make(map[string]int, schema.FieldCount)
	for i, name := range reg.CanonicalOrder() {
		index[name] = i
	}

	h := &Heuristic{
		redFlags: make(map[int]float64, len(redFlagWeights)),
		trust:    make(map[int]float64, len(trustWeights)),
	}
	for name, w := range redFlagWeights {
		h.redFlags[index[name]] = w
	}
	for name, w := range trustWeights {
		h.trust[index[name]] = w
	}
	return h
}

// Classify derives probabilities from the weighted risk score.
func (h *Heuristic) Classify(_ context.Context, vector []float64) (models.Probabilities, error) {
	if len(vector) != schema.FieldCount {
		return models.Probabilities{}, fmt.Errorf("classify: got %d features, want %d", len(vector), schema.FieldCount)
	}

	var risk float64
	for i, w := range h.redFlags {
		v := vector[i]
		if v > 1 {
			v = 1
		}
		if v < 0 {
			v = 0
		}
		risk += w * v
	}
	for i, w := range h.trust {
		if vector[i] >= 1 {
			risk -= w
		}
	}
	if risk < 0 {
		risk = 0
	}
	if risk > 1 {
		risk = 1
	}

	// Spread the scalar over three classes so the dominant class reflects
	// the risk band: above 0.6 the high class carries the score directly,
	// the 0.3..0.6 band pushes medium past one half, below that low wins.
	var p models.Probabilities
	switch {
	case risk > 0.6:
		p.High = risk
		p.Low = (1 - risk) * 0.5
		p.Medium = (1 - risk) * 0.5
	case risk > 0.3:
		p.Medium = 0.5 + (risk - 0.3)
		rem := 1 - p.Medium
		p.High = rem * risk
		p.Low = rem * (1 - risk)
	default:
		p.Low = 1 - risk
		p.Medium = risk * 0.7
		p.High = risk * 0.3
	}
	return p, nil
}

// ModelHash reports the no-model marker.
func (h *Heuristic) ModelHash() string { return "no-model" }

// Method identifies this backend in responses.
func (h *Heuristic) Method() string { return "simulated" }
