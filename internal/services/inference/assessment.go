// Package inference provides classifier backends and the mapping from raw
// 3-class probabilities to a risk assessment.
package inference

import (
	"math"

	"RugDetector/internal/domain/models"
)

// Assess maps 3-class probabilities to a scored assessment. The piecewise
// mapping favors the high class: any high probability above 0.6 wins,
// otherwise medium above 0.5, otherwise low.
func Assess(p models.Probabilities) models.RiskAssessment {
	var (
		category   models.RiskCategory
		score      float64
		confidence float64
	)

	switch {
	case p.High > 0.6:
		category = models.RiskHigh
		score = 0.6 + (p.High-0.6)*0.4/0.4
		confidence = p.High
	case p.Medium > 0.5:
		category = models.RiskMedium
		score = 0.3 + (p.Medium-0.5)*0.3/0.5
		confidence = p.Medium
	default:
		category = models.RiskLow
		score = p.Low * 0.3
		confidence = p.Low
	}

	return models.RiskAssessment{
		Score:      round(score, 2),
		Category:   category,
		Confidence: round(confidence, 2),
		Probabilities: models.Probabilities{
			Low:    round(p.Low, 3),
			Medium: round(p.Medium, 3),
			High:   round(p.High, 3),
		},
	}
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
