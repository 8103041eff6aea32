package inference

import (
	"testing"

	"RugDetector/internal/domain/models"
)

func TestAssessHighBand(t *testing.T) {
	a := Assess(models.Probabilities{Low: 0.05, Medium: 0.15, High: 0.8})
	if a.Category != models.RiskHigh {
		t.Fatalf("category = %s, want high", a.Category)
	}
	// 0.6 + (0.8-0.6)*0.4/0.4 = 0.8
	if a.Score != 0.8 {
		t.Errorf("score = %v, want 0.8", a.Score)
	}
	if a.Confidence != 0.8 {
		t.Errorf("confidence = %v, want 0.8", a.Confidence)
	}
}

func TestAssessMediumBand(t *testing.T) {
	a := Assess(models.Probabilities{Low: 0.2, Medium: 0.6, High: 0.2})
	if a.Category != models.RiskMedium {
		t.Fatalf("category = %s, want medium", a.Category)
	}
	// 0.3 + (0.6-0.5)*0.3/0.5 = 0.36
	if a.Score != 0.36 {
		t.Errorf("score = %v, want 0.36", a.Score)
	}
	if a.Confidence != 0.6 {
		t.Errorf("confidence = %v, want 0.6", a.Confidence)
	}
}

func TestAssessLowBand(t *testing.T) {
	a := Assess(models.Probabilities{Low: 0.8, Medium: 0.1, High: 0.1})
	if a.Category != models.RiskLow {
		t.Fatalf("category = %s, want low", a.Category)
	}
	// 0.8 * 0.3 = 0.24
	if a.Score != 0.24 {
		t.Errorf("score = %v, want 0.24", a.Score)
	}
}

func TestAssessHighWinsOverMedium(t *testing.T) {
	// high above its threshold takes precedence even when medium is larger
	a := Assess(models.Probabilities{Low: 0.0, Medium: 0.35, High: 0.65})
	if a.Category != models.RiskHigh {
		t.Errorf("category = %s, want high", a.Category)
	}
}

func TestAssessRounding(t *testing.T) {
	a := Assess(models.Probabilities{Low: 0.70004, Medium: 0.19999, High: 0.09997})
	if a.Probabilities.Low != 0.7 || a.Probabilities.Medium != 0.2 || a.Probabilities.High != 0.1 {
		t.Errorf("probabilities not rounded to 3 places: %+v", a.Probabilities)
	}
	if a.Score != 0.21 {
		t.Errorf("score = %v, want 0.21", a.Score)
	}
}
