package service

import (
	"context"

	"RugDetector/internal/domain/models"
)

// FeatureExtractor produces the full 60-field feature mapping for a contract.
// Implementations must emit exactly the registry's field set.
type FeatureExtractor interface {
	Extract(ctx context.Context, contractAddress, blockchain string) (map[string]float64, error)
}

// Classifier turns an ordered feature vector (canonical schema order) into
// 3-class probabilities.
type Classifier interface {
	Classify(ctx context.Context, vector []float64) (models.Probabilities, error)
	// ModelHash identifies the model weights, or "no-model" when absent.
	ModelHash() string
	// Method names the backend for the inference_method response field.
	Method() string
}

// Prover binds a quantized input vector and an assessment into a verifiable
// commitment record.
type Prover interface {
	Prove(quantized []int32, result *models.RiskAssessment) (*models.InferenceProof, error)
	Verify(proof *models.InferenceProof, quantized []int32, result *models.RiskAssessment) (bool, error)
}
