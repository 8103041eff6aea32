package models

import "time"

// RiskCategory is the three-way classification emitted by the model.
type RiskCategory string

const (
	RiskLow    RiskCategory = "low"
	RiskMedium RiskCategory = "medium"
	RiskHigh   RiskCategory = "high"
)

// Probabilities holds the 3-class output of the classifier.
type Probabilities struct {
	Low    float64 `json:"low"`
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

// RiskAssessment is the interpreted model output for one contract.
type RiskAssessment struct {
	Score         float64       `json:"riskScore"`
	Category      RiskCategory  `json:"riskCategory"`
	Confidence    float64       `json:"confidence"`
	Probabilities Probabilities `json:"probabilities"`
}

// InferenceProof is a commitment record binding a quantized input vector and
// an assessment to a model hash. It is a SHA-256 commitment scheme, not a
// zero-knowledge proof; field names keep the established wire format.
type InferenceProof struct {
	ProofID          string `json:"proof_id"`
	Protocol         string `json:"protocol"`
	InputCommitment  string `json:"input_commitment"`
	OutputCommitment string `json:"output_commitment"`
	ModelHash        string `json:"model_hash"`
	Timestamp        int64  `json:"timestamp"`
	Verifiable       bool   `json:"verifiable"`
	ProofSizeBytes   int    `json:"proof_size_bytes"`
}

// ContractAnalysis is the complete result of one analysis request.
type ContractAnalysis struct {
	ContractAddress string             `json:"contract_address"`
	Blockchain      string             `json:"blockchain"`
	Assessment      RiskAssessment     `json:"assessment"`
	Features        map[string]float64 `json:"features"`
	Quantized       []int32            `json:"quantized"`
	Recommendation  string             `json:"recommendation"`
	InferenceMethod string             `json:"inference_method"`
	Proof           *InferenceProof    `json:"zkml,omitempty"`
	AnalyzedAt      time.Time          `json:"analysis_timestamp"`
}

// RecommendationFor returns the advisory text for a risk category.
func RecommendationFor(c RiskCategory) string {
	switch c {
	case RiskLow:
		return "Low risk detected. Contract appears relatively safe, but always DYOR."
	case RiskMedium:
		return "Medium risk detected. Proceed with caution and conduct thorough research."
	case RiskHigh:
		return "High risk detected. Avoid investing. Multiple red flags identified."
	default:
		return "Unable to assess risk."
	}
}

// TokenEvent is a contract observed on a live feed (new pair / new token).
type TokenEvent struct {
	ContractAddress string    `json:"contract_address"`
	Blockchain      string    `json:"blockchain"`
	PairAddress     string    `json:"pair_address,omitempty"`
	ObservedAt      time.Time `json:"observed_at"`
}
