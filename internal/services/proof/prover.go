// Package proof implements the inference commitment scheme. It binds a
// quantized input vector and a risk assessment to a model hash with SHA-256
// commitments. This is an integrity commitment, not a zero-knowledge proof;
// the wire field names keep the established protocol label.
package proof

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"RugDetector/internal/domain/models"
)

// Protocol is the identifier carried in every proof record.
const Protocol = "jolt-atlas-v1"

// CommitmentProver produces and checks commitment records.
type CommitmentProver struct {
	modelHash string
	now       func() time.Time
}

// ProverOption configures CommitmentProver.
type ProverOption func(*CommitmentProver)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) ProverOption {
	return func(p *CommitmentProver) { p.now = now }
}

// New creates a prover bound to a model hash. An empty hash records
// "no-model", matching the classifier backends without weights.
func New(modelHash string, opts ...ProverOption) *CommitmentProver {
	if modelHash == "" {
		modelHash = "no-model"
	}
	p := &CommitmentProver{modelHash: modelHash, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Prove commits to the quantized input and the assessment.
func (p *CommitmentProver) Prove(quantized []int32, result *models.RiskAssessment) (*models.InferenceProof, error) {
	inputCommitment, err := commitQuantized(quantized)
	if err != nil {
		return nil, err
	}
	outputCommitment, err := commitResult(result)
	if err != nil {
		return nil, err
	}

	ts := p.now().Unix()
	proofID, size, err := proofID(inputCommitment, outputCommitment, p.modelHash, ts)
	if err != nil {
		return nil, err
	}

	return &models.InferenceProof{
		ProofID:          proofID,
		Protocol:         Protocol,
		InputCommitment:  inputCommitment,
		OutputCommitment: outputCommitment,
		ModelHash:        p.modelHash,
		Timestamp:        ts,
		Verifiable:       true,
		ProofSizeBytes:   size,
	}, nil
}

// Verify recomputes both commitments and the proof ID from the claimed
// inputs and the proof's own timestamp and model hash, then compares.
func (p *CommitmentProver) Verify(proof *models.InferenceProof, quantized []int32, result *models.RiskAssessment) (bool, error) {
	if proof == nil {
		return false, fmt.Errorf("verify: nil proof")
	}

	inputCommitment, err := commitQuantized(quantized)
	if err != nil {
		return false, err
	}
	if inputCommitment != proof.InputCommitment {
		return false, nil
	}

	outputCommitment, err := commitResult(result)
	if err != nil {
		return false, err
	}
	if outputCommitment != proof.OutputCommitment {
		return false, nil
	}

	expectedID, _, err := proofID(inputCommitment, outputCommitment, proof.ModelHash, proof.Timestamp)
	if err != nil {
		return false, err
	}
	return expectedID == proof.ProofID, nil
}

func commitQuantized(quantized []int32) (string, error) {
	raw, err := json.Marshal(quantized)
	if err != nil {
		return "", fmt.Errorf("marshal quantized input: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// commitResult serializes the assessment through a map so keys come out
// sorted regardless of struct layout.
func commitResult(result *models.RiskAssessment) (string, error) {
	if result == nil {
		return "", fmt.Errorf("marshal result: nil assessment")
	}
	doc := map[string]interface{}{
		"riskScore":    result.Score,
		"riskCategory": string(result.Category),
		"confidence":   result.Confidence,
		"probabilities": map[string]float64{
			"low":    result.Probabilities.Low,
			"medium": result.Probabilities.Medium,
			"high":   result.Probabilities.High,
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func proofID(inputCommitment, outputCommitment, modelHash string, timestamp int64) (string, int, error) {
	doc := map[string]interface{}{
		"input_commitment":  inputCommitment,
		"output_commitment": outputCommitment,
		"model_hash":        modelHash,
		"timestamp":         timestamp,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", 0, fmt.Errorf("marshal proof document: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), len(raw), nil
}
