package proof

import (
	"testing"
	"time"

	"RugDetector/internal/domain/models"
)

func fixedClock() func() time.Time {
	return func() time.Time { return time.Unix(1_700_000_000, 0) }
}

func sampleAssessment() *models.RiskAssessment {
	return &models.RiskAssessment{
		Score:      0.72,
		Category:   models.RiskHigh,
		Confidence: 0.72,
		Probabilities: models.Probabilities{
			Low:    0.1,
			Medium: 0.18,
			High:   0.72,
		},
	}
}

func TestProveAndVerifyRoundTrip(t *testing.T) {
	p := New("abc123", WithClock(fixedClock()))
	quantized := []int32{1, 0, 420, 850, 0}

	proof, err := p.Prove(quantized, sampleAssessment())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if proof.Protocol != Protocol {
		t.Errorf("protocol = %q, want %q", proof.Protocol, Protocol)
	}
	if !proof.Verifiable {
		t.Error("proof not marked verifiable")
	}
	if proof.ModelHash != "abc123" {
		t.Errorf("model hash = %q", proof.ModelHash)
	}
	if proof.ProofSizeBytes <= 0 {
		t.Errorf("proof size = %d", proof.ProofSizeBytes)
	}
	if len(proof.ProofID) != 64 || len(proof.InputCommitment) != 64 || len(proof.OutputCommitment) != 64 {
		t.Errorf("commitments are not hex sha256 digests: %+v", proof)
	}

	ok, err := p.Verify(proof, quantized, sampleAssessment())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("genuine proof rejected")
	}
}

func TestVerifyRejectsTamperedInput(t *testing.T) {
	p := New("abc123", WithClock(fixedClock()))
	quantized := []int32{1, 2, 3}

	proof, err := p.Prove(quantized, sampleAssessment())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	tampered := []int32{1, 2, 4}
	ok, err := p.Verify(proof, tampered, sampleAssessment())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Error("tampered input accepted")
	}
}

func TestVerifyRejectsTamperedResult(t *testing.T) {
	p := New("abc123", WithClock(fixedClock()))
	quantized := []int32{1, 2, 3}

	proof, err := p.Prove(quantized, sampleAssessment())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	better := sampleAssessment()
	better.Score = 0.1
	better.Category = models.RiskLow
	ok, err := p.Verify(proof, quantized, better)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Error("tampered result accepted")
	}
}

func TestVerifyRejectsForgedProofID(t *testing.T) {
	p := New("abc123", WithClock(fixedClock()))
	quantized := []int32{9, 9, 9}

	proof, err := p.Prove(quantized, sampleAssessment())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	proof.ProofID = "0000000000000000000000000000000000000000000000000000000000000000"

	ok, err := p.Verify(proof, quantized, sampleAssessment())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Error("forged proof id accepted")
	}
}

func TestVerifyUsesProofTimestamp(t *testing.T) {
	p := New("abc123", WithClock(fixedClock()))
	quantized := []int32{5}

	proof, err := p.Prove(quantized, sampleAssessment())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	// a verifier with a different clock must still accept
	later := New("abc123", WithClock(func() func() time.Time {
		return func() time.Time { return time.Unix(1_800_000_000, 0) }
	}()))
	ok, err := later.Verify(proof, quantized, sampleAssessment())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("verification depends on verifier clock")
	}
}

func TestEmptyModelHashDefaults(t *testing.T) {
	p := New("")
	proof, err := p.Prove([]int32{1}, sampleAssessment())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if proof.ModelHash != "no-model" {
		t.Errorf("model hash = %q, want no-model", proof.ModelHash)
	}
}

func TestVerifyNilProof(t *testing.T) {
	p := New("abc123")
	if _, err := p.Verify(nil, []int32{1}, sampleAssessment()); err == nil {
		t.Fatal("expected error for nil proof")
	}
}
