package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"RugDetector/internal/domain/models"
	"RugDetector/internal/schema"
	"RugDetector/internal/services/extractor"
	"RugDetector/internal/services/proof"
	"RugDetector/pkg/cache"
	"RugDetector/pkg/logger"
)

type fakeClassifier struct {
	probs models.Probabilities
	err   error
	calls int
}

func (f *fakeClassifier) Classify(_ context.Context, vector []float64) (models.Probabilities, error) {
	f.calls++
	if len(vector) != schema.FieldCount {
		return models.Probabilities{}, fmt.Errorf("got %d features", len(vector))
	}
	return f.probs, f.err
}

func (f *fakeClassifier) ModelHash() string { return "test-hash" }
func (f *fakeClassifier) Method() string    { return "test" }

type fakeStore struct {
	mu       sync.Mutex
	inserted []*models.ContractAnalysis
	err      error
}

func (f *fakeStore) Insert(_ context.Context, a *models.ContractAnalysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, a)
	return nil
}

func (f *fakeStore) Recent(_ context.Context, _ string, _, _ time.Time, _ int) ([]models.ContractAnalysis, error) {
	return nil, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*models.ContractAnalysis
}

func (f *fakePublisher) Publish(_ context.Context, a *models.ContractAnalysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, a)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func (f *fakeMetrics) RecordAnalysis(string, string)     {}
func (f *fakeMetrics) RecordRiskScore(string, float64)   {}
func (f *fakeMetrics) RecordStageLatency(string, float64) {}
func (f *fakeMetrics) RecordError(kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errors == nil {
		f.errors = map[string]int{}
	}
	f.errors[kind]++
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newTestAnalyzer(t *testing.T, cls *fakeClassifier, store *fakeStore, pub *fakePublisher) *Analyzer {
	t.Helper()
	reg := schema.New()
	return NewAnalyzer(
		reg,
		extractor.NewSimulated(reg),
		cls,
		proof.New(cls.ModelHash()),
		cache.NewMemoryCache(),
		store,
		pub,
		&fakeMetrics{},
		testLogger(t),
	)
}

const testAddress = "0x1234567890abcdef1234567890abcdef12345678"

func TestAnalyzePipeline(t *testing.T) {
	cls := &fakeClassifier{probs: models.Probabilities{Low: 0.1, Medium: 0.2, High: 0.7}}
	store := &fakeStore{}
	pub := &fakePublisher{}
	a := newTestAnalyzer(t, cls, store, pub)

	got, err := a.Analyze(context.Background(), testAddress, "ethereum")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if got.Assessment.Category != models.RiskHigh {
		t.Errorf("category = %s, want high", got.Assessment.Category)
	}
	if got.Recommendation != models.RecommendationFor(models.RiskHigh) {
		t.Errorf("recommendation = %q", got.Recommendation)
	}
	if got.InferenceMethod != "test" {
		t.Errorf("inference method = %q", got.InferenceMethod)
	}
	if len(got.Quantized) != schema.FieldCount {
		t.Errorf("quantized length = %d", len(got.Quantized))
	}
	if got.Proof == nil || got.Proof.ProofID == "" {
		t.Fatal("missing proof")
	}
	if len(store.inserted) != 1 {
		t.Errorf("store inserts = %d, want 1", len(store.inserted))
	}
	if len(pub.published) != 1 {
		t.Errorf("published = %d, want 1", len(pub.published))
	}
}

func TestAnalyzeCachesResult(t *testing.T) {
	cls := &fakeClassifier{probs: models.Probabilities{Low: 0.8, Medium: 0.1, High: 0.1}}
	a := newTestAnalyzer(t, cls, &fakeStore{}, &fakePublisher{})

	if _, err := a.Analyze(context.Background(), testAddress, "ethereum"); err != nil {
		t.Fatalf("first Analyze: %v", err)
	}
	if _, err := a.Analyze(context.Background(), testAddress, "ethereum"); err != nil {
		t.Fatalf("second Analyze: %v", err)
	}
	if cls.calls != 1 {
		t.Errorf("classifier calls = %d, want 1 (second hit should come from cache)", cls.calls)
	}
}

func TestAnalyzeRejectsBadAddress(t *testing.T) {
	cls := &fakeClassifier{}
	a := newTestAnalyzer(t, cls, &fakeStore{}, &fakePublisher{})

	for _, addr := range []string{"", "nothex", "0x1234"} {
		if _, err := a.Analyze(context.Background(), addr, "ethereum"); err == nil {
			t.Errorf("address %q accepted", addr)
		}
	}
	if cls.calls != 0 {
		t.Errorf("classifier called %d times for invalid addresses", cls.calls)
	}
}

func TestAnalyzeNormalizesAddress(t *testing.T) {
	cls := &fakeClassifier{probs: models.Probabilities{Low: 0.9}}
	a := newTestAnalyzer(t, cls, &fakeStore{}, &fakePublisher{})

	got, err := a.Analyze(context.Background(), "  0x1234567890ABCDEF1234567890ABCDEF12345678 ", "ethereum")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.ContractAddress != testAddress {
		t.Errorf("address = %q, want lowercased %q", got.ContractAddress, testAddress)
	}
}

func TestVerifyProofRoundTrip(t *testing.T) {
	cls := &fakeClassifier{probs: models.Probabilities{Low: 0.1, Medium: 0.2, High: 0.7}}
	a := newTestAnalyzer(t, cls, &fakeStore{}, &fakePublisher{})

	analysis, err := a.Analyze(context.Background(), testAddress, "ethereum")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	ok, err := a.VerifyProof(context.Background(), analysis.Proof, analysis.Features, &analysis.Assessment)
	if err != nil {
		t.Fatalf("VerifyProof: %v", err)
	}
	if !ok {
		t.Error("genuine analysis failed verification")
	}

	forged := analysis.Assessment
	forged.Score = 0.01
	forged.Category = models.RiskLow
	ok, err = a.VerifyProof(context.Background(), analysis.Proof, analysis.Features, &forged)
	if err != nil {
		t.Fatalf("VerifyProof forged: %v", err)
	}
	if ok {
		t.Error("forged assessment passed verification")
	}
}

func TestVerifyProofRejectsMalformedFeatures(t *testing.T) {
	cls := &fakeClassifier{}
	a := newTestAnalyzer(t, cls, &fakeStore{}, &fakePublisher{})

	_, err := a.VerifyProof(context.Background(), &models.InferenceProof{}, map[string]float64{"bogus": 1}, &models.RiskAssessment{})
	if err == nil {
		t.Fatal("expected validation error for malformed features")
	}
}
