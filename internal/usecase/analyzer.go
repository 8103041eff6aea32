package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"RugDetector/internal/domain/models"
	drepo "RugDetector/internal/domain/repository"
	domsvc "RugDetector/internal/domain/service"
	"RugDetector/internal/quantize"
	"RugDetector/internal/schema"
	"RugDetector/internal/services/inference"
	"RugDetector/pkg/cache"
	"RugDetector/pkg/logger"
	"RugDetector/pkg/util"
)

// Analyzer runs the full analysis pipeline for a contract address:
// extract -> validate -> quantize -> classify -> prove, then caches,
// persists and publishes the result.
type Analyzer struct {
	reg        *schema.Registry
	extractor  domsvc.FeatureExtractor
	classifier domsvc.Classifier
	prover     domsvc.Prover
	cache      cache.Service
	store      drepo.AnalysisStore
	publisher  drepo.Publisher
	metrics    drepo.Metrics
	log        *logger.Logger

	cacheTTL time.Duration
	now      func() time.Time
}

// AnalyzerOption configures Analyzer.
type AnalyzerOption func(*Analyzer)

// WithCacheTTL overrides how long analyses stay cached.
func WithCacheTTL(ttl time.Duration) AnalyzerOption {
	return func(a *Analyzer) { a.cacheTTL = ttl }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer wires the pipeline. store and publisher may be nil when
// persistence or streaming is disabled.
func NewAnalyzer(
	reg *schema.Registry,
	extractor domsvc.FeatureExtractor,
	classifier domsvc.Classifier,
	prover domsvc.Prover,
	c cache.Service,
	store drepo.AnalysisStore,
	publisher drepo.Publisher,
	metrics drepo.Metrics,
	log *logger.Logger,
	opts ...AnalyzerOption,
) *Analyzer {
	a := &Analyzer{
		reg:        reg,
		extractor:  extractor,
		classifier: classifier,
		prover:     prover,
		cache:      c,
		store:      store,
		publisher:  publisher,
		metrics:    metrics,
		log:        log,
		cacheTTL:   5 * time.Minute,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze scores one contract. Results are cached per (chain, address).
func (a *Analyzer) Analyze(ctx context.Context, contractAddress, blockchain string) (*models.ContractAnalysis, error) {
	address := strings.ToLower(strings.TrimSpace(contractAddress))
	if !util.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address %q", contractAddress)
	}
	if blockchain == "" {
		blockchain = "ethereum"
	}

	cacheKey := fmt.Sprintf("analysis:%s:%s", blockchain, address)
	if a.cache != nil {
		var cached models.ContractAnalysis
		if err := a.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	start := a.now()
	features, err := a.extractor.Extract(ctx, address, blockchain)
	if err != nil {
		a.metrics.RecordError("extract")
		return nil, fmt.Errorf("extract features: %w", err)
	}
	a.metrics.RecordStageLatency("extract", a.now().Sub(start).Seconds())

	quantized, err := quantize.Quantize(a.reg, features)
	if err != nil {
		a.metrics.RecordError("quantize")
		return nil, fmt.Errorf("quantize features: %w", err)
	}

	vector := make([]float64, len(quantized))
	for i, name := range a.reg.CanonicalOrder() {
		vector[i] = features[name]
	}

	inferStart := a.now()
	probs, err := a.classifier.Classify(ctx, vector)
	if err != nil {
		a.metrics.RecordError("inference")
		return nil, fmt.Errorf("classify: %w", err)
	}
	a.metrics.RecordStageLatency("inference", a.now().Sub(inferStart).Seconds())

	assessment := inference.Assess(probs)

	proof, err := a.prover.Prove(quantized, &assessment)
	if err != nil {
		a.metrics.RecordError("proof")
		return nil, fmt.Errorf("generate proof: %w", err)
	}

	analysis := &models.ContractAnalysis{
		ContractAddress: address,
		Blockchain:      blockchain,
		Assessment:      assessment,
		Features:        features,
		Quantized:       quantized,
		Recommendation:  models.RecommendationFor(assessment.Category),
		InferenceMethod: a.classifier.Method(),
		Proof:           proof,
		AnalyzedAt:      a.now().UTC(),
	}

	a.metrics.RecordAnalysis(blockchain, string(assessment.Category))
	a.metrics.RecordRiskScore(blockchain, assessment.Score)

	if a.cache != nil {
		if err := a.cache.Set(ctx, cacheKey, analysis, a.cacheTTL); err != nil {
			a.log.Warn("cache analysis failed", logger.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Insert(ctx, analysis); err != nil {
			a.metrics.RecordError("store")
			a.log.Error("persist analysis failed",
				logger.String("contract", address),
				logger.Error(err))
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Publish(ctx, analysis); err != nil {
			a.metrics.RecordError("publish")
			a.log.Warn("publish analysis failed", logger.Error(err))
		}
	}

	a.log.Info("contract analyzed",
		logger.String("contract", address),
		logger.String("blockchain", blockchain),
		logger.String("category", string(assessment.Category)),
		logger.Any("score", assessment.Score))

	return analysis, nil
}

// VerifyProof checks a commitment proof against the claimed features and
// assessment. Features are validated and re-quantized before checking.
func (a *Analyzer) VerifyProof(ctx context.Context, proof *models.InferenceProof, features map[string]float64, result *models.RiskAssessment) (bool, error) {
	quantized, err := quantize.Quantize(a.reg, features)
	if err != nil {
		return false, fmt.Errorf("quantize features: %w", err)
	}
	ok, err := a.prover.Verify(proof, quantized, result)
	if err != nil {
		return false, fmt.Errorf("verify proof: %w", err)
	}
	return ok, nil
}

// Recent returns persisted analyses in a time range.
func (a *Analyzer) Recent(ctx context.Context, blockchain string, from, to time.Time, limit int) ([]models.ContractAnalysis, error) {
	if a.store == nil {
		return nil, fmt.Errorf("analysis store not configured")
	}
	return a.store.Recent(ctx, blockchain, from, to, limit)
}

// Method reports the active inference backend.
func (a *Analyzer) Method() string { return a.classifier.Method() }

// ModelHash reports the active model hash.
func (a *Analyzer) ModelHash() string { return a.classifier.ModelHash() }
