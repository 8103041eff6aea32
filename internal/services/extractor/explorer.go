package extractor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"RugDetector/internal/schema"
	svccache "RugDetector/internal/service/cache"
	svcmetrics "RugDetector/internal/service/metrics"
	"RugDetector/internal/service/ratelimit"
	pkghttp "RugDetector/pkg/http"
	"RugDetector/pkg/logger"
)

// Explorer enriches the simulated baseline with real contract-code features
// fetched from a block explorer API (Etherscan-compatible). Only the code
// group is derivable from the explorer; the remaining groups keep the
// deterministic baseline so the vector is always complete.
type Explorer struct {
	client    *pkghttp.Client
	limiter   *ratelimit.Limiter
	log       *logger.Logger
	fallback  *Simulated
	artifacts svccache.Store

	baseURL string
	apiKey  string

	// explorer free tiers allow ~5 req/s
	rateCapacity float64
	ratePerSec   float64
	artifactTTL  time.Duration
}

// ExplorerOption configures Explorer.
type ExplorerOption func(*Explorer)

// WithRateLimit overrides the per-chain request budget.
func WithRateLimit(capacity, perSec float64) ExplorerOption {
	return func(e *Explorer) {
		e.rateCapacity = capacity
		e.ratePerSec = perSec
	}
}

// WithArtifactCache replaces the in-process artifact cache, e.g. with a
// Redis-backed one so replicas share fetched source and bytecode.
func WithArtifactCache(c svccache.Store) ExplorerOption {
	return func(e *Explorer) {
		e.artifacts = c
	}
}

// NewExplorer creates an explorer-backed extractor. baseURL points at an
// Etherscan-compatible API root, e.g. https://api.etherscan.io/api.
func NewExplorer(reg *schema.Registry, client *pkghttp.Client, limiter *ratelimit.Limiter, log *logger.Logger, baseURL, apiKey string, opts ...ExplorerOption) *Explorer {
	e := &Explorer{
		client:       client,
		limiter:      limiter,
		log:          log,
		fallback:     NewSimulated(reg),
		artifacts:    svccache.NewMemory(),
		baseURL:      baseURL,
		apiKey:       apiKey,
		rateCapacity: 5,
		ratePerSec:   4,
		artifactTTL:  10 * time.Minute,
	}
	for _, opt := range opts {
		opt(e)
	}
	svcmetrics.Register()
	return e
}

type explorerSourceResponse struct {
	Status string `json:"status"`
	Result []struct {
		SourceCode   string `json:"SourceCode"`
		ContractName string `json:"ContractName"`
		Proxy        string `json:"Proxy"`
	} `json:"result"`
}

type explorerProxyResponse struct {
	Result string `json:"result"`
}

// Extract fetches source and bytecode for the contract and overlays code
// features onto the deterministic baseline. Any explorer failure degrades
// to the baseline alone.
func (e *Explorer) Extract(ctx context.Context, contractAddress, blockchain string) (map[string]float64, error) {
	features, err := e.fallback.Extract(ctx, contractAddress, blockchain)
	if err != nil {
		return nil, err
	}

	if e.baseURL == "" {
		return features, nil
	}
	if !e.limiter.Allow("explorer:"+blockchain, e.rateCapacity, e.ratePerSec) {
		e.log.Warn("explorer rate limited, using baseline features",
			logger.String("blockchain", blockchain))
		return features, nil
	}

	source, sourceErr := e.fetchSource(ctx, contractAddress)
	bytecode, codeErr := e.fetchBytecode(ctx, contractAddress)
	if sourceErr != nil && codeErr != nil {
		e.log.Warn("explorer unavailable, using baseline features",
			logger.String("contract", contractAddress),
			logger.Error(sourceErr))
		return features, nil
	}

	overlayCodeFeatures(features, source, bytecode)
	return features, nil
}

func (e *Explorer) fetchSource(ctx context.Context, address string) (string, error) {
	cacheKey := "explorer:src:" + address
	if b, ok, _ := e.artifacts.Get(cacheKey); ok {
		return string(b), nil
	}

	start := time.Now()
	var resp explorerSourceResponse
	err := e.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    e.baseURL,
		QueryParams: map[string][]string{
			"module":  {"contract"},
			"action":  {"getsourcecode"},
			"address": {address},
			"apikey":  {e.apiKey},
		},
	}, &resp)
	svcmetrics.ExplorerLatency.WithLabelValues("getsourcecode").Observe(time.Since(start).Seconds())
	if err != nil {
		svcmetrics.ExplorerErrors.WithLabelValues("getsourcecode").Inc()
		return "", fmt.Errorf("fetch source: %w", err)
	}
	if len(resp.Result) == 0 {
		return "", nil
	}
	source := resp.Result[0].SourceCode
	if err := e.artifacts.Set(cacheKey, []byte(source), e.artifactTTL); err != nil {
		e.log.Warn("artifact cache write failed", logger.Error(err))
	}
	return source, nil
}

func (e *Explorer) fetchBytecode(ctx context.Context, address string) (string, error) {
	cacheKey := "explorer:code:" + address
	if b, ok, _ := e.artifacts.Get(cacheKey); ok {
		return string(b), nil
	}

	start := time.Now()
	var resp explorerProxyResponse
	err := e.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    e.baseURL,
		QueryParams: map[string][]string{
			"module":  {"proxy"},
			"action":  {"eth_getCode"},
			"address": {address},
			"tag":     {"latest"},
			"apikey":  {e.apiKey},
		},
	}, &resp)
	svcmetrics.ExplorerLatency.WithLabelValues("eth_getCode").Observe(time.Since(start).Seconds())
	if err != nil {
		svcmetrics.ExplorerErrors.WithLabelValues("eth_getCode").Inc()
		return "", fmt.Errorf("fetch bytecode: %w", err)
	}
	if err := e.artifacts.Set(cacheKey, []byte(resp.Result), e.artifactTTL); err != nil {
		e.log.Warn("artifact cache write failed", logger.Error(err))
	}
	return resp.Result, nil
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// overlayCodeFeatures replaces the code-group features with values derived
// from the actual contract artifacts. Bytecode checks look for the opcode
// bytes in the hex string; source checks are case-insensitive substring
// scans, which is deliberately crude but matches how these flags are
// consumed downstream (presence signals, not semantics).
func overlayCodeFeatures(f map[string]float64, source, bytecode string) {
	verified := strings.TrimSpace(source) != ""
	f["verifiedContract"] = boolFeature(verified)
	f["openSourceCode"] = boolFeature(verified)

	if bc := strings.TrimPrefix(strings.ToLower(bytecode), "0x"); bc != "" && bc != "0" {
		f["hasSelfDestruct"] = boolFeature(strings.Contains(bc, "ff"))
		f["hasDelegateCall"] = boolFeature(strings.Contains(bc, "f4"))
		complexity := float64(len(bc)) / 10000
		if complexity > 1 {
			complexity = 1
		}
		f["complexityScore"] = complexity
	}

	if !verified {
		// unverified contracts are assumed to make external calls
		f["hasExternalCalls"] = 1
		return
	}

	src := strings.ToLower(source)
	f["hasHiddenMint"] = boolFeature(strings.Contains(src, "mint(") && !strings.Contains(src, "onlyowner"))
	f["hasPausableTransfers"] = boolFeature(strings.Contains(src, "pause") || strings.Contains(src, "_paused"))
	f["hasBlacklist"] = boolFeature(strings.Contains(src, "blacklist"))
	f["hasWhitelist"] = boolFeature(strings.Contains(src, "whitelist"))
	f["hasTimelocks"] = boolFeature(strings.Contains(src, "timelock"))
	f["hasExternalCalls"] = boolFeature(strings.Contains(src, ".call(") || strings.Contains(src, "delegatecall"))
	f["hasInlineAssembly"] = boolFeature(strings.Contains(src, "assembly"))
	f["hasProxyPattern"] = boolFeature(strings.Contains(src, "proxy"))
	f["isUpgradeable"] = boolFeature(strings.Contains(src, "upgradeable") || strings.Contains(src, "initialize("))
	f["hasOwnershipTransfer"] = boolFeature(strings.Contains(src, "transferownership"))
	f["hasRenounceOwnership"] = boolFeature(strings.Contains(src, "renounceownership"))

	audited := false
	for _, firm := range []string{"certik", "peckshield", "consensys", "openzeppelin", "audit"} {
		if strings.Contains(src, firm) {
			audited = true
			break
		}
	}
	f["auditedByFirm"] = boolFeature(audited)
}
