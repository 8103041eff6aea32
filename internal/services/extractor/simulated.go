// Package extractor contains feature producers. Every producer emits the full
// 60-field schema mapping; partial emission is a bug, not a degraded mode.
package extractor

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"RugDetector/internal/schema"
)

// Simulated produces deterministic demo features seeded from the contract
// address, so repeated requests for the same address agree. Risk tiering
// follows the address-derived seed: every fifth seed is high risk, every
// third is suspicious.
type Simulated struct {
	reg *schema.Registry
}

// NewSimulated creates a simulated extractor bound to the schema registry.
func NewSimulated(reg *schema.Registry) *Simulated {
	return &Simulated{reg: reg}
}

// Seed derives the deterministic seed from the trailing 8 hex characters of
// the address, modulo 10000.
func Seed(contractAddress string) int64 {
	addr := strings.TrimPrefix(strings.ToLower(contractAddress), "0x")
	if len(addr) < 8 {
		return 0
	}
	n, err := strconv.ParseInt(addr[len(addr)-8:], 16, 64)
	if err != nil {
		return 0
	}
	return n % 10000
}

// Extract produces the full feature mapping for an address.
func (s *Simulated) Extract(_ context.Context, contractAddress, blockchain string) (map[string]float64, error) {
	seed := Seed(contractAddress)
	rng := rand.New(rand.NewSource(seed))

	suspicious := seed%3 == 0
	highRisk := seed%5 == 0

	f := make(map[string]float64, schema.FieldCount)

	flag := func(p float64) float64 {
		if rng.Float64() > p {
			return 1
		}
		return 0
	}
	uniform := func(lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }
	count := func(lo, hi int) float64 { return float64(lo + rng.Intn(hi-lo+1)) }
	pick := func(cond bool, yes, no float64) float64 {
		if cond {
			return yes
		}
		return no
	}

	// Ownership
	f["hasOwnershipTransfer"] = flag(0.3)
	f["hasRenounceOwnership"] = flag(0.6)
	f["ownerBalance"] = pick(highRisk, uniform(0.8, 0.95), uniform(0.0, 0.3))
	f["ownerTransactionCount"] = pick(suspicious, count(100, 500), count(5, 50))
	f["multipleOwners"] = flag(0.7)
	f["ownershipChangedRecently"] = pick(suspicious && rng.Float64() > 0.5, 1, 0)
	f["ownerContractAge"] = pick(suspicious, uniform(1, 30), uniform(30, 365))
	f["ownerIsContract"] = flag(0.8)
	f["ownerBlacklisted"] = pick(highRisk && rng.Float64() > 0.7, 1, 0)
	f["ownerVerified"] = pick(suspicious, 0, flag(0.5))

	// Liquidity
	f["hasLiquidityLock"] = pick(highRisk, 0, flag(0.4))
	f["liquidityPoolSize"] = pick(suspicious, uniform(1000, 10000), uniform(50000, 500000))
	f["liquidityRatio"] = pick(highRisk, uniform(0.1, 0.3), uniform(0.4, 0.8))
	f["hasUniswapV2"] = pick(blockchain == "ethereum", flag(0.3), 0)
	f["hasPancakeSwap"] = pick(blockchain == "bsc", flag(0.3), 0)
	f["liquidityLockedDays"] = pick(suspicious, uniform(0, 30), uniform(180, 730))
	f["liquidityProvidedByOwner"] = pick(highRisk, uniform(0.7, 1.0), uniform(0.0, 0.3))
	f["multiplePoolsExist"] = flag(0.6)
	f["poolCreatedRecently"] = pick(suspicious, 1, 0)
	f["lowLiquidityWarning"] = pick(highRisk, 1, 0)
	f["rugpullHistoryOnDEX"] = pick(highRisk && rng.Float64() > 0.8, 1, 0)
	f["slippageTooHigh"] = pick(suspicious && rng.Float64() > 0.6, 1, 0)

	// Holders
	f["holderCount"] = pick(suspicious, count(10, 100), count(500, 10000))
	f["holderConcentration"] = pick(highRisk, uniform(0.7, 0.95), uniform(0.1, 0.4))
	f["top10HoldersPercent"] = pick(highRisk, uniform(0.8, 0.98), uniform(0.2, 0.5))
	f["averageHoldingTime"] = pick(suspicious, uniform(1, 7), uniform(30, 180))
	f["suspiciousHolderPatterns"] = pick(highRisk, 1, 0)
	f["whaleCount"] = pick(suspicious, count(5, 15), count(0, 3))
	f["holderGrowthRate"] = pick(suspicious, uniform(0.5, 2.0), uniform(0.1, 0.5))
	f["dormantHolders"] = pick(highRisk, uniform(0.6, 0.9), uniform(0.1, 0.3))
	f["newHoldersSpiking"] = pick(suspicious && rng.Float64() > 0.5, 1, 0)
	f["sellingPressure"] = pick(highRisk, uniform(0.6, 0.9), uniform(0.1, 0.4))

	// Contract code
	f["hasHiddenMint"] = pick(highRisk && rng.Float64() > 0.6, 1, 0)
	f["hasPausableTransfers"] = pick(suspicious && rng.Float64() > 0.5, 1, 0)
	f["hasBlacklist"] = flag(0.7)
	f["hasWhitelist"] = flag(0.8)
	f["hasTimelocks"] = flag(0.5)
	f["complexityScore"] = pick(suspicious, uniform(0.6, 0.95), uniform(0.2, 0.5))
	f["hasProxyPattern"] = flag(0.7)
	f["isUpgradeable"] = flag(0.6)
	f["hasExternalCalls"] = flag(0.4)
	f["hasSelfDestruct"] = pick(highRisk, 1, 0)
	f["hasDelegateCall"] = flag(0.7)
	f["hasInlineAssembly"] = flag(0.6)
	f["verifiedContract"] = pick(suspicious, 0, 1)
	f["auditedByFirm"] = pick(suspicious, 0, flag(0.7))
	f["openSourceCode"] = pick(suspicious, 0, 1)

	// Transactions
	f["avgDailyTransactions"] = pick(suspicious, uniform(500, 2000), uniform(10, 200))
	f["transactionVelocity"] = pick(suspicious, uniform(0.7, 1.5), uniform(0.1, 0.5))
	f["uniqueInteractors"] = pick(suspicious, count(50, 200), count(200, 5000))
	f["suspiciousPatterns"] = pick(highRisk, 1, 0)
	f["highFailureRate"] = pick(highRisk, 1, 0)
	f["gasOptimized"] = pick(highRisk, 0, 1)
	f["flashloanInteractions"] = pick(highRisk, 1, 0)
	f["frontRunningDetected"] = pick(highRisk, 1, 0)

	// Time
	f["contractAge"] = pick(suspicious, uniform(1, 14), uniform(90, 730))
	f["lastActivityDays"] = pick(suspicious, uniform(0, 2), uniform(0, 7))
	f["creationBlock"] = count(18_000_000, 19_000_000)
	f["deployedDuringBullMarket"] = flag(0.5)
	f["launchFairness"] = pick(highRisk, uniform(0.1, 0.4), uniform(0.6, 0.95))

	if err := s.reg.Validate(f); err != nil {
		return nil, fmt.Errorf("simulated extractor output: %w", err)
	}
	return f, nil
}
