package schema

// Kind classifies the semantic type of a feature value.
type Kind string

const (
	// KindFlag is a boolean encoded as 0 or 1.
	KindFlag Kind = "flag"
	// KindRatio is a proportion expected (not enforced) in [0,1].
	KindRatio Kind = "ratio"
	// KindCount is a non-negative count of unbounded magnitude.
	KindCount Kind = "count"
	// KindAmount is a non-negative monetary amount (USD-denominated).
	KindAmount Kind = "amount"
	// KindDurationDays is a non-negative duration in days.
	KindDurationDays Kind = "duration_days"
	// KindBlockNumber is a non-negative integer-valued block height.
	KindBlockNumber Kind = "block_number"
)

// Group labels the documentation grouping of a feature. Groups exist for
// display only; they never affect wire ordering.
type Group string

const (
	GroupOwnership    Group = "ownership"
	GroupLiquidity    Group = "liquidity"
	GroupHolders      Group = "holders"
	GroupCode         Group = "code"
	GroupTransactions Group = "transactions"
	GroupTime         Group = "time"
)

// FieldSpec describes one recognized feature.
type FieldSpec struct {
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`
	Group Group  `json:"group"`
}

// fieldTable is the single declaration of the recognized feature set.
// Listed in documentation grouping order; the registry derives the canonical
// (lexicographic) order from it. Do not declare this list anywhere else.
var fieldTable = []FieldSpec{
	// Ownership (10)
	{Name: "hasOwnershipTransfer", Kind: KindFlag, Group: GroupOwnership},
	{Name: "hasRenounceOwnership", Kind: KindFlag, Group: GroupOwnership},
	{Name: "ownerBalance", Kind: KindRatio, Group: GroupOwnership},
	{Name: "ownerTransactionCount", Kind: KindCount, Group: GroupOwnership},
	{Name: "multipleOwners", Kind: KindFlag, Group: GroupOwnership},
	{Name: "ownershipChangedRecently", Kind: KindFlag, Group: GroupOwnership},
	{Name: "ownerContractAge", Kind: KindDurationDays, Group: GroupOwnership},
	{Name: "ownerIsContract", Kind: KindFlag, Group: GroupOwnership},
	{Name: "ownerBlacklisted", Kind: KindFlag, Group: GroupOwnership},
	{Name: "ownerVerified", Kind: KindFlag, Group: GroupOwnership},

	// Liquidity (12)
	{Name: "hasLiquidityLock", Kind: KindFlag, Group: GroupLiquidity},
	{Name: "liquidityPoolSize", Kind: KindAmount, Group: GroupLiquidity},
	{Name: "liquidityRatio", Kind: KindRatio, Group: GroupLiquidity},
	{Name: "hasUniswapV2", Kind: KindFlag, Group: GroupLiquidity},
	{Name: "hasPancakeSwap", Kind: KindFlag, Group: GroupLiquidity},
	{Name: "liquidityLockedDays", Kind: KindDurationDays, Group: GroupLiquidity},
	{Name: "liquidityProvidedByOwner", Kind: KindRatio, Group: GroupLiquidity},
	{Name: "multiplePoolsExist", Kind: KindFlag, Group: GroupLiquidity},
	{Name: "poolCreatedRecently", Kind: KindFlag, Group: GroupLiquidity},
	{Name: "lowLiquidityWarning", Kind: KindFlag, Group: GroupLiquidity},
	{Name: "rugpullHistoryOnDEX", Kind: KindFlag, Group: GroupLiquidity},
	{Name: "slippageTooHigh", Kind: KindFlag, Group: GroupLiquidity},

	// Holders (10)
	{Name: "holderCount", Kind: KindCount, Group: GroupHolders},
	{Name: "holderConcentration", Kind: KindRatio, Group: GroupHolders},
	{Name: "top10HoldersPercent", Kind: KindRatio, Group: GroupHolders},
	{Name: "averageHoldingTime", Kind: KindDurationDays, Group: GroupHolders},
	{Name: "suspiciousHolderPatterns", Kind: KindFlag, Group: GroupHolders},
	{Name: "whaleCount", Kind: KindCount, Group: GroupHolders},
	{Name: "holderGrowthRate", Kind: KindRatio, Group: GroupHolders},
	{Name: "dormantHolders", Kind: KindRatio, Group: GroupHolders},
	{Name: "newHoldersSpiking", Kind: KindFlag, Group: GroupHolders},
	{Name: "sellingPressure", Kind: KindRatio, Group: GroupHolders},

	// Contract code (15)
	{Name: "hasHiddenMint", Kind: KindFlag, Group: GroupCode},
	{Name: "hasPausableTransfers", Kind: KindFlag, Group: GroupCode},
	{Name: "hasBlacklist", Kind: KindFlag, Group: GroupCode},
	{Name: "hasWhitelist", Kind: KindFlag, Group: GroupCode},
	{Name: "hasTimelocks", Kind: KindFlag, Group: GroupCode},
	{Name: "complexityScore", Kind: KindRatio, Group: GroupCode},
	{Name: "hasProxyPattern", Kind: KindFlag, Group: GroupCode},
	{Name: "isUpgradeable", Kind: KindFlag, Group: GroupCode},
	{Name: "hasExternalCalls", Kind: KindFlag, Group: GroupCode},
	{Name: "hasSelfDestruct", Kind: KindFlag, Group: GroupCode},
	{Name: "hasDelegateCall", Kind: KindFlag, Group: GroupCode},
	{Name: "hasInlineAssembly", Kind: KindFlag, Group: GroupCode},
	{Name: "verifiedContract", Kind: KindFlag, Group: GroupCode},
	{Name: "auditedByFirm", Kind: KindFlag, Group: GroupCode},
	{Name: "openSourceCode", Kind: KindFlag, Group: GroupCode},

	// Transaction patterns (8)
	{Name: "avgDailyTransactions", Kind: KindCount, Group: GroupTransactions},
	{Name: "transactionVelocity", Kind: KindRatio, Group: GroupTransactions},
	{Name: "uniqueInteractors", Kind: KindCount, Group: GroupTransactions},
	{Name: "suspiciousPatterns", Kind: KindFlag, Group: GroupTransactions},
	{Name: "highFailureRate", Kind: KindFlag, Group: GroupTransactions},
	{Name: "gasOptimized", Kind: KindFlag, Group: GroupTransactions},
	{Name: "flashloanInteractions", Kind: KindFlag, Group: GroupTransactions},
	{Name: "frontRunningDetected", Kind: KindFlag, Group: GroupTransactions},

	// Time-based (5)
	{Name: "contractAge", Kind: KindDurationDays, Group: GroupTime},
	{Name: "lastActivityDays", Kind: KindDurationDays, Group: GroupTime},
	{Name: "creationBlock", Kind: KindBlockNumber, Group: GroupTime},
	{Name: "deployedDuringBullMarket", Kind: KindFlag, Group: GroupTime},
	{Name: "launchFairness", Kind: KindRatio, Group: GroupTime},
}
