package models

// Requests for detector HTTP endpoints. Defined in domain for consistency and reuse.

type CheckRequest struct {
	ContractAddress string `json:"contract_address" validate:"required"`
	Blockchain      string `json:"blockchain" default:"ethereum" validate:"oneof=ethereum bsc polygon"`
}

type VerifyRequest struct {
	Proof    *InferenceProof    `json:"proof" validate:"required"`
	Features map[string]float64 `json:"features" validate:"required"`
	Result   *RiskAssessment    `json:"result" validate:"required"`
}

type AnalysesRequest struct {
	Blockchain string `query:"blockchain" json:"blockchain" default:"ethereum" validate:"oneof=ethereum bsc polygon"`
	From       string `query:"from" json:"from"`
	To         string `query:"to" json:"to"`
	Limit      int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

// ScoreRequest is the payload consumed from the scoring-requests topic.
type ScoreRequest struct {
	ContractAddress string `json:"contract_address"`
	Blockchain      string `json:"blockchain"`
}
