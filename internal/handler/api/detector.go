package api

import (
	"time"

	models "RugDetector/internal/domain/models"
	"RugDetector/internal/schema"
	"RugDetector/internal/usecase"
	xhttp "RugDetector/pkg/http"
	xlogger "RugDetector/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DetectorHandler exposes the contract risk API over Echo.
type DetectorHandler struct {
	logger   *xlogger.Logger
	analyzer *usecase.Analyzer
	reg      *schema.Registry
	version  string
}

func NewDetectorHandler(logger *xlogger.Logger, analyzer *usecase.Analyzer, reg *schema.Registry, version string) *DetectorHandler {
	return &DetectorHandler{logger: logger, analyzer: analyzer, reg: reg, version: version}
}

// RegisterRoutes keeps the established wire paths, including /zkml/verify.
func (h *DetectorHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/check", h.Check)
	e.POST("/zkml/verify", h.Verify)
	e.GET("/health", h.Health)
	e.GET("/schema", h.Schema)
	e.GET("/analyses", h.Analyses)
}

// checkResult flattens the assessment into the established response shape.
type checkResult struct {
	ContractAddress   string                `json:"contract_address"`
	Blockchain        string                `json:"blockchain"`
	RiskScore         float64               `json:"riskScore"`
	RiskCategory      models.RiskCategory   `json:"riskCategory"`
	Confidence        float64               `json:"confidence"`
	Probabilities     models.Probabilities  `json:"probabilities"`
	Features          map[string]float64    `json:"features"`
	Recommendation    string                `json:"recommendation"`
	AnalysisTimestamp string                `json:"analysis_timestamp"`
	Zkml              *models.InferenceProof `json:"zkml,omitempty"`
	InferenceMethod   string                `json:"inference_method"`
}

func toCheckResult(a *models.ContractAnalysis) *checkResult {
	return &checkResult{
		ContractAddress:   a.ContractAddress,
		Blockchain:        a.Blockchain,
		RiskScore:         a.Assessment.Score,
		RiskCategory:      a.Assessment.Category,
		Confidence:        a.Assessment.Confidence,
		Probabilities:     a.Assessment.Probabilities,
		Features:          a.Features,
		Recommendation:    a.Recommendation,
		AnalysisTimestamp: a.AnalyzedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Zkml:              a.Proof,
		InferenceMethod:   a.InferenceMethod,
	}
}

func (h *DetectorHandler) Check(c echo.Context) error {
	req := &models.CheckRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	analysis, err := h.analyzer.Analyze(c.Request().Context(), req.ContractAddress, req.Blockchain)
	if err != nil {
		h.logger.Error("analyze usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, toCheckResult(analysis))
}

func (h *DetectorHandler) Verify(c echo.Context) error {
	req := &models.VerifyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	valid, err := h.analyzer.VerifyProof(c.Request().Context(), req.Proof, req.Features, req.Result)
	if err != nil {
		h.logger.Error("verify usecase error", xlogger.Error(err))
		return xhttp.BadRequestResponse(c, xhttp.BadRequestError(err.Error()))
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"valid":       valid,
		"proof_id":    req.Proof.ProofID,
		"verified_at": time.Now().UTC().Format("2006-01-02T15:04:05Z"),
	})
}

func (h *DetectorHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":           "healthy",
		"service":          "rugdetector",
		"version":          h.version,
		"inference_method": h.analyzer.Method(),
		"model_hash":       h.analyzer.ModelHash(),
		"schema_fields":    h.reg.Size(),
	})
}

// Schema lists the field specs in canonical (quantization) order.
func (h *DetectorHandler) Schema(c echo.Context) error {
	fields := h.reg.Fields()
	out := make([]map[string]interface{}, 0, len(fields))
	for i, f := range fields {
		out = append(out, map[string]interface{}{
			"position": i,
			"name":     f.Name,
			"kind":     string(f.Kind),
			"group":    string(f.Group),
		})
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"count":  len(fields),
		"fields": out,
	})
}

func (h *DetectorHandler) Analyses(c echo.Context) error {
	req := &models.AnalysesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now().UTC()
	from := xhttp.ParseTimeDefault(req.From, now.Add(-24*time.Hour))
	to := xhttp.ParseTimeDefault(req.To, now)

	rows, err := h.analyzer.Recent(c.Request().Context(), req.Blockchain, from, to, req.Limit)
	if err != nil {
		h.logger.Error("analyses usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
