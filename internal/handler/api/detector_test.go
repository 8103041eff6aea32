package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	models "RugDetector/internal/domain/models"
	"RugDetector/internal/schema"
	"RugDetector/internal/services/extractor"
	"RugDetector/internal/services/proof"
	"RugDetector/internal/usecase"
	"RugDetector/pkg/cache"
	xlogger "RugDetector/pkg/logger"
)

type stubClassifier struct{ probs models.Probabilities }

func (s *stubClassifier) Classify(context.Context, []float64) (models.Probabilities, error) {
	return s.probs, nil
}
func (s *stubClassifier) ModelHash() string { return "stub-hash" }
func (s *stubClassifier) Method() string    { return "stub" }

type stubStore struct{ rows []models.ContractAnalysis }

func (s *stubStore) Insert(_ context.Context, a *models.ContractAnalysis) error {
	s.rows = append(s.rows, *a)
	return nil
}

func (s *stubStore) Recent(context.Context, string, time.Time, time.Time, int) ([]models.ContractAnalysis, error) {
	return s.rows, nil
}

type stubMetrics struct{}

func (stubMetrics) RecordAnalysis(string, string)      {}
func (stubMetrics) RecordError(string)                 {}
func (stubMetrics) RecordRiskScore(string, float64)    {}
func (stubMetrics) RecordStageLatency(string, float64) {}

func newTestHandler(t *testing.T) (*echo.Echo, *stubStore) {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	reg := schema.New()
	store := &stubStore{}
	analyzer := usecase.NewAnalyzer(
		reg,
		extractor.NewSimulated(reg),
		&stubClassifier{probs: models.Probabilities{Low: 0.1, Medium: 0.2, High: 0.7}},
		proof.New("stub-hash"),
		cache.NewMemoryCache(),
		store,
		nil,
		stubMetrics{},
		log,
	)

	e := echo.New()
	NewDetectorHandler(log, analyzer, reg, "test").RegisterRoutes(e)
	return e, store
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response not an envelope: %v\nbody: %s", err, rec.Body.String())
	}
	return rec, &env
}

const testAddress = "0x1234567890abcdef1234567890abcdef12345678"

func TestCheckEndpoint(t *testing.T) {
	e, store := newTestHandler(t)

	_, env := doJSON(t, e, http.MethodPost, "/check",
		`{"contract_address":"`+testAddress+`","blockchain":"ethereum"}`)
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, body: %s", env.Status, env.Data)
	}

	var result struct {
		ContractAddress string                 `json:"contract_address"`
		RiskScore       float64                `json:"riskScore"`
		RiskCategory    string                 `json:"riskCategory"`
		Features        map[string]float64     `json:"features"`
		Recommendation  string                 `json:"recommendation"`
		InferenceMethod string                 `json:"inference_method"`
		Zkml            *models.InferenceProof `json:"zkml"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.RiskCategory != "high" {
		t.Errorf("riskCategory = %q, want high", result.RiskCategory)
	}
	if len(result.Features) != schema.FieldCount {
		t.Errorf("features count = %d, want %d", len(result.Features), schema.FieldCount)
	}
	if result.Zkml == nil || result.Zkml.ProofID == "" {
		t.Error("missing zkml proof block")
	}
	if result.InferenceMethod != "stub" {
		t.Errorf("inference_method = %q", result.InferenceMethod)
	}
	if len(store.rows) != 1 {
		t.Errorf("stored analyses = %d, want 1", len(store.rows))
	}
}

func TestCheckEndpointValidation(t *testing.T) {
	e, _ := newTestHandler(t)

	_, env := doJSON(t, e, http.MethodPost, "/check", `{"blockchain":"ethereum"}`)
	if env.Status != http.StatusBadRequest {
		t.Errorf("missing address: status = %d, want 400", env.Status)
	}

	_, env = doJSON(t, e, http.MethodPost, "/check",
		`{"contract_address":"`+testAddress+`","blockchain":"solana"}`)
	if env.Status != http.StatusBadRequest {
		t.Errorf("unsupported chain: status = %d, want 400", env.Status)
	}
}

func TestVerifyEndpointRoundTrip(t *testing.T) {
	e, _ := newTestHandler(t)

	_, checkEnv := doJSON(t, e, http.MethodPost, "/check",
		`{"contract_address":"`+testAddress+`","blockchain":"ethereum"}`)

	var result struct {
		RiskScore     float64                `json:"riskScore"`
		RiskCategory  string                 `json:"riskCategory"`
		Confidence    float64                `json:"confidence"`
		Probabilities models.Probabilities   `json:"probabilities"`
		Features      map[string]float64     `json:"features"`
		Zkml          *models.InferenceProof `json:"zkml"`
	}
	if err := json.Unmarshal(checkEnv.Data, &result); err != nil {
		t.Fatalf("decode check result: %v", err)
	}

	verifyBody, _ := json.Marshal(map[string]interface{}{
		"proof":    result.Zkml,
		"features": result.Features,
		"result": models.RiskAssessment{
			Score:         result.RiskScore,
			Category:      models.RiskCategory(result.RiskCategory),
			Confidence:    result.Confidence,
			Probabilities: result.Probabilities,
		},
	})
	_, env := doJSON(t, e, http.MethodPost, "/zkml/verify", string(verifyBody))
	if env.Status != http.StatusOK {
		t.Fatalf("verify status = %d, body: %s", env.Status, env.Data)
	}

	var verdict struct {
		Valid   bool   `json:"valid"`
		ProofID string `json:"proof_id"`
	}
	if err := json.Unmarshal(env.Data, &verdict); err != nil {
		t.Fatalf("decode verdict: %v", err)
	}
	if !verdict.Valid {
		t.Error("genuine proof rejected")
	}
	if verdict.ProofID != result.Zkml.ProofID {
		t.Errorf("proof_id mismatch: %q vs %q", verdict.ProofID, result.Zkml.ProofID)
	}
}

func TestHealthEndpoint(t *testing.T) {
	e, _ := newTestHandler(t)

	_, env := doJSON(t, e, http.MethodGet, "/health", "")
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d", env.Status)
	}

	var health struct {
		Status          string `json:"status"`
		InferenceMethod string `json:"inference_method"`
		SchemaFields    int    `json:"schema_fields"`
	}
	if err := json.Unmarshal(env.Data, &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("status = %q", health.Status)
	}
	if health.SchemaFields != schema.FieldCount {
		t.Errorf("schema_fields = %d, want %d", health.SchemaFields, schema.FieldCount)
	}
}

func TestSchemaEndpointCanonicalOrder(t *testing.T) {
	e, _ := newTestHandler(t)

	_, env := doJSON(t, e, http.MethodGet, "/schema", "")
	var body struct {
		Count  int `json:"count"`
		Fields []struct {
			Position int    `json:"position"`
			Name     string `json:"name"`
			Kind     string `json:"kind"`
			Group    string `json:"group"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatalf("decode schema: %v", err)
	}
	if body.Count != schema.FieldCount || len(body.Fields) != schema.FieldCount {
		t.Fatalf("count = %d, fields = %d", body.Count, len(body.Fields))
	}
	for i := 1; i < len(body.Fields); i++ {
		if body.Fields[i-1].Name >= body.Fields[i].Name {
			t.Fatalf("fields not in lexicographic order at %d: %q >= %q",
				i, body.Fields[i-1].Name, body.Fields[i].Name)
		}
	}
}

func TestAnalysesEndpoint(t *testing.T) {
	e, _ := newTestHandler(t)

	// seed one analysis through /check
	doJSON(t, e, http.MethodPost, "/check",
		`{"contract_address":"`+testAddress+`","blockchain":"ethereum"}`)

	_, env := doJSON(t, e, http.MethodGet, "/analyses?blockchain=ethereum&limit=10", "")
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, body: %s", env.Status, env.Data)
	}

	var list struct {
		Rows  []models.ContractAnalysis `json:"rows"`
		Total int64                     `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 || len(list.Rows) != 1 {
		t.Fatalf("total = %d, rows = %d, want 1", list.Total, len(list.Rows))
	}
	if list.Rows[0].ContractAddress != testAddress {
		t.Errorf("row address = %q", list.Rows[0].ContractAddress)
	}
}
