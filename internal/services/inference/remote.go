package inference

import (
	"context"
	"fmt"
	"time"

	"RugDetector/internal/domain/models"
	"RugDetector/internal/schema"
	xhttp "RugDetector/pkg/http"
)

// Remote delegates classification to an external inference service over
// HTTP. The service receives the canonical-order vector and answers with
// the class probabilities and its model hash.
type Remote struct {
	baseURL   string
	client    *xhttp.Client
	attempts  int
	modelHash string
}

// RemoteOption configures Remote.
type RemoteOption func(*Remote)

// WithRetries sets how many attempts a classification makes.
func WithRetries(attempts int) RemoteOption {
	return func(r *Remote) { r.attempts = attempts }
}

// NewRemote builds a remote classifier against baseURL.
func NewRemote(baseURL string, timeout time.Duration, opts ...RemoteOption) *Remote {
	r := &Remote{
		baseURL:   baseURL,
		client:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		attempts:  2,
		modelHash: "remote",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type remotePredictRequest struct {
	Vector []float64 `json:"vector"`
}

type remotePredictResponse struct {
	Probabilities struct {
		Low    float64 `json:"low"`
		Medium float64 `json:"medium"`
		High   float64 `json:"high"`
	} `json:"probabilities"`
	ModelHash string `json:"model_hash"`
}

// Classify posts the vector to /predict.
func (r *Remote) Classify(ctx context.Context, vector []float64) (models.Probabilities, error) {
	if len(vector) != schema.FieldCount {
		return models.Probabilities{}, fmt.Errorf("classify: got %d features, want %d", len(vector), schema.FieldCount)
	}
	if r.baseURL == "" {
		return models.Probabilities{}, fmt.Errorf("remote inference url not configured")
	}

	var resp remotePredictResponse
	var err error
	for i := 1; i <= r.attempts; i++ {
		err = r.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    r.baseURL + "/predict",
			Body:   remotePredictRequest{Vector: vector},
		}, &resp)
		if err == nil {
			break
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return models.Probabilities{}, ctx.Err()
		}
	}
	if err != nil {
		return models.Probabilities{}, fmt.Errorf("remote inference: %w", err)
	}

	if resp.ModelHash != "" {
		r.modelHash = resp.ModelHash
	}
	return models.Probabilities{
		Low:    resp.Probabilities.Low,
		Medium: resp.Probabilities.Medium,
		High:   resp.Probabilities.High,
	}, nil
}

// ModelHash returns the hash last reported by the service.
func (r *Remote) ModelHash() string { return r.modelHash }

// Method identifies this backend in responses.
func (r *Remote) Method() string { return "remote" }
