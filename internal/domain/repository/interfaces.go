package repository

import (
	"context"
	"time"

	"RugDetector/internal/domain/models"
)

// AnalysisStore persists completed analyses and serves range queries.
type AnalysisStore interface {
	Insert(ctx context.Context, a *models.ContractAnalysis) error
	Recent(ctx context.Context, blockchain string, from, to time.Time, limit int) ([]models.ContractAnalysis, error)
}

// Publisher delivers completed analyses to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, a *models.ContractAnalysis) error
	Close() error
}

// TokenFeed streams contract addresses observed on a live chain feed.
type TokenFeed interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.TokenEvent, <-chan error)
	Reconnect(ctx context.Context) error
	IsConnected() bool
	Close() error
}

// Metrics abstracts operational metric recording.
type Metrics interface {
	RecordAnalysis(blockchain, category string)
	RecordError(kind string)
	RecordRiskScore(blockchain string, score float64)
	RecordStageLatency(stage string, seconds float64)
}
