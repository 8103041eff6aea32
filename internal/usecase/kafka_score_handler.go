package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"RugDetector/internal/domain/models"
	drepo "RugDetector/internal/domain/repository"
	pkgkafka "RugDetector/pkg/kafka"
)

// KafkaScoreHandler consumes scoring requests and runs them through the
// analysis pipeline. This is the async entry point for batch scoring.
type KafkaScoreHandler struct {
	topic    string
	analyzer *Analyzer
	metrics  drepo.Metrics
}

func NewKafkaScoreHandler(topic string, analyzer *Analyzer, metrics drepo.Metrics) *KafkaScoreHandler {
	return &KafkaScoreHandler{topic: topic, analyzer: analyzer, metrics: metrics}
}

func (h *KafkaScoreHandler) Topic() string { return h.topic }

// incoming message schema: {contract_address, blockchain}
func (h *KafkaScoreHandler) Handle(ctx context.Context, b []byte) error {
	var m models.ScoreRequest
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.Blockchain == "" {
		m.Blockchain = "ethereum"
	}

	start := time.Now()
	if _, err := h.analyzer.Analyze(ctx, m.ContractAddress, m.Blockchain); err != nil {
		h.metrics.RecordError("consumer_score")
		return fmt.Errorf("score request: %w", err)
	}
	h.metrics.RecordStageLatency("consumer_score", time.Since(start).Seconds())
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaScoreHandler)(nil)
