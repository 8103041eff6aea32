package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"RugDetector/internal/domain/models"
	domrepo "RugDetector/internal/domain/repository"
	pkgkafka "RugDetector/pkg/kafka"
	applogger "RugDetector/pkg/logger"
)

// SchemaStatements creates the analyses table. Fed to the clickhouse
// client's InitSchema at startup.
func SchemaStatements(table string) []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            analyzed_at      DateTime,
            blockchain       LowCardinality(String),
            contract_address String,
            risk_score       Float64,
            risk_category    LowCardinality(String),
            confidence       Float64,
            prob_low         Float64,
            prob_medium      Float64,
            prob_high        Float64,
            features         String,
            quantized        String,
            recommendation   String,
            inference_method LowCardinality(String),
            proof_id         String,
            model_hash       String
        ) ENGINE = MergeTree()
        ORDER BY (blockchain, analyzed_at, contract_address)
    `, table)}
}

// ClickHouseAnalysisStore persists completed analyses.
type ClickHouseAnalysisStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewClickHouseAnalysisStore creates the store over an open connection.
func NewClickHouseAnalysisStore(db *sql.DB, table string) *ClickHouseAnalysisStore {
	return &ClickHouseAnalysisStore{db: db, table: table}
}

// SetLogger injects a structured logger.
func (s *ClickHouseAnalysisStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *ClickHouseAnalysisStore) Insert(ctx context.Context, a *models.ContractAnalysis) error {
	if a == nil {
		return fmt.Errorf("analysis is nil")
	}

	features, err := json.Marshal(a.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}
	quantized, err := json.Marshal(a.Quantized)
	if err != nil {
		return fmt.Errorf("marshal quantized: %w", err)
	}
	var proofID, modelHash string
	if a.Proof != nil {
		proofID = a.Proof.ProofID
		modelHash = a.Proof.ModelHash
	}

	q := fmt.Sprintf(`INSERT INTO %s
        (analyzed_at, blockchain, contract_address, risk_score, risk_category, confidence,
         prob_low, prob_medium, prob_high, features, quantized, recommendation,
         inference_method, proof_id, model_hash)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)

	_, err = s.db.ExecContext(ctx, q,
		a.AnalyzedAt,
		a.Blockchain,
		a.ContractAddress,
		a.Assessment.Score,
		string(a.Assessment.Category),
		a.Assessment.Confidence,
		a.Assessment.Probabilities.Low,
		a.Assessment.Probabilities.Medium,
		a.Assessment.Probabilities.High,
		string(features),
		string(quantized),
		a.Recommendation,
		a.InferenceMethod,
		proofID,
		modelHash,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse insert_analysis error",
				applogger.String("contract", a.ContractAddress),
				applogger.String("blockchain", a.Blockchain),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (s *ClickHouseAnalysisStore) Recent(ctx context.Context, blockchain string, from, to time.Time, limit int) ([]models.ContractAnalysis, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT analyzed_at, blockchain, contract_address, risk_score, risk_category, confidence,
               prob_low, prob_medium, prob_high, features, quantized, recommendation,
               inference_method, proof_id, model_hash
        FROM %s
        WHERE blockchain = ? AND analyzed_at >= ? AND analyzed_at <= ?
        ORDER BY analyzed_at DESC
        LIMIT ?`, s.table)

	rows, err := s.db.QueryContext(ctx, q, blockchain, from, to, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse recent_analyses query error",
				applogger.String("blockchain", blockchain),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("recent analyses: %w", err)
	}
	defer rows.Close()

	out := make([]models.ContractAnalysis, 0, limit)
	for rows.Next() {
		var (
			a         models.ContractAnalysis
			category  string
			features  string
			quantized string
			proofID   string
			modelHash string
		)
		if err := rows.Scan(
			&a.AnalyzedAt, &a.Blockchain, &a.ContractAddress,
			&a.Assessment.Score, &category, &a.Assessment.Confidence,
			&a.Assessment.Probabilities.Low, &a.Assessment.Probabilities.Medium, &a.Assessment.Probabilities.High,
			&features, &quantized, &a.Recommendation,
			&a.InferenceMethod, &proofID, &modelHash,
		); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		a.Assessment.Category = models.RiskCategory(category)
		if features != "" {
			if err := json.Unmarshal([]byte(features), &a.Features); err != nil {
				return nil, fmt.Errorf("unmarshal features: %w", err)
			}
		}
		if quantized != "" {
			if err := json.Unmarshal([]byte(quantized), &a.Quantized); err != nil {
				return nil, fmt.Errorf("unmarshal quantized: %w", err)
			}
		}
		if proofID != "" {
			a.Proof = &models.InferenceProof{ProofID: proofID, ModelHash: modelHash}
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse recent_analyses ok",
			applogger.String("blockchain", blockchain),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *ClickHouseAnalysisStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var _ domrepo.AnalysisStore = (*ClickHouseAnalysisStore)(nil)

// KafkaAnalysisPublisher streams completed analyses to a topic keyed by
// contract address.
type KafkaAnalysisPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaAnalysisPublisher creates the publisher.
func NewKafkaAnalysisPublisher(producer *pkgkafka.Producer, topic string) domrepo.Publisher {
	return &KafkaAnalysisPublisher{producer: producer, topic: topic}
}

func (p *KafkaAnalysisPublisher) Publish(ctx context.Context, a *models.ContractAnalysis) error {
	if a == nil {
		return fmt.Errorf("analysis is nil")
	}
	return p.producer.Publish(ctx, p.topic, []byte(a.ContractAddress), a)
}

func (p *KafkaAnalysisPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
