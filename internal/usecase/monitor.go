package usecase

import (
	"context"
	"fmt"
	"time"

	"RugDetector/internal/domain/models"
	drepo "RugDetector/internal/domain/repository"
	mid "RugDetector/internal/middleware"
	"RugDetector/pkg/logger"
)

// TokenMonitor watches a live chain feed and scores every observed token.
type TokenMonitor struct {
	feed     drepo.TokenFeed
	analyzer *Analyzer
	metrics  drepo.Metrics
	pipe     *mid.EventPipeline
	log      *logger.Logger
}

// NewTokenMonitor creates a monitor over the given feed.
func NewTokenMonitor(feed drepo.TokenFeed, analyzer *Analyzer, metrics drepo.Metrics, pipe *mid.EventPipeline, log *logger.Logger) *TokenMonitor {
	return &TokenMonitor{feed: feed, analyzer: analyzer, metrics: metrics, pipe: pipe, log: log}
}

// IsConnected reports the feed connection state.
func (m *TokenMonitor) IsConnected() bool {
	return m.feed.IsConnected()
}

// Start connects, subscribes and begins consuming events.
func (m *TokenMonitor) Start(ctx context.Context) error {
	if err := m.feed.Connect(ctx); err != nil {
		return err
	}
	if err := m.feed.Subscribe(ctx); err != nil {
		return err
	}
	if m.pipe != nil {
		m.pipe.Start(ctx)
	}
	evCh, errCh := m.feed.Read(ctx)
	go m.consume(ctx, evCh, errCh)
	return nil
}

// consume drains the feed channels. The feed closes both channels after
// a read error, so a nil-ed out channel marks one we must not select on
// again; once the stream is dead we reconnect and take fresh channels.
func (m *TokenMonitor) consume(ctx context.Context, evCh <-chan *models.TokenEvent, errCh <-chan error) {
	for {
		if evCh == nil && errCh == nil {
			evCh, errCh = m.reopen(ctx)
			if evCh == nil && errCh == nil {
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				m.metrics.RecordError("feed")
				m.log.Error("feed stream failed", logger.Error(err))
			}
		case e, ok := <-evCh:
			if !ok {
				evCh = nil
				continue
			}
			if e == nil {
				continue
			}
			if m.pipe != nil {
				_ = m.pipe.Process(ctx, e)
			} else {
				_ = m.Process(ctx, e)
			}
		}
	}
}

// reopen reconnects until it gets a live stream or ctx ends.
func (m *TokenMonitor) reopen(ctx context.Context) (<-chan *models.TokenEvent, <-chan error) {
	for {
		if ctx.Err() != nil {
			return nil, nil
		}
		if err := m.feed.Reconnect(ctx); err != nil {
			m.log.Error("feed reconnect failed", logger.Error(err))
			select {
			case <-ctx.Done():
				return nil, nil
			case <-time.After(time.Second):
			}
			continue
		}
		return m.feed.Read(ctx)
	}
}

// AttachPipeline routes feed events through the given pipeline. Must be
// called before Start.
func (m *TokenMonitor) AttachPipeline(p *mid.EventPipeline) {
	m.pipe = p
}

// Process scores one observed token. It is the pipeline's downstream.
func (m *TokenMonitor) Process(ctx context.Context, e *models.TokenEvent) error {
	if e == nil {
		return fmt.Errorf("event is nil")
	}
	analysis, err := m.analyzer.Analyze(ctx, e.ContractAddress, e.Blockchain)
	if err != nil {
		return fmt.Errorf("score observed token: %w", err)
	}
	if analysis.Assessment.Category == models.RiskHigh {
		m.log.Warn("high risk token observed on feed",
			logger.String("contract", analysis.ContractAddress),
			logger.String("blockchain", analysis.Blockchain),
			logger.Any("score", analysis.Assessment.Score))
	}
	return nil
}

// Shutdown stops the pipeline and closes the feed.
func (m *TokenMonitor) Shutdown(ctx context.Context) error {
	if m.pipe != nil {
		m.pipe.Stop()
	}
	return m.feed.Close()
}
