package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"RugDetector/internal/domain/models"
)

const testAddress = "0x1234567890abcdef1234567890abcdef12345678"

type pipeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func (m *pipeMetrics) RecordAnalysis(string, string)      {}
func (m *pipeMetrics) RecordRiskScore(string, float64)    {}
func (m *pipeMetrics) RecordStageLatency(string, float64) {}
func (m *pipeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errors == nil {
		m.errors = map[string]int{}
	}
	m.errors[kind]++
}

type flakyProc struct {
	mu   sync.Mutex
	fail bool
	done []*models.TokenEvent
}

func (p *flakyProc) setFail(fail bool) {
	p.mu.Lock()
	p.fail = fail
	p.mu.Unlock()
}

func (p *flakyProc) processed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.done)
}

func (p *flakyProc) Process(_ context.Context, e *models.TokenEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("downstream down")
	}
	p.done = append(p.done, e)
	return nil
}

func testEvent() *models.TokenEvent {
	return &models.TokenEvent{
		ContractAddress: testAddress,
		Blockchain:      "ethereum",
		ObservedAt:      time.Now(),
	}
}

func TestEventPipelineRejectsInvalidEvents(t *testing.T) {
	m := &pipeMetrics{}
	p := NewEventPipeline(&flakyProc{}, m)

	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatal("nil event should be rejected")
	}
	if err := p.Process(context.Background(), &models.TokenEvent{
		ContractAddress: "not-an-address",
		Blockchain:      "ethereum",
		ObservedAt:      time.Now(),
	}); err == nil {
		t.Fatal("bad address should be rejected")
	}
	if m.errors["pipeline_validate"] != 2 {
		t.Errorf("validate errors = %d, want 2", m.errors["pipeline_validate"])
	}
}

func TestEventPipelineFlushesAfterRestart(t *testing.T) {
	proc := &flakyProc{}
	p := NewEventPipeline(proc, &pipeMetrics{}, WithBufferSize(8))

	ctx := context.Background()
	p.Start(ctx)
	p.Stop()
	p.Start(ctx)
	defer p.Stop()

	proc.setFail(true)
	if err := p.Process(ctx, testEvent()); err == nil {
		t.Fatal("expected downstream error")
	}
	proc.setFail(false)

	deadline := time.After(2 * time.Second)
	for proc.processed() == 0 {
		select {
		case <-deadline:
			t.Fatal("buffered event never flushed after restart")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
