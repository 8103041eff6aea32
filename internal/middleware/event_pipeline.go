package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"RugDetector/internal/domain/models"
	domrepo "RugDetector/internal/domain/repository"
	"RugDetector/pkg/util"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, e *models.TokenEvent) error
}

// EventPipeline sits between the chain feed and the analysis pipeline.
// It validates, throttles per blockchain, and buffers events when the
// downstream processor fails.
type EventPipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.TokenEvent
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-blockchain last accepted time
}

type PipelineOption func(*EventPipeline)

// WithMaxRPS sets the max accepted events per second per blockchain.
func WithMaxRPS(n int) PipelineOption {
	return func(p *EventPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the retry buffer size.
func WithBufferSize(n int) PipelineOption {
	return func(p *EventPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewEventPipeline creates a new pipeline.
func NewEventPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *EventPipeline {
	p := &EventPipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   5,
		bufSize:  1000,
		bufCh:    make(chan *models.TokenEvent, 1000),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.TokenEvent, p.bufSize)
	}
	return p
}

// Start launches background flushing of buffered events. A stopped
// pipeline may be started again; each run gets its own stop channel.
func (p *EventPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.stopCh = make(chan struct{})
	stop := p.stopCh
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-stop:
				return
			case e := <-p.bufCh:
				if e == nil {
					continue
				}
				if err := p.proc.Process(ctx, e); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- e:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *EventPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	close(p.stopCh)
	p.mu.Unlock()
}

// Process validates, throttles, and forwards an event, buffering on errors.
func (p *EventPipeline) Process(ctx context.Context, e *models.TokenEvent) error {
	start := time.Now()
	if err := validateEvent(e); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(e.Blockchain, start) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, e); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- e:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordStageLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateEvent(e *models.TokenEvent) error {
	if e == nil {
		return fmt.Errorf("event nil")
	}
	if !util.IsHexAddress(e.ContractAddress) {
		return fmt.Errorf("invalid contract address %q", e.ContractAddress)
	}
	if e.Blockchain == "" {
		return fmt.Errorf("blockchain empty")
	}
	if e.ObservedAt.IsZero() {
		return fmt.Errorf("observed time missing")
	}
	return nil
}

func (p *EventPipeline) allow(blockchain string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[blockchain]
	if last.IsZero() {
		p.lastSeen[blockchain] = now
		return true
	}
	if now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[blockchain] = now
	return true
}
