package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CoinCast/internal/domain/models"
	domrepo "CoinCast/internal/domain/repository"
)

// Proc is the minimal downstream the pipeline needs.
type Proc interface {
	Process(ctx context.Context, row *models.FeatureRow) error
}

// RealtimePipeline sits between the live collector and the dataset sink.
// It validates rows, throttles bursts, and buffers with retry when the sink
// is unavailable so a backend hiccup never drops a whole hour of features.
type RealtimePipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	maxRPS  int
	bufSize int
	bufCh   chan *models.FeatureRow
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
	last    time.Time // last accepted row time

	transform func(*models.FeatureRow) *models.FeatureRow

	bufDepthGauge func(int)
}

type PipelineOption func(*RealtimePipeline)

// WithMaxRPS sets the max rows per second accepted.
func WithMaxRPS(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the retry buffer size used when the sink is down.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform sets a hook to rewrite rows before sinking.
func WithTransform(fn func(*models.FeatureRow) *models.FeatureRow) PipelineOption {
	return func(p *RealtimePipeline) { p.transform = fn }
}

// NewRealtimePipeline creates a new pipeline.
func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:    proc,
		metrics: metrics,
		maxRPS:  20,
		bufSize: 1000,
		bufCh:   make(chan *models.FeatureRow, 1000),
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.FeatureRow, p.bufSize)
	}
	p.bufDepthGauge = func(n int) { p.metrics.RecordLatency("pipeline_buffer_depth", float64(n)) }
	return p
}

// Start launches background flushing of buffered rows.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case row := <-p.bufCh:
				if row == nil {
					continue
				}
				if err := p.proc.Process(ctx, row); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- row:
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
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards one row, buffering on sink errors.
func (p *RealtimePipeline) Process(ctx context.Context, row *models.FeatureRow) error {
	start := time.Now()
	if err := validateRow(row); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		row = p.transform(row)
		if err := validateRow(row); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.allow(start) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, row); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- row:
			if p.bufDepthGauge != nil {
				p.bufDepthGauge(len(p.bufCh))
			}
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateRow(row *models.FeatureRow) error {
	if row == nil {
		return fmt.Errorf("row nil")
	}
	if row.Timestamp.IsZero() {
		return fmt.Errorf("timestamp zero")
	}
	if len(row.Values) == 0 {
		return fmt.Errorf("values empty")
	}
	if c, ok := row.Values["close"]; !ok || c <= 0 {
		return fmt.Errorf("close invalid")
	}
	return nil
}

func (p *RealtimePipeline) allow(now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	if p.last.IsZero() || now.Sub(p.last) >= time.Second/time.Duration(p.maxRPS) {
		p.last = now
		return true
	}
	return false
}
