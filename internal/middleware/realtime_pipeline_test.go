package middleware

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinCast/internal/domain/models"
)

type stubProc struct {
	calls atomic.Int64
	err   error
}

func (s *stubProc) Process(context.Context, *models.FeatureRow) error {
	s.calls.Add(1)
	return s.err
}

type stubMetrics struct {
	errorKinds chan string
}

func newStubMetrics() *stubMetrics {
	return &stubMetrics{errorKinds: make(chan string, 64)}
}

func (s *stubMetrics) RecordPrediction(string, string) {}
func (s *stubMetrics) RecordClamp(string)              {}
func (s *stubMetrics) RecordRowSunk(string)            {}
func (s *stubMetrics) RecordError(kind string) {
	select {
	case s.errorKinds <- kind:
	default:
	}
}
func (s *stubMetrics) RecordLastPrice(string, float64) {}
func (s *stubMetrics) RecordLatency(string, float64)   {}

func (s *stubMetrics) drain() []string {
	var out []string
	for {
		select {
		case k := <-s.errorKinds:
			out = append(out, k)
		default:
			return out
		}
	}
}

func validPipelineRow() *models.FeatureRow {
	return &models.FeatureRow{
		Timestamp: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		Values:    map[string]float64{"close": 50000, "RSI": 55},
	}
}

func TestPipelineRejectsInvalidRows(t *testing.T) {
	proc := &stubProc{}
	p := NewRealtimePipeline(proc, newStubMetrics())

	assert.Error(t, p.Process(context.Background(), nil))
	assert.Error(t, p.Process(context.Background(), &models.FeatureRow{
		Values: map[string]float64{"close": 1},
	}))
	assert.Error(t, p.Process(context.Background(), &models.FeatureRow{
		Timestamp: time.Now(), Values: map[string]float64{},
	}))
	assert.Error(t, p.Process(context.Background(), &models.FeatureRow{
		Timestamp: time.Now(), Values: map[string]float64{"close": 0},
	}))
	assert.Zero(t, proc.calls.Load())
}

func TestPipelineForwardsValidRow(t *testing.T) {
	proc := &stubProc{}
	p := NewRealtimePipeline(proc, newStubMetrics())

	require.NoError(t, p.Process(context.Background(), validPipelineRow()))
	assert.Equal(t, int64(1), proc.calls.Load())
}

func TestPipelineThrottlesBursts(t *testing.T) {
	proc := &stubProc{}
	p := NewRealtimePipeline(proc, newStubMetrics(), WithMaxRPS(1))

	// Two rows in the same instant: the second is silently throttled.
	require.NoError(t, p.Process(context.Background(), validPipelineRow()))
	require.NoError(t, p.Process(context.Background(), validPipelineRow()))
	assert.Equal(t, int64(1), proc.calls.Load())
}

func TestPipelineBuffersOnSinkError(t *testing.T) {
	proc := &stubProc{err: errors.New("sink down")}
	m := newStubMetrics()
	p := NewRealtimePipeline(proc, m, WithBufferSize(8))

	err := p.Process(context.Background(), validPipelineRow())
	assert.ErrorContains(t, err, "pipeline downstream")
	assert.Len(t, p.bufCh, 1)
	assert.Contains(t, m.drain(), "pipeline_process")
}

func TestPipelineFlushesBufferedRows(t *testing.T) {
	proc := &stubProc{err: errors.New("sink down")}
	p := NewRealtimePipeline(proc, newStubMetrics(), WithBufferSize(8))

	_ = p.Process(context.Background(), validPipelineRow())
	require.Len(t, p.bufCh, 1)

	// Sink recovers before the flusher starts.
	proc.err = nil
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool {
		return len(p.bufCh) == 0 && proc.calls.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPipelineTransformHook(t *testing.T) {
	proc := &stubProc{}
	p := NewRealtimePipeline(proc, newStubMetrics(), WithTransform(func(r *models.FeatureRow) *models.FeatureRow {
		r.Values["tagged"] = 1
		return r
	}))

	row := validPipelineRow()
	require.NoError(t, p.Process(context.Background(), row))
	assert.Equal(t, 1.0, row.Values["tagged"])
}

func TestPipelineStartStopIdempotent(t *testing.T) {
	p := NewRealtimePipeline(&stubProc{}, newStubMetrics())
	p.Start(context.Background())
	p.Start(context.Background())
	p.Stop()
	p.Stop()
}
