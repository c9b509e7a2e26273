package utils

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestTimerMeasuresElapsed(t *testing.T) {
	timer := NewTimer("test_op", zerolog.Nop())
	time.Sleep(5 * time.Millisecond)

	d := timer.Stop()
	assert.GreaterOrEqual(t, d, 5*time.Millisecond)
}

func TestPerformanceMetricsRecord(t *testing.T) {
	pm := &PerformanceMetrics{OperationName: "load_rows"}

	pm.Record(10 * time.Millisecond)
	pm.Record(30 * time.Millisecond)
	pm.Record(20 * time.Millisecond)

	assert.Equal(t, int64(3), pm.CallCount)
	assert.Equal(t, 10*time.Millisecond, pm.MinDuration)
	assert.Equal(t, 30*time.Millisecond, pm.MaxDuration)
	assert.Equal(t, 60*time.Millisecond, pm.TotalDuration)
	assert.Equal(t, 20*time.Millisecond, pm.AvgDuration())
}

func TestPerformanceMetricsEmpty(t *testing.T) {
	pm := &PerformanceMetrics{OperationName: "never_called"}
	assert.Equal(t, time.Duration(0), pm.AvgDuration())
	// LogMetrics on an empty aggregate is a no-op, not a panic.
	pm.LogMetrics(zerolog.Nop())
}

func TestMemorySampler(t *testing.T) {
	s := NewMemorySampler(time.Millisecond)
	s.Start()

	// Allocate enough to move RSS on most platforms; the assertion below
	// only requires internal consistency, not a visible delta.
	buf := make([]byte, 8*1024*1024)
	for i := range buf {
		buf[i] = byte(i)
	}
	time.Sleep(10 * time.Millisecond)

	sample := s.Stop()
	_ = buf

	assert.GreaterOrEqual(t, sample.PeakBytes, sample.BaselineBytes)
	assert.GreaterOrEqual(t, sample.DeltaMiB(), 0.0)
	if sample.BaselineBytes > 0 {
		assert.Greater(t, sample.PeakMiB(), 0.0)
	}
}

func TestMemorySampleDeltaClampedAtZero(t *testing.T) {
	m := MemorySample{BaselineBytes: 100, PeakBytes: 50}
	assert.Equal(t, 0.0, m.DeltaMiB())
}
