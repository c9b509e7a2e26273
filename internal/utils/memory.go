package utils

import (
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// MemorySample captures resident set size observations around a measured
// section of work.
type MemorySample struct {
	BaselineBytes uint64
	PeakBytes     uint64
}

// DeltaMiB returns peak minus baseline in mebibytes, clamped at zero.
func (m MemorySample) DeltaMiB() float64 {
	if m.PeakBytes <= m.BaselineBytes {
		return 0
	}
	return float64(m.PeakBytes-m.BaselineBytes) / (1024 * 1024)
}

// PeakMiB returns the peak RSS in mebibytes.
func (m MemorySample) PeakMiB() float64 {
	return float64(m.PeakBytes) / (1024 * 1024)
}

// MemorySampler polls the current process's RSS in the background and tracks
// the peak observed between Start and Stop. Sampling is best-effort: if the
// process handle cannot be read the sample stays at zero rather than failing
// the measured work.
type MemorySampler struct {
	interval time.Duration
	proc     *process.Process

	mu       sync.Mutex
	baseline uint64
	peak     uint64

	stop chan struct{}
	done chan struct{}
}

// NewMemorySampler creates a sampler polling at the given interval.
// Intervals below one millisecond are raised to one millisecond.
func NewMemorySampler(interval time.Duration) *MemorySampler {
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	proc, _ := process.NewProcess(int32(os.Getpid()))
	return &MemorySampler{
		interval: interval,
		proc:     proc,
	}
}

// Start records the baseline RSS and begins background sampling.
func (s *MemorySampler) Start() {
	s.mu.Lock()
	s.baseline = s.rss()
	s.peak = s.baseline
	s.mu.Unlock()

	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.observe()
			}
		}
	}()
}

// Stop ends sampling, takes a final observation and returns the sample.
func (s *MemorySampler) Stop() MemorySample {
	if s.stop != nil {
		close(s.stop)
		<-s.done
		s.stop = nil
	}
	s.observe()

	s.mu.Lock()
	defer s.mu.Unlock()
	return MemorySample{BaselineBytes: s.baseline, PeakBytes: s.peak}
}

func (s *MemorySampler) observe() {
	rss := s.rss()
	s.mu.Lock()
	if rss > s.peak {
		s.peak = rss
	}
	s.mu.Unlock()
}

func (s *MemorySampler) rss() uint64 {
	if s.proc == nil {
		return 0
	}
	info, err := s.proc.MemoryInfo()
	if err != nil || info == nil {
		return 0
	}
	return info.RSS
}
