package metrics

// Per-command metrics collection for probe operations

import (
	"sort"
	"sync"
	"time"
)

// Metric records one wire exchange.
type Metric struct {
	Timestamp time.Time
	Scenario  string
	Operation string
	Success   bool
	RTTMs     float64
	Status    uint8
	Error     string
}

// Sink collects metrics and aggregates them on demand.
type Sink struct {
	mu      sync.RWMutex
	metrics []Metric
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// Add records a metric.
func (s *Sink) Add(m Metric) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, m)
}

// Record is a convenience for timing a single operation.
func (s *Sink) Record(scenario, operation string, start time.Time, err error) {
	m := Metric{
		Timestamp: time.Now(),
		Scenario:  scenario,
		Operation: operation,
		Success:   err == nil,
		RTTMs:     float64(time.Since(start).Microseconds()) / 1000.0,
	}
	if err != nil {
		m.Error = err.Error()
	}
	s.Add(m)
}

// Metrics returns a copy of the collected metrics.
func (s *Sink) Metrics() []Metric {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Metric, len(s.metrics))
	copy(out, s.metrics)
	return out
}

// Summary aggregates the sink's contents.
type Summary struct {
	Count     int
	Successes int
	Failures  int
	MinRTTMs  float64
	AvgRTTMs  float64
	P95RTTMs  float64
	MaxRTTMs  float64
}

// Summarize computes aggregate statistics over everything recorded.
func (s *Sink) Summarize() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{Count: len(s.metrics)}
	if sum.Count == 0 {
		return sum
	}

	rtts := make([]float64, 0, len(s.metrics))
	var total float64
	for _, m := range s.metrics {
		if m.Success {
			sum.Successes++
		} else {
			sum.Failures++
		}
		rtts = append(rtts, m.RTTMs)
		total += m.RTTMs
	}
	sort.Float64s(rtts)

	sum.MinRTTMs = rtts[0]
	sum.MaxRTTMs = rtts[len(rtts)-1]
	sum.AvgRTTMs = total / float64(len(rtts))
	idx := int(float64(len(rtts)) * 0.95)
	if idx >= len(rtts) {
		idx = len(rtts) - 1
	}
	sum.P95RTTMs = rtts[idx]

	return sum
}
