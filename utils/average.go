package utils

import (
	"sync"

	"github.com/montanaflynn/stats"
)

// RollingWindow keeps the most recent samples of a float64 series. It is safe for one writer
// and any number of concurrent readers.
type RollingWindow struct {
	mu   sync.Mutex
	data []float64
	pos  int
	full bool
}

// WindowSummary describes the samples currently held by a RollingWindow.
type WindowSummary struct {
	Count int
	Mean  float64
	P95   float64
	Max   float64
}

// NewRollingWindow returns a window holding up to numSamples values.
func NewRollingWindow(numSamples int) *RollingWindow {
	if numSamples < 1 {
		numSamples = 1
	}
	return &RollingWindow{data: make([]float64, numSamples)}
}

// NumSamples returns the capacity of the window.
func (rw *RollingWindow) NumSamples() int {
	return len(rw.data)
}

// Add records x, overwriting the oldest sample once the window is full.
func (rw *RollingWindow) Add(x float64) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.data[rw.pos] = x
	rw.pos++
	if rw.pos >= len(rw.data) {
		rw.pos = 0
		rw.full = true
	}
}

// Values returns a copy of the samples currently held, oldest first.
func (rw *RollingWindow) Values() []float64 {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if !rw.full {
		return append([]float64(nil), rw.data[:rw.pos]...)
	}
	out := make([]float64, 0, len(rw.data))
	out = append(out, rw.data[rw.pos:]...)
	return append(out, rw.data[:rw.pos]...)
}

// Summary computes mean, 95th percentile and max over the held samples. An empty window
// summarizes to all zeros.
func (rw *RollingWindow) Summary() (WindowSummary, error) {
	values := rw.Values()
	if len(values) == 0 {
		return WindowSummary{}, nil
	}
	data := stats.Float64Data(values)
	mean, err := data.Mean()
	if err != nil {
		return WindowSummary{}, err
	}
	p95, err := data.Percentile(95)
	if err != nil {
		return WindowSummary{}, err
	}
	maxVal, err := data.Max()
	if err != nil {
		return WindowSummary{}, err
	}
	return WindowSummary{Count: len(values), Mean: mean, P95: p95, Max: maxVal}, nil
}
