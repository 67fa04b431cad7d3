package models

import (
	"runtime"
	"time"
)

// Telemetry describes the cost of one run.
type Telemetry struct {
	Elapsed          time.Duration `json:"elapsed_ns"`
	MemoryDeltaBytes uint64        `json:"memory_delta_bytes"`
}

// MemoryMB returns the memory delta in mebibytes.
func (t Telemetry) MemoryMB() float64 {
	return float64(t.MemoryDeltaBytes) / (1024 * 1024)
}

// Probe captures the starting point of a telemetry measurement.
type Probe struct {
	started    time.Time
	totalAlloc uint64
}

// StartProbe reads the clock and the allocator's cumulative byte count.
func StartProbe() Probe {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return Probe{started: time.Now(), totalAlloc: ms.TotalAlloc}
}

// Stop returns elapsed time and bytes allocated since StartProbe.
// Allocations by other goroutines in the process are included.
func (p Probe) Stop() Telemetry {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	var delta uint64
	if ms.TotalAlloc > p.totalAlloc {
		delta = ms.TotalAlloc - p.totalAlloc
	}
	return Telemetry{
		Elapsed:          time.Since(p.started),
		MemoryDeltaBytes: delta,
	}
}

// Report is the result of analyzing one source unit.
type Report struct {
	Path      string           `json:"path"`
	Findings  []Finding        `json:"findings"`
	Skipped   []Skipped        `json:"skipped,omitempty"`
	Graph     *StructuralGraph `json:"graph,omitempty"`
	Telemetry Telemetry        `json:"telemetry"`
}

// NewReport creates an empty report for path.
func NewReport(path string) *Report {
	return &Report{
		Path:     path,
		Findings: make([]Finding, 0),
	}
}

// CountByKind tallies findings per kind.
func (r *Report) CountByKind() map[FindingKind]int {
	counts := make(map[FindingKind]int)
	for _, f := range r.Findings {
		counts[f.Kind]++
	}
	return counts
}

// FindingsOf returns the findings of one kind, in report order.
func (r *Report) FindingsOf(kind FindingKind) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}
