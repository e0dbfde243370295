package profiling

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Lightweight per-tick CPU profiler. A Recorder accumulates durations by name
// until Reset; the package-level functions use Default.

// Recorder accumulates named durations. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	totals map[string]time.Duration
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{totals: make(map[string]time.Duration)}
}

// Default is the process-wide recorder.
var Default = NewRecorder()

// Track returns a stop function that records the elapsed time under the given name.
// Usage: defer rec.Track("terrain.Drain")()
func (r *Recorder) Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		r.mu.Lock()
		r.totals[name] += d
		r.mu.Unlock()
	}
}

// Reset clears the current totals. Call at the start of each tick.
func (r *Recorder) Reset() {
	r.mu.Lock()
	clear(r.totals)
	r.mu.Unlock()
}

// Snapshot returns a copy of the current totals.
func (r *Recorder) Snapshot() map[string]time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]time.Duration, len(r.totals))
	for k, v := range r.totals {
		out[k] = v
	}
	return out
}

// SumWithPrefix adds up every total whose name starts with prefix.
func (r *Recorder) SumWithPrefix(prefix string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum time.Duration
	for k, v := range r.totals {
		if strings.HasPrefix(k, prefix) {
			sum += v
		}
	}
	return sum
}

// TopN formats the n largest totals, largest first.
// Example: "terrain.DrainMesh:4.2ms, terrain.Request:2.1ms"
func (r *Recorder) TopN(n int) string {
	ss := r.Snapshot()
	type pair struct {
		name string
		dur  time.Duration
	}
	list := make([]pair, 0, len(ss))
	for k, v := range ss {
		list = append(list, pair{name: k, dur: v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].dur == list[j].dur {
			return list[i].name < list[j].name
		}
		return list[i].dur > list[j].dur
	})
	n = min(n, len(list))
	parts := make([]string, 0, n)
	for i := range n {
		parts = append(parts, list[i].name+":"+formatMs(list[i].dur))
	}
	return strings.Join(parts, ", ")
}

// formatMs keeps one decimal and drops a trailing ".0".
func formatMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000.0
	s := strconv.FormatFloat(ms, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0") + "ms"
}

// Track records into Default.
func Track(name string) func() { return Default.Track(name) }

// ResetFrame clears Default. Call at the start of each frame.
func ResetFrame() { Default.Reset() }

// SumWithPrefix adds up Default totals under a name prefix.
func SumWithPrefix(prefix string) time.Duration { return Default.SumWithPrefix(prefix) }
