package stats

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Hooks captures coordinator observability events.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

// NoopHooks discards every signal.
func NoopHooks() Hooks { return noopHooks{} }

// OperationStat is a cumulative count and latency for one (op, status).
type OperationStat struct {
	Name     string
	Status   string
	Count    int64
	TotalDur time.Duration
}

// MemoryHooks keeps cumulative counters in process for the metrics endpoint.
type MemoryHooks struct {
	mu        sync.Mutex
	ops       map[[2]string]*OperationStat
	conflicts map[string]int64
	retries   map[string]int64
}

func NewMemoryHooks() *MemoryHooks {
	return &MemoryHooks{
		ops:       make(map[[2]string]*OperationStat),
		conflicts: make(map[string]int64),
		retries:   make(map[string]int64),
	}
}

func (h *MemoryHooks) ObserveOperation(name, status string, dur time.Duration) {
	key := [2]string{strings.TrimSpace(name), strings.TrimSpace(status)}
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.ops[key]
	if !ok {
		st = &OperationStat{Name: key[0], Status: key[1]}
		h.ops[key] = st
	}
	st.Count++
	st.TotalDur += dur
}

func (h *MemoryHooks) IncConflict(name string) {
	h.mu.Lock()
	h.conflicts[strings.TrimSpace(name)]++
	h.mu.Unlock()
}

func (h *MemoryHooks) IncRetry(name string) {
	h.mu.Lock()
	h.retries[strings.TrimSpace(name)]++
	h.mu.Unlock()
}

// Operations returns a sorted copy of the operation counters.
func (h *MemoryHooks) Operations() []OperationStat {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]OperationStat, 0, len(h.ops))
	for _, st := range h.ops {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Status < out[j].Status
	})
	return out
}

// Conflicts returns a copy of the per-operation conflict counters.
func (h *MemoryHooks) Conflicts() map[string]int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return copyCounts(h.conflicts)
}

// Retries returns a copy of the per-operation retry counters.
func (h *MemoryHooks) Retries() map[string]int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return copyCounts(h.retries)
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
