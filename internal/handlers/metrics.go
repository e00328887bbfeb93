package handlers

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/evalstats/internal/events"
	"github.com/huangang/evalstats/internal/services"
	"github.com/huangang/evalstats/internal/stats"
	"gorm.io/gorm"
)

var startTime = time.Now()

// MetricsHandler exports Prometheus text metrics.
type MetricsHandler struct {
	db    *gorm.DB
	hooks *stats.MemoryHooks
	stats *services.StatsService
	bus   events.Bus
	relay *events.Relay
}

func NewMetricsHandler(db *gorm.DB, hooks *stats.MemoryHooks, statsSvc *services.StatsService, bus events.Bus, relay *events.Relay) *MetricsHandler {
	return &MetricsHandler{db: db, hooks: hooks, stats: statsSvc, bus: bus, relay: relay}
}

// Metrics returns Prometheus-compatible text format metrics.
// GET /metrics
func (h *MetricsHandler) Metrics(c *gin.Context) {
	var b strings.Builder
	ctx := c.Request.Context()

	// -- Runtime metrics --
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	writeGauge(&b, "evalstats_uptime_seconds", "Time since server start in seconds", time.Since(startTime).Seconds())
	writeGauge(&b, "evalstats_goroutines", "Number of active goroutines", float64(runtime.NumGoroutine()))
	writeGauge(&b, "evalstats_memory_alloc_bytes", "Current heap allocation in bytes", float64(m.Alloc))

	// -- Database metrics --
	if h.db != nil {
		if sqlDB, err := h.db.DB(); err == nil {
			st := sqlDB.Stats()
			writeGauge(&b, "evalstats_db_open_connections", "Number of open DB connections", float64(st.OpenConnections))
			writeGauge(&b, "evalstats_db_in_use_connections", "Number of in-use DB connections", float64(st.InUse))
		}
	}

	// -- Event pipeline --
	busAsync := 0.0
	if h.bus != nil && h.bus.IsAsync() {
		busAsync = 1.0
	}
	writeGauge(&b, "evalstats_bus_async_enabled", "Whether the async event bus (Redis) is enabled (1=yes, 0=no)", busAsync)
	if h.relay != nil {
		if n, err := h.relay.Pending(ctx); err == nil {
			writeGauge(&b, "evalstats_outbox_pending", "Change events not yet published", float64(n))
		}
	}

	// -- Coordinator --
	if h.hooks != nil {
		writeHeader(&b, "evalstats_stats_operations_total", "Aggregate operations by outcome", "counter")
		for _, op := range h.hooks.Operations() {
			fmt.Fprintf(&b, "evalstats_stats_operations_total{op=%q,status=%q} %d\n", op.Name, op.Status, op.Count)
		}
		b.WriteString("\n")
		writeHeader(&b, "evalstats_stats_operation_seconds_total", "Cumulative time spent in aggregate operations", "counter")
		for _, op := range h.hooks.Operations() {
			fmt.Fprintf(&b, "evalstats_stats_operation_seconds_total{op=%q,status=%q} %g\n", op.Name, op.Status, op.TotalDur.Seconds())
		}
		b.WriteString("\n")
		writeLabeledCounter(&b, "evalstats_stats_conflicts_total", "Optimistic write conflicts", h.hooks.Conflicts())
		writeLabeledCounter(&b, "evalstats_stats_retries_total", "Retried aggregate attempts", h.hooks.Retries())
	}

	// -- Aggregates --
	if h.stats != nil {
		if o, err := h.stats.Overview(ctx); err == nil {
			writeGauge(&b, "evalstats_entries_total", "Entries in the dataset", float64(o.TotalEntriesInDataset))
			writeGauge(&b, "evalstats_entries_annotated", "Entries with at least one review", float64(o.TotalAnnotatedEntries))
			writeGauge(&b, "evalstats_entries_fully_reviewed", "Entries at or above the review target", float64(o.FullyReviewedEntriesCount))
			writeGauge(&b, "evalstats_entries_flagged", "Entries with unresolved flags", float64(o.TotalEntriesWithUnresolvedFlags))
			writeGauge(&b, "evalstats_evaluations_total", "Evaluations submitted", float64(o.TotalEvaluationsSubmitted))
		}
	}

	c.Data(200, "text/plain; version=0.0.4; charset=utf-8", []byte(b.String()))
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s %s\n", name, kind)
}

func writeGauge(b *strings.Builder, name, help string, value float64) {
	writeHeader(b, name, help, "gauge")
	fmt.Fprintf(b, "%s %g\n\n", name, value)
}

func writeLabeledCounter(b *strings.Builder, name, help string, byOp map[string]int64) {
	writeHeader(b, name, help, "counter")
	ops := make([]string, 0, len(byOp))
	for op := range byOp {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		fmt.Fprintf(b, "%s{op=%q} %d\n", name, op, byOp[op])
	}
	b.WriteString("\n")
}
