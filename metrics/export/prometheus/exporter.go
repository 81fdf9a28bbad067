package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/credflow"
	"github.com/MrEthical07/credflow/internal/workers"
	"github.com/MrEthical07/credflow/metrics/export/internaldefs"
)

// MetricsSource is the read side of *credflow.Engine the exporter needs.
type MetricsSource interface {
	MetricsSnapshot() credflow.MetricsSnapshot
	AuditDropped() uint64
	NotifyStats() workers.Stats
}

// Exporter renders credflow metrics in Prometheus text exposition format.
type Exporter struct {
	source MetricsSource
}

// NewExporter creates an exporter reading from the given engine.
func NewExporter(engine *credflow.Engine) *Exporter {
	return &Exporter{source: engine}
}

// NewExporterFromSource creates an exporter from a custom [MetricsSource].
func NewExporterFromSource(source MetricsSource) *Exporter {
	return &Exporter{source: source}
}

// Handler serves the rendered metrics.
func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics, or "" when the engine records none.
func (p *Exporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}
	pool := p.source.NotifyStats()

	var b strings.Builder
	b.Grow(8192)

	for _, def := range internaldefs.CounterDefs {
		writeCounter(&b, def.Name, def.Help, snapshot.Counters[def.ID])
	}

	for _, def := range internaldefs.HistogramDefs {
		nonCumulative := internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID])
		cumulative := internaldefs.CumulativeBuckets(nonCumulative)
		writeHistogram(&b, def.Name, def.Help, cumulative)
	}

	writeCounter(&b, "credflow_audit_dropped_total", "Audit events dropped on a full dispatcher buffer.", dropped)

	writeHeader(&b, "credflow_notify_pool_tasks_total", "Notification pool tasks by disposition.", "counter")
	writeLabeled(&b, "credflow_notify_pool_tasks_total", "disposition", "queued", pool.Queued)
	writeLabeled(&b, "credflow_notify_pool_tasks_total", "disposition", "surged", pool.Surged)
	writeLabeled(&b, "credflow_notify_pool_tasks_total", "disposition", "caller_ran", pool.CallerRan)
	writeCounter(&b, "credflow_notify_pool_completed_total", "Notification tasks that returned.", pool.Completed)
	writeCounter(&b, "credflow_notify_pool_failed_total", "Notification tasks that returned an error.", pool.Failed)

	return b.String()
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

func writeCounter(b *strings.Builder, name, help string, value uint64) {
	writeHeader(b, name, help, "counter")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func writeLabeled(b *strings.Builder, name, label, value string, n uint64) {
	b.WriteString(name)
	b.WriteByte('{')
	b.WriteString(label)
	b.WriteString("=\"")
	b.WriteString(value)
	b.WriteString("\"} ")
	b.WriteString(strconv.FormatUint(n, 10))
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, name, help string, cumulative [8]uint64) {
	writeHeader(b, name, help, "histogram")

	for i, le := range internaldefs.HistogramBounds {
		writeLabeled(b, name+"_bucket", "le", le, cumulative[i])
	}

	count := cumulative[len(cumulative)-1]
	b.WriteString(name)
	b.WriteString("_count ")
	b.WriteString(strconv.FormatUint(count, 10))
	b.WriteByte('\n')

	// Engine snapshots keep bucket counts only.
	b.WriteString(name)
	b.WriteString("_sum 0\n")
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
