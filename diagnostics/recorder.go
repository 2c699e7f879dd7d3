// Package diagnostics turns the structured observations compilers and the
// compactor produce (providers.Diagnostic, compaction step outcomes) into
// Prometheus metrics, mirroring the teacher's pluggable-observability-provider
// shape (pkg/bichat/observability) but backed by a real metrics client
// instead of a log line.
package diagnostics

import (
	ctx "github.com/iota-uz/context"
	"github.com/iota-uz/context/providers"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder records compiler diagnostics and compaction outcomes as
// Prometheus counters/histograms. The zero value is not usable; build one
// with NewRecorder.
type Recorder struct {
	diagnosticsTotal *prometheus.CounterVec
	compactionSteps  *prometheus.CounterVec
	blocksDropped    *prometheus.CounterVec
	estimatedTokens  *prometheus.HistogramVec
}

// NewRecorder registers its metrics against reg. Pass prometheus.NewRegistry()
// for an isolated registry (tests), or prometheus.DefaultRegisterer to expose
// metrics process-wide.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		diagnosticsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "context",
			Subsystem: "compiler",
			Name:      "diagnostics_total",
			Help:      "Count of compiler diagnostics emitted, by provider and level.",
		}, []string{"provider", "level"}),
		compactionSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "context",
			Subsystem: "compactor",
			Name:      "steps_applied_total",
			Help:      "Count of compaction steps applied, by step name.",
		}, []string{"step"}),
		blocksDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "context",
			Subsystem: "compactor",
			Name:      "blocks_dropped_total",
			Help:      "Count of blocks removed by a compaction step, by step name.",
		}, []string{"step"}),
		estimatedTokens: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "context",
			Subsystem: "compiler",
			Name:      "estimated_tokens",
			Help:      "Estimated prompt token count per compiled context, by provider.",
			Buckets:   prometheus.ExponentialBuckets(128, 2, 12),
		}, []string{"provider"}),
	}

	for _, c := range []prometheus.Collector{r.diagnosticsTotal, r.compactionSteps, r.blocksDropped, r.estimatedTokens} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RecordCompiled records a CompiledContext's diagnostics and token estimate.
func (r *Recorder) RecordCompiled(compiled providers.CompiledContext) {
	provider := string(compiled.Provider)
	for _, d := range compiled.Diagnostics {
		r.diagnosticsTotal.WithLabelValues(provider, string(d.Level)).Inc()
	}
	if compiled.EstimatedTokens > 0 {
		r.estimatedTokens.WithLabelValues(provider).Observe(float64(compiled.EstimatedTokens))
	}
}

// RecordCompactionStep records one compactor step's effect: stepName (e.g.
// "dedupe", "tool_output_prune") and how many blocks it removed.
func (r *Recorder) RecordCompactionStep(stepName string, blocksDropped int) {
	r.compactionSteps.WithLabelValues(stepName).Inc()
	if blocksDropped > 0 {
		r.blocksDropped.WithLabelValues(stepName).Add(float64(blocksDropped))
	}
}

// RecordCompaction records every step of a compactor run.
func (r *Recorder) RecordCompaction(report ctx.CompactionReport) {
	for _, step := range report.StepReports {
		r.RecordCompactionStep(string(step.Step), step.BlocksRemoved)
	}
}

// RecordError records a structured ctx.Error's kind, independent of whatever
// counters the caller's own error path maintains.
func (r *Recorder) RecordError(err error) {
	var kind ctx.ErrorKind
	if e, ok := err.(*ctx.Error); ok {
		kind = e.Kind
	} else {
		kind = "Unknown"
	}
	r.diagnosticsTotal.WithLabelValues("core", string(kind)).Inc()
}
