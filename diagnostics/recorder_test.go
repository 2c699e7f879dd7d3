package diagnostics_test

import (
	"testing"

	ctx "github.com/iota-uz/context"
	"github.com/iota-uz/context/diagnostics"
	"github.com/iota-uz/context/providers"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels prometheus.Labels) float64 {
	t.Helper()
	m, err := vec.GetMetricWith(labels)
	require.NoError(t, err)
	var metric dto.Metric
	require.NoError(t, m.Write(&metric))
	return metric.GetCounter().GetValue()
}

func TestRecordCompiled_CountsDiagnosticsByProviderAndLevel(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	rec, err := diagnostics.NewRecorder(reg)
	require.NoError(t, err)

	rec.RecordCompiled(providers.CompiledContext{
		Provider: ctx.ProviderOpenAI,
		Diagnostics: []providers.Diagnostic{
			{Level: providers.DiagnosticWarning, Message: "consecutive same-role messages"},
			{Level: providers.DiagnosticWarning, Message: "another warning"},
		},
		EstimatedTokens: 512,
	})

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, metricFamilies)

	var found bool
	for _, mf := range metricFamilies {
		if mf.GetName() != "context_compiler_diagnostics_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["provider"] == string(ctx.ProviderOpenAI) && labels["level"] == string(providers.DiagnosticWarning) {
				found = true
				require.Equal(t, float64(2), m.GetCounter().GetValue())
			}
		}
	}
	require.True(t, found, "expected a diagnostics_total series labeled provider=openai, level=warning")
}

func TestRecordCompactionStep_AccumulatesDroppedBlocks(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	rec, err := diagnostics.NewRecorder(reg)
	require.NoError(t, err)

	rec.RecordCompactionStep("dedupe", 3)
	rec.RecordCompactionStep("dedupe", 2)

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range metricFamilies {
		if mf.GetName() == "context_compactor_blocks_dropped_total" {
			found = true
			require.Len(t, mf.GetMetric(), 1)
			require.Equal(t, float64(5), mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
	require.True(t, found, "expected context_compactor_blocks_dropped_total metric")
}

func TestRecordError_CountsByKind(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	rec, err := diagnostics.NewRecorder(reg)
	require.NoError(t, err)

	rec.RecordError(ctx.NewError(ctx.KindOverflow, "view-1", "budget exceeded", nil))
	rec.RecordError(ctx.NewError(ctx.KindOverflow, "view-2", "budget exceeded", nil))

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range metricFamilies {
		if mf.GetName() == "context_compiler_diagnostics_total" {
			for _, m := range mf.GetMetric() {
				for _, l := range m.GetLabel() {
					if l.GetName() == "level" && l.GetValue() == string(ctx.KindOverflow) {
						found = true
						require.Equal(t, float64(2), m.GetCounter().GetValue())
					}
				}
			}
		}
	}
	require.True(t, found, "expected a diagnostics_total series labeled with the overflow error kind")
}

func TestNewRecorder_DuplicateRegistrationFails(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := diagnostics.NewRecorder(reg)
	require.NoError(t, err)

	_, err = diagnostics.NewRecorder(reg)
	require.Error(t, err)
}
