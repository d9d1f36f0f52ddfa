package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriaid/agriaid/core"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObservePipeline("ok", 0.2)
	m.ObservePipeline("commit_failure", 0.1)
	m.ObserveDataResults([]core.DataResult{
		core.SuccessResult(core.TagWeather, "sunny"),
		core.TimeoutResult(core.TagSoil),
	})
	m.ObserveSegment(false)
	m.ObserveSegment(true)

	expected := `
# HELP agriaid_provider_results_total Provider fetch outcomes by data source and status.
# TYPE agriaid_provider_results_total counter
agriaid_provider_results_total{provider="soil",status="timeout"} 1
agriaid_provider_results_total{provider="weather",status="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "agriaid_provider_results_total"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.segmentsSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sendFailures))
}

func TestMetrics_NilIsNoOp(t *testing.T) {
	var m *Metrics
	m.ObservePipeline("ok", 0.1)
	m.ObserveDataResults([]core.DataResult{core.TimeoutResult(core.TagNDVI)})
	m.ObserveSegment(true)
}
