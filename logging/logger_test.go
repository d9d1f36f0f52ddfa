package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*AgriAidLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(&LoggerConfig{
		Level:       level,
		Format:      "json",
		Output:      &buf,
		CustomAttrs: map[string]interface{}{},
	}), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestAgriAidLogger_KeyValueArgs(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	logger.Info("pipeline complete", "segments", 3, "farmer_id", "+254712345678")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "pipeline complete", entries[0]["msg"])
	assert.Equal(t, float64(3), entries[0]["segments"])
	assert.Equal(t, "+254712345678", entries[0]["farmer_id"])
}

func TestAgriAidLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("visible")
	logger.Error("also visible")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "visible", entries[0]["msg"])
	assert.Equal(t, "also visible", entries[1]["msg"])
}

func TestAgriAidLogger_ContextualHelpers(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	enriched := logger.
		WithContext("service", "agriaid").
		WithComponent("orchestrator").
		WithFarmer("+254700000001", "run-42")
	enriched.Info("stage done", "stage", "fetching")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "agriaid", entries[0]["service"])
	assert.Equal(t, "orchestrator", entries[0]["component"])
	assert.Equal(t, "+254700000001", entries[0]["farmer_id"])
	assert.Equal(t, "run-42", entries[0]["run_id"])
	assert.Equal(t, "fetching", entries[0]["stage"])

	// Cloning must not leak enrichment back into the parent.
	buf.Reset()
	logger.Info("plain")
	entries = decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0], "component")
	assert.NotContains(t, entries[0], "farmer_id")
}

func TestAgriAidLogger_LogProviderFetch(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	logger.LogProviderFetch("weather", 120*time.Millisecond, "success", nil)
	logger.LogProviderFetch("soil", 10*time.Second, "timeout", errors.New("lookup timed out"))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "Provider fetch completed", entries[0]["msg"])
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "weather", entries[0]["provider"])
	assert.Equal(t, "success", entries[0]["status"])

	assert.Equal(t, "Provider fetch degraded", entries[1]["msg"])
	assert.Equal(t, "WARN", entries[1]["level"])
	assert.Equal(t, "soil", entries[1]["provider"])
	assert.Equal(t, "lookup timed out", entries[1]["error"])
}

func TestAgriAidLogger_LogModelCall(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	logger.LogModelCall("gpt-4o-mini", 412, 800*time.Millisecond, true, nil)
	logger.LogModelCall("gpt-4o-mini", 0, 5*time.Second, false, errors.New("rate limited"))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "Model call completed", entries[0]["msg"])
	assert.Equal(t, float64(412), entries[0]["token_count"])
	assert.Equal(t, true, entries[0]["success"])

	assert.Equal(t, "Model call failed", entries[1]["msg"])
	assert.Equal(t, "ERROR", entries[1]["level"])
	assert.Equal(t, "rate limited", entries[1]["error"])
}

func TestAgriAidLogger_LogPipelineRun(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	logger.LogPipelineRun("+254712345678", 2, 3*time.Second, true, nil)
	logger.LogPipelineRun("+254712345678", 0, time.Second, false, errors.New("commit failed"))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "Pipeline completed", entries[0]["msg"])
	assert.Equal(t, "+254712345678", entries[0]["farmer_id"])
	assert.Equal(t, float64(2), entries[0]["segment_count"])

	assert.Equal(t, "Pipeline failed", entries[1]["msg"])
	assert.Equal(t, "ERROR", entries[1]["level"])
	assert.Equal(t, "commit failed", entries[1]["error"])
}
