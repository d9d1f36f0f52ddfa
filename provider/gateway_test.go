package provider

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriaid/agriaid/core"
	"github.com/agriaid/agriaid/logging"
)

// stubProvider scripts one behavior per fetch, in order.
type stubProvider struct {
	tag   core.ProviderTag
	calls atomic.Int32
	fetch func(ctx context.Context, attempt int) (string, error)
}

func (s *stubProvider) Tag() core.ProviderTag { return s.tag }

func (s *stubProvider) Fetch(ctx context.Context, _ core.Query) (string, error) {
	attempt := int(s.calls.Add(1))
	return s.fetch(ctx, attempt)
}

func blockUntilDeadline(ctx context.Context, _ int) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestGateway_FetchSuccess(t *testing.T) {
	p := &stubProvider{tag: core.TagWeather, fetch: func(context.Context, int) (string, error) {
		return "sunny, 25C", nil
	}}
	g := NewGateway([]Provider{p})

	res := g.Fetch(context.Background(), core.ProviderCall{Tag: core.TagWeather})
	assert.Equal(t, core.DataSuccess, res.Status)
	assert.Equal(t, "sunny, 25C", res.Payload)
}

func TestGateway_FetchTimeout(t *testing.T) {
	p := &stubProvider{tag: core.TagSoil, fetch: blockUntilDeadline}
	g := NewGateway([]Provider{p}, func(o *GatewayOptions) { o.Timeout = 20 * time.Millisecond })

	res := g.Fetch(context.Background(), core.ProviderCall{Tag: core.TagSoil})
	assert.Equal(t, core.DataTimeout, res.Status)
}

func TestGateway_FetchRejection(t *testing.T) {
	p := &stubProvider{tag: core.TagNDVI, fetch: func(context.Context, int) (string, error) {
		return "", Reject("unknown ward %q", "Nowhere")
	}}
	g := NewGateway([]Provider{p})

	res := g.Fetch(context.Background(), core.ProviderCall{Tag: core.TagNDVI})
	assert.Equal(t, core.DataUnavailable, res.Status)
	assert.Equal(t, `unknown ward "Nowhere"`, res.Reason, "rejection reason must survive without the sentinel prefix")
	assert.Equal(t, int32(1), p.calls.Load(), "rejections are never retried")
}

func TestGateway_UnknownProvider(t *testing.T) {
	g := NewGateway(nil)
	res := g.Fetch(context.Background(), core.ProviderCall{Tag: core.TagWeather})
	assert.Equal(t, core.DataUnavailable, res.Status)
}

func TestGateway_RetryOnTimeoutOnly(t *testing.T) {
	p := &stubProvider{tag: core.TagWeather, fetch: func(ctx context.Context, attempt int) (string, error) {
		if attempt == 1 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "recovered", nil
	}}
	g := NewGateway([]Provider{p}, func(o *GatewayOptions) {
		o.Timeout = 20 * time.Millisecond
		o.Retry = map[core.ProviderTag]*RetryPolicy{
			core.TagWeather: {ExtraAttempts: 1, InitialDelay: time.Millisecond, Multiplier: 2},
		}
	})

	res := g.Fetch(context.Background(), core.ProviderCall{Tag: core.TagWeather})
	assert.Equal(t, core.DataSuccess, res.Status)
	assert.Equal(t, "recovered", res.Payload)
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestGateway_NoRetryOnUpstreamError(t *testing.T) {
	p := &stubProvider{tag: core.TagWeather, fetch: func(context.Context, int) (string, error) {
		return "", errors.New("boom")
	}}
	g := NewGateway([]Provider{p}, func(o *GatewayOptions) {
		o.Retry = map[core.ProviderTag]*RetryPolicy{core.TagWeather: DefaultRetryPolicy()}
	})

	res := g.Fetch(context.Background(), core.ProviderCall{Tag: core.TagWeather})
	assert.Equal(t, core.DataUnavailable, res.Status)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestGateway_FetchAllIndependentFailures(t *testing.T) {
	slow := &stubProvider{tag: core.TagSoil, fetch: blockUntilDeadline}
	ok := &stubProvider{tag: core.TagWeather, fetch: func(context.Context, int) (string, error) {
		return "sunny", nil
	}}
	g := NewGateway([]Provider{slow, ok}, func(o *GatewayOptions) { o.Timeout = 30 * time.Millisecond })

	start := time.Now()
	results := g.FetchAll(context.Background(), []core.ProviderCall{
		{Tag: core.TagWeather},
		{Tag: core.TagSoil},
	})
	elapsed := time.Since(start)

	require.Len(t, results, 2)
	assert.Equal(t, core.TagWeather, results[0].Tag, "results keep call order")
	assert.Equal(t, core.DataSuccess, results[0].Status)
	assert.Equal(t, core.DataTimeout, results[1].Status, "one timeout must not fail the rest")
	assert.Less(t, elapsed, 300*time.Millisecond, "fan-out should run concurrently, bounded by the per-call timeout")
}

func TestGateway_FetchAllEmptyPlan(t *testing.T) {
	g := NewGateway(nil)
	assert.Nil(t, g.FetchAll(context.Background(), nil))
}

func TestRetryPolicy_AttemptBudget(t *testing.T) {
	assert.Equal(t, 1, (*RetryPolicy)(nil).Attempts())
	assert.Equal(t, 2, (&RetryPolicy{ExtraAttempts: 1}).Attempts())
	assert.Equal(t, 3, (&RetryPolicy{ExtraAttempts: 5}).Attempts(), "extra attempts are capped at 2")
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := &RetryPolicy{ExtraAttempts: 2, InitialDelay: 100 * time.Millisecond, Multiplier: 2}
	assert.Equal(t, 100*time.Millisecond, p.NextDelay(1))
	assert.Equal(t, 200*time.Millisecond, p.NextDelay(2))
}

func TestGateway_RichLoggerRecordsFetch(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:       logging.LogLevelInfo,
		Format:      "json",
		Output:      &buf,
		CustomAttrs: map[string]interface{}{},
	})

	ok := &stubProvider{tag: core.TagWeather, fetch: func(context.Context, int) (string, error) {
		return "sunny", nil
	}}
	bad := &stubProvider{tag: core.TagSoil, fetch: blockUntilDeadline}
	g := NewGateway([]Provider{ok, bad}, func(o *GatewayOptions) {
		o.Timeout = 20 * time.Millisecond
		o.Logger = logger
	})

	g.Fetch(context.Background(), core.ProviderCall{Tag: core.TagWeather})
	g.Fetch(context.Background(), core.ProviderCall{Tag: core.TagSoil})

	out := buf.String()
	assert.Contains(t, out, `"msg":"Provider fetch completed"`)
	assert.Contains(t, out, `"provider":"weather"`)
	assert.Contains(t, out, `"msg":"Provider fetch degraded"`)
	assert.Contains(t, out, `"status":"timeout"`)
}
