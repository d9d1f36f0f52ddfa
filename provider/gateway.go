package provider

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/agriaid/agriaid/core"
	"github.com/agriaid/agriaid/logging"
)

// GatewayOptions configure a Gateway.
type GatewayOptions struct {
	// Timeout bounds each individual provider call, including each retry
	// attempt. Default 10s.
	Timeout time.Duration
	// Retry holds optional per-provider retry policies (timeout-only).
	Retry map[core.ProviderTag]*RetryPolicy
	// Logger receives per-fetch diagnostics.
	Logger logging.Logger
}

// fetchLogger is implemented by richer loggers, such as
// logging.AgriAidLogger, that record structured per-fetch outcomes beyond
// the debug line every Logger gets.
type fetchLogger interface {
	LogProviderFetch(provider string, dur time.Duration, status string, err error)
}

// Gateway dispatches provider calls with explicit timeouts and converts every
// failure into a DataResult variant at this boundary. Errors never escape
// into the orchestrator.
type Gateway struct {
	providers map[core.ProviderTag]Provider
	timeout   time.Duration
	retry     map[core.ProviderTag]*RetryPolicy
	logger    logging.Logger
}

// NewGateway builds a gateway over the given providers.
func NewGateway(providers []Provider, optFns ...func(o *GatewayOptions)) *Gateway {
	opts := GatewayOptions{
		Timeout: 10 * time.Second,
		Retry:   map[core.ProviderTag]*RetryPolicy{},
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	byTag := make(map[core.ProviderTag]Provider, len(providers))
	for _, p := range providers {
		byTag[p.Tag()] = p
	}
	return &Gateway{providers: byTag, timeout: opts.Timeout, retry: opts.Retry, logger: opts.Logger}
}

// Fetch executes a single provider call under the configured timeout and
// classifies the outcome. Timeouts may be retried per the provider's policy;
// rejections and other upstream errors are terminal.
func (g *Gateway) Fetch(ctx context.Context, call core.ProviderCall) core.DataResult {
	p, ok := g.providers[call.Tag]
	if !ok {
		return core.UnavailableResult(call.Tag, "no such data source")
	}

	policy := g.retry[call.Tag]
	attempts := policy.Attempts()

	var result core.DataResult
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return core.TimeoutResult(call.Tag)
			case <-time.After(policy.NextDelay(attempt - 1)):
			}
		}

		start := time.Now()
		result = g.fetchOnce(ctx, p, call)
		g.logger.Debug("provider fetch", "provider", string(call.Tag), "status", string(result.Status), "attempt", attempt, "duration", time.Since(start))
		if fl, ok := g.logger.(fetchLogger); ok {
			fl.LogProviderFetch(string(call.Tag), time.Since(start), string(result.Status), resultErr(result))
		}

		if result.Status != core.DataTimeout {
			return result
		}
	}
	return result
}

func (g *Gateway) fetchOnce(ctx context.Context, p Provider, call core.ProviderCall) core.DataResult {
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	payload, err := p.Fetch(cctx, call.Query)
	switch {
	case err == nil:
		return core.SuccessResult(call.Tag, payload)
	case isTimeout(err):
		return core.TimeoutResult(call.Tag)
	case errors.Is(err, ErrRejected):
		return core.UnavailableResult(call.Tag, rejectionReason(err))
	default:
		return core.UnavailableResult(call.Tag, err.Error())
	}
}

// FetchAll executes all calls of an intent plan concurrently and join-waits
// for every result, bounded by the per-call timeout rather than a global one.
// Results preserve the order of the calls.
func (g *Gateway) FetchAll(ctx context.Context, calls []core.ProviderCall) []core.DataResult {
	if len(calls) == 0 {
		return nil
	}

	results := make([]core.DataResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call core.ProviderCall) {
			defer wg.Done()
			results[i] = g.Fetch(ctx, call)
		}(i, call)
	}
	wg.Wait()
	return results
}

// resultErr rebuilds an error value for logging from a classified result.
func resultErr(r core.DataResult) error {
	switch {
	case r.OK():
		return nil
	case r.Reason != "":
		return errors.New(r.Reason)
	default:
		return errors.New(string(r.Status))
	}
}

// isTimeout reports whether the error is a deadline expiry rather than an
// upstream response.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
