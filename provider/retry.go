package provider

import "time"

// RetryPolicy controls the optional per-provider bounded retry. Retries apply
// to timeouts only, never to explicit upstream rejections or errors, and are
// capped at two additional attempts.
type RetryPolicy struct {
	// ExtraAttempts is the number of additional attempts after the first
	// timeout, capped at 2.
	ExtraAttempts int
	// InitialDelay is the pause before the first retry.
	InitialDelay time.Duration
	// Multiplier scales the delay between successive retries.
	Multiplier float64
}

// DefaultRetryPolicy returns one retry after 200ms, doubling.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{ExtraAttempts: 1, InitialDelay: 200 * time.Millisecond, Multiplier: 2.0}
}

// Attempts returns the total attempt budget including the initial call.
func (p *RetryPolicy) Attempts() int {
	if p == nil || p.ExtraAttempts <= 0 {
		return 1
	}
	extra := p.ExtraAttempts
	if extra > 2 {
		extra = 2
	}
	return 1 + extra
}

// NextDelay returns the backoff delay before the given retry (1-indexed).
func (p *RetryPolicy) NextDelay(retry int) time.Duration {
	if p == nil || retry <= 0 {
		return 0
	}
	delay := float64(p.InitialDelay)
	for i := 1; i < retry; i++ {
		delay *= p.Multiplier
	}
	return time.Duration(delay)
}
