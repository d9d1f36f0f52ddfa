// Package provider implements the data-provider gateway: a uniform fetch
// facade over the NDVI, weather, soil, crop-calendar and agrovet lookups.
// Each provider owns its upstream-specific request shaping and response
// parsing behind the same small interface; the gateway adds per-call
// timeouts, concurrent fan-out and failure isolation so that one slow or
// broken upstream never blocks or fails the others.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agriaid/agriaid/core"
)

// ErrRejected marks an explicit upstream rejection (bad request, unknown
// ward, auth failure). Rejections are never retried; the gateway surfaces
// them as Unavailable results with the reason intact so the reply can explain
// the problem in plain language.
var ErrRejected = errors.New("rejected by upstream")

// Provider is one variant of the closed capability set. Fetch returns a
// human-readable payload ready for prompt embedding, or an error the gateway
// classifies into a DataResult.
type Provider interface {
	Tag() core.ProviderTag
	Fetch(ctx context.Context, q core.Query) (string, error)
}

// Reject builds an ErrRejected-wrapped error with a plain-language reason.
func Reject(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRejected, fmt.Sprintf(format, args...))
}

// rejectionReason strips the sentinel prefix so only the plain reason
// surfaces in DataResult summaries.
func rejectionReason(err error) string {
	return strings.TrimPrefix(err.Error(), ErrRejected.Error()+": ")
}
