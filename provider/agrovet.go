package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/agriaid/agriaid/core"
	"github.com/agriaid/agriaid/registry"
)

// AgrovetDirectory is the directory read the agrovet provider needs;
// *registry.Store satisfies it.
type AgrovetDirectory interface {
	AgrovetsNear(ctx context.Context, ward, county string, limit int) ([]registry.Agrovet, error)
}

// AgrovetOptions configure the agrovet lookup provider.
type AgrovetOptions struct {
	// Limit caps how many directory entries one reply carries. Default 3
	// (SMS real estate is scarce).
	Limit int
}

// AgrovetLookup resolves nearby agricultural supply centers from the
// directory, ordered by rating.
type AgrovetLookup struct {
	directory AgrovetDirectory
	limit     int
}

// NewAgrovetLookup constructs the agrovet provider over a directory.
func NewAgrovetLookup(directory AgrovetDirectory, optFns ...func(o *AgrovetOptions)) *AgrovetLookup {
	opts := AgrovetOptions{Limit: 3}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &AgrovetLookup{directory: directory, limit: opts.Limit}
}

// Tag implements Provider.
func (a *AgrovetLookup) Tag() core.ProviderTag { return core.TagAgrovet }

// Fetch implements Provider.
func (a *AgrovetLookup) Fetch(ctx context.Context, q core.Query) (string, error) {
	if q.Ward == "" && q.County == "" {
		return "", Reject("no registered farm location; ask the farmer to register their ward")
	}

	entries, err := a.directory.AgrovetsNear(ctx, q.Ward, q.County, a.limit)
	if err != nil {
		return "", fmt.Errorf("agrovet lookup: %w", err)
	}
	if len(entries) == 0 {
		place := q.Ward
		if place == "" {
			place = q.County
		}
		return "", Reject("no agrovets listed near %s yet", place)
	}

	var b strings.Builder
	b.WriteString("Nearby agrovets:")
	for i, e := range entries {
		fmt.Fprintf(&b, " %d) %s, %s - %s", i+1, e.Name, e.Ward, e.Contact)
		if e.Rating > 0 {
			fmt.Fprintf(&b, " (rated %.1f)", e.Rating)
		}
		b.WriteString(".")
	}
	return b.String(), nil
}
