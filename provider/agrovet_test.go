package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriaid/agriaid/core"
	"github.com/agriaid/agriaid/registry"
)

type fakeDirectory struct {
	entries []registry.Agrovet
	err     error
}

func (f *fakeDirectory) AgrovetsNear(_ context.Context, _, _ string, limit int) ([]registry.Agrovet, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.entries) > limit {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func TestAgrovetLookup_Fetch(t *testing.T) {
	dir := &fakeDirectory{entries: []registry.Agrovet{
		{Name: "Kajulu Agrovet", Ward: "Kajulu", Contact: "+254711000111", Rating: 4.5},
		{Name: "Lakeview Farm Supplies", Ward: "Market Milimani", Contact: "+254722000222", Rating: 4.1},
	}}
	lookup := NewAgrovetLookup(dir)

	out, err := lookup.Fetch(context.Background(), core.Query{Ward: "Kajulu", County: "Kisumu"})
	require.NoError(t, err)
	assert.Contains(t, out, "1) Kajulu Agrovet, Kajulu - +254711000111 (rated 4.5)")
	assert.Contains(t, out, "2) Lakeview Farm Supplies")
}

func TestAgrovetLookup_NoLocation(t *testing.T) {
	lookup := NewAgrovetLookup(&fakeDirectory{})
	_, err := lookup.Fetch(context.Background(), core.Query{})
	assert.True(t, errors.Is(err, ErrRejected))
}

func TestAgrovetLookup_EmptyDirectory(t *testing.T) {
	lookup := NewAgrovetLookup(&fakeDirectory{})
	_, err := lookup.Fetch(context.Background(), core.Query{Ward: "Kajulu"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected))
	assert.Contains(t, err.Error(), "no agrovets listed near Kajulu")
}

func TestAgrovetLookup_DirectoryError(t *testing.T) {
	lookup := NewAgrovetLookup(&fakeDirectory{err: errors.New("db locked")})
	_, err := lookup.Fetch(context.Background(), core.Query{County: "Kisumu"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRejected))
}
