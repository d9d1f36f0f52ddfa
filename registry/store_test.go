package registry

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriaid/agriaid/core"
)

var _ core.RegistrationLookup = (*Store)(nil)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RegisterAndLookup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.RegisterFarmer(ctx, core.Registration{
		FarmerID:     "0720705104",
		Ward:         "Kisumu Central",
		County:       "Kisumu",
		Lat:          -0.0917,
		Lon:          34.768,
		RegisteredAt: time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// Lookup normalizes the phone the same way registration does.
	reg, err := s.GetRegistration(ctx, "+254720705104")
	require.NoError(t, err)
	assert.Equal(t, "Kisumu Central", reg.Ward)
	assert.Equal(t, "Kisumu", reg.County)
	assert.InDelta(t, -0.0917, reg.Lat, 1e-9)
}

func TestStore_LookupUnknownFarmer(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetRegistration(context.Background(), "+254799999999")
	assert.ErrorIs(t, err, core.ErrNotRegistered)
}

func TestStore_RegisterOverwritesLocation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RegisterFarmer(ctx, core.Registration{FarmerID: "0711000000", Ward: "Old", County: "Nakuru"}))
	require.NoError(t, s.RegisterFarmer(ctx, core.Registration{FarmerID: "0711000000", Ward: "New", County: "Nakuru"}))

	reg, err := s.GetRegistration(ctx, "0711000000")
	require.NoError(t, err)
	assert.Equal(t, "New", reg.Ward)
}

func TestStore_AgrovetsNear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, a := range []Agrovet{
		{Name: "Kisumu Agro Supplies", Ward: "Kisumu Central", County: "Kisumu", Contact: "0722000001", Rating: 4.5},
		{Name: "Lakeview Farm Inputs", Ward: "Kisumu Central", County: "Kisumu", Contact: "0722000002", Rating: 4.8},
		{Name: "Nyalenda Seeds", Ward: "Nyalenda", County: "Kisumu", Contact: "0722000003", Rating: 3.9},
	} {
		_, err := s.AddAgrovet(ctx, a)
		require.NoError(t, err)
	}

	near, err := s.AgrovetsNear(ctx, "kisumu central", "Kisumu", 5)
	require.NoError(t, err)
	require.Len(t, near, 2)
	assert.Equal(t, "Lakeview Farm Inputs", near[0].Name, "results should be ordered by rating")
	assert.Equal(t, "+254722000002", near[0].Contact, "contacts are stored normalized")
}

func TestStore_AgrovetsCountyFallback(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.AddAgrovet(ctx, Agrovet{Name: "Nyalenda Seeds", Ward: "Nyalenda", County: "Kisumu", Contact: "0722000003", Rating: 3.9})
	require.NoError(t, err)

	near, err := s.AgrovetsNear(ctx, "Unknown Ward", "Kisumu", 5)
	require.NoError(t, err)
	require.Len(t, near, 1)
	assert.Equal(t, "Nyalenda Seeds", near[0].Name)
}

func TestOpen_FileStoreUsesWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agriaid.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", strings.ToLower(mode))

	var timeout int
	require.NoError(t, s.db.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 5000, timeout)
}
