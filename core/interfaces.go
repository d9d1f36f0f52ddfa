package core

import (
	"context"
	"errors"
	"time"
)

// Sender delivers one composed SMS segment to a farmer. The orchestrator
// calls it once per segment, in order; a failed segment is reported but does
// not cancel the remaining segments. Retry is the transport's own concern.
type Sender interface {
	Send(ctx context.Context, farmerID, segment string) error
}

// Registration is the farmer's registered location, used to localize
// provider queries. Owned by the registration subsystem; read-only here.
type Registration struct {
	FarmerID     string    `json:"farmer_id"`
	Ward         string    `json:"ward"`
	County       string    `json:"county"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ErrNotRegistered is returned by RegistrationLookup when the farmer has no
// registered location.
var ErrNotRegistered = errors.New("farmer not registered")

// RegistrationLookup resolves a farmer's registered ward/region.
type RegistrationLookup interface {
	GetRegistration(ctx context.Context, farmerID string) (*Registration, error)
}
