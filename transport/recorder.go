package transport

import (
	"context"
	"sync"

	"github.com/agriaid/agriaid/core"
)

// Sent is one recorded outbound segment.
type Sent struct {
	FarmerID string
	Segment  string
}

// Recorder is an in-memory core.Sender that captures every segment in send
// order. An injected error function can simulate delivery failures.
type Recorder struct {
	mu      sync.Mutex
	sent    []Sent
	failFor func(farmerID, segment string) error
}

// NewRecorder constructs an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith installs a per-send error function; a nil return delivers.
func (r *Recorder) FailWith(fn func(farmerID, segment string) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failFor = fn
}

// Send implements core.Sender.
func (r *Recorder) Send(_ context.Context, farmerID, segment string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor != nil {
		if err := r.failFor(farmerID, segment); err != nil {
			return err
		}
	}
	r.sent = append(r.sent, Sent{FarmerID: farmerID, Segment: segment})
	return nil
}

// Sent returns a copy of everything delivered so far.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sent, len(r.sent))
	copy(out, r.sent)
	return out
}

// SentTo returns the segments delivered to one farmer, in order.
func (r *Recorder) SentTo(farmerID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, s := range r.sent {
		if s.FarmerID == farmerID {
			out = append(out, s.Segment)
		}
	}
	return out
}

var _ core.Sender = (*Recorder)(nil)
