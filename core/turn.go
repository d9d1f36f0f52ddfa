package core

import (
	"time"

	"github.com/google/uuid"
)

// InboundMessage is the raw inbound SMS event handed to the orchestrator by
// the transport callback.
type InboundMessage struct {
	FarmerID   string    `json:"farmer_id"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}

// Turn is the immutable record of one completed conversation exchange: the
// inbound message, the resolved intent, any fetched external data (tagged by
// provider) and the outbound reply text. Turns are appended by the
// orchestrator through SessionStore.CommitTurn after a pipeline completes and
// are never mutated afterwards.
type Turn struct {
	ID            string                 `json:"id"`
	ReceivedAt    time.Time              `json:"received_at"`
	Message       string                 `json:"message"`
	IntentTags    []ProviderTag          `json:"intent_tags,omitempty"`
	DataSummaries map[ProviderTag]string `json:"data_summaries,omitempty"`
	ReplyText     string                 `json:"reply_text"`
	FollowUpHint  string                 `json:"follow_up_hint,omitempty"`
}

// NewTurn creates a Turn for an inbound message with a fresh identifier.
// Intent tags, data summaries and the reply are filled in by the pipeline
// before the turn is committed.
func NewTurn(msg InboundMessage) Turn {
	return Turn{
		ID:            NewID(),
		ReceivedAt:    msg.ReceivedAt,
		Message:       msg.Text,
		DataSummaries: map[ProviderTag]string{},
	}
}

// NewID generates a new unique identifier for turns and pipeline runs.
func NewID() string { return uuid.NewString() }
