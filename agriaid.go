// Package agriaid provides a high-level façade over the message pipeline
// (sessions, routing, data providers, the dialogue agent and SMS
// composition), enabling rapid construction of the assistant. Most
// applications interact with this package by:
//  1. Creating an AgriAid via New() (optionally overriding default in-memory services)
//  2. Feeding inbound messages through Handle()
//  3. Receiving composed segments through the configured Sender
//
// The façade delegates orchestration to orchestrator.Orchestrator while
// keeping setup ergonomics concise. All defaults are safe for local
// development and testing; production deployments supply a real model, the
// Africa's Talking sender and the sqlite-backed registry.
package agriaid

import (
	"github.com/agriaid/agriaid/agent"
	"github.com/agriaid/agriaid/compose"
	"github.com/agriaid/agriaid/core"
	"github.com/agriaid/agriaid/logging"
	"github.com/agriaid/agriaid/model"
	"github.com/agriaid/agriaid/orchestrator"
	"github.com/agriaid/agriaid/provider"
	"github.com/agriaid/agriaid/router"
	"github.com/agriaid/agriaid/session"
	"github.com/agriaid/agriaid/transport"
)

// Options configures the AgriAid instance.
type Options struct {
	// SessionStore holds per-farmer conversations. Defaults to the
	// in-memory store with a one hour TTL and 30 interactions.
	SessionStore core.SessionStore

	// Model produces replies. Defaults to the offline mock model.
	Model model.Model

	// Providers are the external data sources. Defaults to the embedded
	// crop calendar only, which needs no credentials.
	Providers []provider.Provider

	// Registrations localizes queries. Optional.
	Registrations core.RegistrationLookup

	// Sender delivers composed segments. Defaults to an in-memory Recorder.
	Sender core.Sender

	// MaxSegmentLength is the SMS character budget per segment.
	MaxSegmentLength int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgriAid is the high-level façade aggregating the pipeline stages.
type AgriAid struct {
	orch   *orchestrator.Orchestrator
	sender core.Sender
}

// New creates an AgriAid instance with optional overrides. Any unset service
// is replaced by a safe in-memory default.
func New(optFns ...func(o *Options)) (*AgriAid, error) {
	opts := Options{
		MaxSegmentLength: 160,
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.SessionStore == nil {
		opts.SessionStore = session.NewInMemoryStore(func(o *session.Options) {
			o.Logger = opts.Logger
		})
	}
	if opts.Model == nil {
		opts.Model = model.NewMockModel("agriaid-default")
	}
	if opts.Providers == nil {
		cal, err := provider.NewCropCalendar()
		if err != nil {
			return nil, err
		}
		opts.Providers = []provider.Provider{cal}
	}
	if opts.Sender == nil {
		opts.Sender = transport.NewRecorder()
	}

	rt := router.New(func(o *router.Options) {
		o.Registrations = opts.Registrations
		o.Logger = opts.Logger
	})
	gateway := provider.NewGateway(opts.Providers, func(o *provider.GatewayOptions) {
		o.Logger = opts.Logger
	})
	ag := agent.New(opts.Model, func(o *agent.Options) {
		o.Logger = opts.Logger
	})
	composer := compose.New(func(o *compose.Options) {
		o.MaxLength = opts.MaxSegmentLength
	})

	orch := orchestrator.New(opts.SessionStore, rt, gateway, ag, composer, opts.Sender, func(o *orchestrator.Options) {
		o.Logger = opts.Logger
	})
	return &AgriAid{orch: orch, sender: opts.Sender}, nil
}

// Handle enqueues one inbound message for processing.
func (a *AgriAid) Handle(msg core.InboundMessage) error {
	return a.orch.Handle(msg)
}

// State reports the farmer's current pipeline phase.
func (a *AgriAid) State(farmerID string) orchestrator.State {
	return a.orch.State(farmerID)
}

// Stop drains queued messages and waits for running pipelines.
func (a *AgriAid) Stop() {
	a.orch.Stop()
}
