package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/agriaid/agriaid/core"
	"github.com/agriaid/agriaid/logging"
	"github.com/agriaid/agriaid/metrics"
)

// State is the observable phase of a farmer's pipeline.
type State string

const (
	StateIdle       State = "idle"
	StateRouting    State = "routing"
	StateFetching   State = "fetching"
	StateGenerating State = "generating"
	StateComposing  State = "composing"
	StateCommitting State = "committing"
	StateSending    State = "sending"
)

// welcomeMessage greets a farmer whose session was just created.
const welcomeMessage = "Welcome to AgriAid! Ask about weather, soil, planting seasons or nearby agrovets. We reply by SMS."

// sessionEndMessage is appended when the session hits its interaction limit.
const sessionEndMessage = "This conversation has reached its limit. Your next message starts a fresh one."

var (
	// ErrStopped is returned by Handle after Stop.
	ErrStopped = errors.New("orchestrator stopped")
	// ErrQueueFull is returned when a farmer's queue cannot take more
	// messages. The transport callback surfaces it as a retryable failure.
	ErrQueueFull = errors.New("farmer message queue full")
)

// runLogger is implemented by richer loggers, such as
// logging.AgriAidLogger, that attach farmer and run identity to every entry
// and record aggregate pipeline outcomes.
type runLogger interface {
	WithFarmer(farmerID, runID string) *logging.AgriAidLogger
	LogPipelineRun(farmerID string, segments int, dur time.Duration, success bool, err error)
}

// Router classifies one inbound message into an intent plan.
type Router interface {
	Route(ctx context.Context, msg core.InboundMessage) core.IntentPlan
}

// DataGateway executes the plan's provider calls.
type DataGateway interface {
	FetchAll(ctx context.Context, calls []core.ProviderCall) []core.DataResult
}

// Responder produces the reply plan for turns that need the model.
type Responder interface {
	Respond(ctx context.Context, history []core.Turn, msg core.InboundMessage, results []core.DataResult) core.ReplyPlan
}

// SegmentComposer renders a reply plan into SMS segments.
type SegmentComposer interface {
	Compose(plan core.ReplyPlan) []string
}

// Options configure an Orchestrator.
type Options struct {
	// MaxConcurrent caps pipelines running at once across all farmers.
	MaxConcurrent int64
	// QueueSize is the per-farmer waiting-message buffer.
	QueueSize int
	// HistoryTurns is how many prior turns the responder sees.
	HistoryTurns int
	// MaxInteractions mirrors the session store's limit so the pipeline can
	// announce session end when a commit reaches it.
	MaxInteractions int
	// PipelineTimeout bounds one full pipeline run.
	PipelineTimeout time.Duration
	// Logger receives pipeline diagnostics.
	Logger logging.Logger
	// Metrics receives pipeline instrumentation. Optional.
	Metrics *metrics.Metrics
}

// Orchestrator owns the message pipeline. One goroutine per active farmer
// drains that farmer's queue in FIFO order, which makes a second message
// from the same farmer wait for the first pipeline to finish; a weighted
// semaphore bounds total concurrency.
type Orchestrator struct {
	sessions core.SessionStore
	router   Router
	gateway  DataGateway
	agent    Responder
	composer SegmentComposer
	sender   core.Sender

	historyTurns    int
	maxInteractions int
	queueSize       int
	pipelineTimeout time.Duration
	logger          logging.Logger
	metrics         *metrics.Metrics

	sem *semaphore.Weighted

	mu      sync.Mutex
	lanes   map[string]chan core.InboundMessage
	states  map[string]State
	stopped bool
	wg      sync.WaitGroup
}

// New wires the pipeline stages together.
func New(sessions core.SessionStore, rt Router, gw DataGateway, agent Responder, composer SegmentComposer, sender core.Sender, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		MaxConcurrent:   8,
		QueueSize:       16,
		HistoryTurns:    5,
		MaxInteractions: 30,
		PipelineTimeout: 60 * time.Second,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Orchestrator{
		sessions:        sessions,
		router:          rt,
		gateway:         gw,
		agent:           agent,
		composer:        composer,
		sender:          sender,
		historyTurns:    opts.HistoryTurns,
		maxInteractions: opts.MaxInteractions,
		queueSize:       opts.QueueSize,
		pipelineTimeout: opts.PipelineTimeout,
		logger:          opts.Logger,
		metrics:         opts.Metrics,
		sem:             semaphore.NewWeighted(opts.MaxConcurrent),
		lanes:           make(map[string]chan core.InboundMessage),
		states:          make(map[string]State),
	}
}

// Handle enqueues an inbound message on its farmer's lane and returns
// immediately. Ordering within a farmer is the enqueue order. The enqueue
// happens under the same mutex Stop closes lanes under, so a message is
// either accepted before shutdown or refused with ErrStopped, never sent on
// a closed lane.
func (o *Orchestrator) Handle(msg core.InboundMessage) error {
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return ErrStopped
	}
	lane, ok := o.lanes[msg.FarmerID]
	if !ok {
		lane = make(chan core.InboundMessage, o.queueSize)
		o.lanes[msg.FarmerID] = lane
		o.wg.Add(1)
		go o.drainLane(msg.FarmerID, lane)
	}

	// Non-blocking: the lane is buffered and drained outside the mutex.
	select {
	case lane <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop refuses new messages, drains every queued one, and waits for running
// pipelines to finish.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	for _, lane := range o.lanes {
		close(lane)
	}
	o.mu.Unlock()
	o.wg.Wait()
}

// State reports the farmer's current pipeline phase.
func (o *Orchestrator) State(farmerID string) State {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.states[farmerID]; ok {
		return s
	}
	return StateIdle
}

func (o *Orchestrator) setState(farmerID string, s State) {
	o.mu.Lock()
	o.states[farmerID] = s
	o.mu.Unlock()
}

func (o *Orchestrator) drainLane(farmerID string, lane chan core.InboundMessage) {
	defer o.wg.Done()
	for msg := range lane {
		if err := o.sem.Acquire(context.Background(), 1); err != nil {
			return
		}
		o.runPipeline(msg)
		o.sem.Release(1)
	}
}

// runPipeline executes the full per-message pipeline. It never returns an
// error: every failure mode ends in either a degraded reply or a logged
// abort with no reply at all.
func (o *Orchestrator) runPipeline(msg core.InboundMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), o.pipelineTimeout)
	defer cancel()

	runID := core.NewID()
	start := time.Now()
	defer o.setState(msg.FarmerID, StateIdle)

	// Richer loggers carry farmer and run identity on every entry; plain
	// ones get the pair as explicit fields.
	log := o.logger
	rich, enriched := o.logger.(runLogger)
	var kv []any
	if enriched {
		log = rich.WithFarmer(msg.FarmerID, runID)
	} else {
		kv = []any{"farmer_id", msg.FarmerID, "run_id", runID}
	}

	sess, err := o.sessions.GetOrCreate(msg.FarmerID)
	if err != nil {
		// A reply generated against unknown history is worse than silence.
		log.Error("session storage failure, dropping message", append(kv, "error", err)...)
		if enriched {
			rich.LogPipelineRun(msg.FarmerID, 0, time.Since(start), false, err)
		}
		o.metrics.ObservePipeline("storage_failure", time.Since(start).Seconds())
		return
	}
	newSession := sess.InteractionCount() == 0

	o.setState(msg.FarmerID, StateRouting)
	plan := o.router.Route(ctx, msg)

	turn := core.NewTurn(msg)
	turn.IntentTags = plan.Tags()

	o.setState(msg.FarmerID, StateFetching)
	results := o.gateway.FetchAll(ctx, plan.Calls)
	for _, r := range results {
		turn.DataSummaries[r.Tag] = r.Summary()
	}
	o.metrics.ObserveDataResults(results)

	o.setState(msg.FarmerID, StateGenerating)
	var replyPlan core.ReplyPlan
	if plan.RequiresModel {
		history, err := o.sessions.PeekContext(msg.FarmerID, o.historyTurns)
		if err != nil {
			// The snapshot from session lookup still serves.
			history = sess.LastTurns(o.historyTurns)
		}
		replyPlan = o.agent.Respond(ctx, history, msg, results)
	} else {
		replyPlan = renderDirect(results)
	}

	o.setState(msg.FarmerID, StateComposing)
	segments := o.composer.Compose(replyPlan)

	turn.ReplyText = strings.Join(segments, " ")
	turn.FollowUpHint = replyPlan.FollowUpHint

	o.setState(msg.FarmerID, StateCommitting)
	count, err := o.sessions.CommitTurn(msg.FarmerID, turn)
	if err != nil {
		// The reply must never outrun the record of it.
		log.Error("turn commit failed, reply withheld", append(kv, "error", err)...)
		if enriched {
			rich.LogPipelineRun(msg.FarmerID, 0, time.Since(start), false, err)
		}
		o.metrics.ObservePipeline("commit_failure", time.Since(start).Seconds())
		return
	}

	o.setState(msg.FarmerID, StateSending)
	if newSession {
		segments = append([]string{welcomeMessage}, segments...)
	}
	if count >= o.maxInteractions && o.maxInteractions > 0 {
		segments = append(segments, sessionEndMessage)
	}
	for i, seg := range segments {
		err := o.sender.Send(ctx, msg.FarmerID, seg)
		o.metrics.ObserveSegment(err != nil)
		if err != nil {
			log.Warn("segment send failed", append(kv, "segment", i+1, "of", len(segments), "error", err)...)
		}
	}

	log.Info("pipeline complete", append(kv,
		"intents", len(plan.Calls),
		"segments", len(segments),
		"interactions", count,
		"duration", time.Since(start),
	)...)
	if enriched {
		rich.LogPipelineRun(msg.FarmerID, len(segments), time.Since(start), true, nil)
	}
	o.metrics.ObservePipeline("ok", time.Since(start).Seconds())
}

// renderDirect shapes provider output into a reply without a model call.
// Used for plans that are a pure directory lookup.
func renderDirect(results []core.DataResult) core.ReplyPlan {
	blocks := make([]string, 0, len(results))
	var failed []string
	for _, r := range results {
		blocks = append(blocks, r.Summary())
		if !r.OK() {
			failed = append(failed, string(r.Tag))
		}
	}
	plan := core.ReplyPlan{Blocks: blocks}
	if len(failed) > 0 {
		plan.FollowUpHint = "retry " + strings.Join(failed, ", ") + " lookup"
	}
	return plan
}
