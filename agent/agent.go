package agent

import (
	"context"
	"strings"
	"time"

	"github.com/agriaid/agriaid/core"
	"github.com/agriaid/agriaid/logging"
	"github.com/agriaid/agriaid/model"
)

// systemPrompt frames every completion. Kept deliberately short: it travels
// on every request and the audience reads the answer on a feature phone.
const systemPrompt = `You are AgriAid, an SMS farming assistant for smallholder farmers in Kenya.
Give concise, practical, actionable advice in plain language. Avoid jargon.
Use the data provided between [DATA] markers; if a lookup is marked unavailable, say so briefly and still give your best general advice.
Keep the whole answer under 300 characters so it fits in a couple of SMS messages.
Never invent numbers that are not in the data.`

// fallbackReply is sent when the model call itself fails.
const fallbackReply = "Sorry, AgriAid could not answer right now. Please try again in a few minutes."

// modelCallLogger is implemented by richer loggers, such as
// logging.AgriAidLogger, that record structured model call outcomes.
type modelCallLogger interface {
	LogModelCall(model string, tokens int, dur time.Duration, success bool, err error)
}

// Options configure an Agent.
type Options struct {
	// MaxHistoryTurns caps how many prior turns are replayed as context.
	MaxHistoryTurns int
	// PromptBudget bounds the estimated prompt size in tokens. History is
	// dropped oldest-first to stay inside it; the current message and data
	// are never dropped.
	PromptBudget int
	// MaxCompletionTokens is passed through to the model request.
	MaxCompletionTokens int64
	// Counter estimates prompt tokens for budget trimming.
	Counter TokenCounter
	// Logger receives per-call diagnostics.
	Logger logging.Logger
}

// Agent produces the reply plan for one turn with exactly one model call.
type Agent struct {
	model               model.Model
	maxHistoryTurns     int
	promptBudget        int
	maxCompletionTokens int64
	counter             TokenCounter
	logger              logging.Logger
}

// New constructs an Agent over a model.
func New(m model.Model, optFns ...func(o *Options)) *Agent {
	opts := Options{
		MaxHistoryTurns:     5,
		PromptBudget:        3000,
		MaxCompletionTokens: 512,
		Counter:             HeuristicCounter{},
		Logger:              logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Agent{
		model:               m,
		maxHistoryTurns:     opts.MaxHistoryTurns,
		promptBudget:        opts.PromptBudget,
		maxCompletionTokens: opts.MaxCompletionTokens,
		counter:             opts.Counter,
		logger:              opts.Logger,
	}
}

// Respond builds the prompt from session history, the inbound message and
// the gathered data, runs one completion, and shapes the answer into a
// ReplyPlan. A failed completion yields the apology plan, never an error.
func (a *Agent) Respond(ctx context.Context, history []core.Turn, msg core.InboundMessage, results []core.DataResult) core.ReplyPlan {
	req := a.buildRequest(history, msg, results)

	start := time.Now()
	resp, err := a.model.Complete(ctx, req)
	duration := time.Since(start)

	if err != nil {
		a.logger.Error("model call failed", "model", a.model.Info().Name, "duration", duration, "error", err)
		if ml, ok := a.logger.(modelCallLogger); ok {
			ml.LogModelCall(a.model.Info().Name, 0, duration, false, err)
		}
		return core.ReplyPlan{Blocks: []string{fallbackReply}, FollowUpHint: followUpHint(results)}
	}
	a.logger.Debug("model call", "model", a.model.Info().Name, "duration", duration, "finish_reason", resp.FinishReason)
	if ml, ok := a.logger.(modelCallLogger); ok {
		tokens := 0
		if resp.Usage != nil {
			tokens = resp.Usage.TotalTokens
		}
		ml.LogModelCall(a.model.Info().Name, tokens, duration, true, nil)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return core.ReplyPlan{Blocks: []string{fallbackReply}, FollowUpHint: followUpHint(results)}
	}
	return core.ReplyPlan{Blocks: splitBlocks(text), FollowUpHint: followUpHint(results)}
}

func (a *Agent) buildRequest(history []core.Turn, msg core.InboundMessage, results []core.DataResult) model.Request {
	current := model.Message{Role: "user", Text: buildUserMessage(msg.Text, results)}

	budget := a.promptBudget - a.counter.Count(systemPrompt) - a.counter.Count(current.Text)

	// Replay history newest-first until the budget runs out, then restore
	// chronological order. Each turn contributes its question and reply.
	var kept []model.Message
	turns := history
	if len(turns) > a.maxHistoryTurns {
		turns = turns[len(turns)-a.maxHistoryTurns:]
	}
	for i := len(turns) - 1; i >= 0; i-- {
		t := turns[i]
		pair := []model.Message{
			{Role: "user", Text: t.Message},
			{Role: "assistant", Text: t.ReplyText},
		}
		cost := a.counter.Count(pair[0].Text) + a.counter.Count(pair[1].Text)
		if cost > budget {
			break
		}
		budget -= cost
		kept = append(pair, kept...)
	}

	return model.Request{
		System:    systemPrompt,
		Messages:  append(kept, current),
		MaxTokens: a.maxCompletionTokens,
	}
}

// buildUserMessage frames the gathered data ahead of the farmer's question.
// Failed lookups appear as unavailable lines so the model acknowledges the
// gap instead of hallucinating around it.
func buildUserMessage(text string, results []core.DataResult) string {
	if len(results) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString("[DATA]\n")
	for _, r := range results {
		b.WriteString(r.Summary())
		b.WriteString("\n")
	}
	b.WriteString("[/DATA]\n")
	b.WriteString(text)
	return b.String()
}

// followUpHint records which lookups failed, so the next turn's reply can
// offer to retry them.
func followUpHint(results []core.DataResult) string {
	var failed []string
	for _, r := range results {
		if !r.OK() {
			failed = append(failed, string(r.Tag))
		}
	}
	if len(failed) == 0 {
		return ""
	}
	return "retry " + strings.Join(failed, ", ") + " lookup"
}

// splitBlocks breaks a completion into paragraph blocks for the composer.
func splitBlocks(text string) []string {
	parts := strings.Split(text, "\n\n")
	blocks := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			blocks = append(blocks, p)
		}
	}
	return blocks
}
