package router

import (
	"context"
	"strings"

	"github.com/agriaid/agriaid/core"
	"github.com/agriaid/agriaid/logging"
)

// routingOrder fixes the order provider calls appear in a plan, so identical
// messages always produce identical plans.
var routingOrder = []core.ProviderTag{
	core.TagWeather,
	core.TagNDVI,
	core.TagSoil,
	core.TagCropCalendar,
	core.TagAgrovet,
}

// keywords maps each provider tag to the message tokens that trigger it.
// Matching is case-insensitive on whole words.
var keywords = map[core.ProviderTag][]string{
	core.TagWeather:      {"weather", "rain", "rains", "raining", "forecast", "temperature", "sunny", "drought", "mvua"},
	core.TagNDVI:         {"ndvi", "vegetation", "greenness", "satellite"},
	core.TagSoil:         {"soil", "ph", "fertility", "fertile", "nutrients", "acidity", "udongo"},
	core.TagCropCalendar: {"plant", "planting", "sow", "sowing", "season", "calendar", "harvest", "panda"},
	core.TagAgrovet:      {"agrovet", "agrovets", "dealer", "dealers", "shop", "supplies", "seeds", "fertilizer", "pesticide", "duka"},
}

// Options configure a Router.
type Options struct {
	// Registrations localizes queries with the farmer's registered ward and
	// coordinates. Optional; without it queries carry only the raw text.
	Registrations core.RegistrationLookup
	// Logger receives routing diagnostics.
	Logger logging.Logger
}

// Router turns a message into an IntentPlan.
type Router struct {
	registrations core.RegistrationLookup
	logger        logging.Logger
}

// New constructs a Router.
func New(optFns ...func(o *Options)) *Router {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Router{registrations: opts.Registrations, logger: opts.Logger}
}

// Route classifies the message and builds the provider calls it requires.
// Routing is infallible: a message that matches nothing still yields a valid
// plan that goes straight to the dialogue agent. Registration lookup failures
// degrade to an unlocalized query rather than failing the turn.
func (r *Router) Route(ctx context.Context, msg core.InboundMessage) core.IntentPlan {
	matched := classify(msg.Text)

	query := r.buildQuery(ctx, msg)

	var calls []core.ProviderCall
	for _, tag := range routingOrder {
		if matched[tag] {
			calls = append(calls, core.ProviderCall{Tag: tag, Query: query})
		}
	}

	plan := core.IntentPlan{
		Calls: calls,
		// A pure directory lookup renders directly; everything else,
		// including unmatched chit-chat, goes through the model.
		RequiresModel: !(len(calls) == 1 && calls[0].Tag == core.TagAgrovet),
	}
	r.logger.Debug("routed message", "farmer_id", msg.FarmerID, "tags", tagStrings(plan.Tags()), "requires_model", plan.RequiresModel)
	return plan
}

func (r *Router) buildQuery(ctx context.Context, msg core.InboundMessage) core.Query {
	q := core.Query{FarmerID: msg.FarmerID, Raw: msg.Text}
	if r.registrations == nil {
		return q
	}
	reg, err := r.registrations.GetRegistration(ctx, msg.FarmerID)
	if err != nil {
		// Unregistered or unreachable registry: route anyway and let each
		// provider decide whether it can answer without a location.
		r.logger.Debug("registration lookup failed", "farmer_id", msg.FarmerID, "error", err)
		return q
	}
	q.Ward = reg.Ward
	q.County = reg.County
	q.Lat = reg.Lat
	q.Lon = reg.Lon
	return q
}

// classify reports which provider tags the message's words trigger.
func classify(text string) map[core.ProviderTag]bool {
	words := tokenize(text)
	matched := make(map[core.ProviderTag]bool)
	for tag, kws := range keywords {
		for _, kw := range kws {
			if words[kw] {
				matched[tag] = true
				break
			}
		}
	}
	return matched
}

// tokenize lowercases the text and splits it into words, stripping
// punctuation so "rain?" still matches "rain".
func tokenize(text string) map[string]bool {
	words := make(map[string]bool)
	for _, f := range strings.Fields(strings.ToLower(text)) {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
		})
		if w != "" {
			words[w] = true
		}
	}
	return words
}

func tagStrings(tags []core.ProviderTag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}
