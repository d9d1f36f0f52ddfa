package core

// ProviderTag identifies one of the closed set of external data capabilities.
// New providers are additions to this set plus one Fetch implementation; no
// other code needs to change.
type ProviderTag string

const (
	// TagWeather is the current/forecast weather lookup.
	TagWeather ProviderTag = "weather"
	// TagNDVI is the vegetation-health (NDVI) lookup.
	TagNDVI ProviderTag = "ndvi"
	// TagSoil is the soil-properties lookup.
	TagSoil ProviderTag = "soil"
	// TagCropCalendar is the planting-window / crop calendar lookup.
	TagCropCalendar ProviderTag = "crop_calendar"
	// TagAgrovet is the agrovet directory / contact lookup.
	TagAgrovet ProviderTag = "agrovet"
)

// Query carries the parameters a provider needs to shape its upstream
// request. Fields are filled best-effort by the router: location comes from
// the farmer's registration when available, Raw always carries the original
// message text for providers that do their own extraction.
type Query struct {
	FarmerID string  `json:"farmer_id"`
	Ward     string  `json:"ward,omitempty"`
	County   string  `json:"county,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lon      float64 `json:"lon,omitempty"`
	Crop     string  `json:"crop,omitempty"`
	Raw      string  `json:"raw,omitempty"`
}

// HasLocation reports whether the query carries usable coordinates.
func (q Query) HasLocation() bool { return q.Lat != 0 || q.Lon != 0 }

// ProviderCall is one requested provider invocation within an IntentPlan.
type ProviderCall struct {
	Tag   ProviderTag `json:"tag"`
	Query Query       `json:"query"`
}

// IntentPlan is the transient routing decision for a single inbound message:
// an ordered set of required provider calls plus whether the dialogue agent
// (LLM) is needed to produce the reply. It is never persisted.
type IntentPlan struct {
	Calls         []ProviderCall `json:"calls"`
	RequiresModel bool           `json:"requires_model"`
}

// Tags returns the provider tags of the planned calls in order.
func (p IntentPlan) Tags() []ProviderTag {
	tags := make([]ProviderTag, 0, len(p.Calls))
	for _, c := range p.Calls {
		tags = append(tags, c.Tag)
	}
	return tags
}

// DataStatus discriminates the DataResult union.
type DataStatus string

const (
	// DataSuccess means the provider returned a usable payload.
	DataSuccess DataStatus = "success"
	// DataUnavailable means the provider failed or rejected the request.
	DataUnavailable DataStatus = "unavailable"
	// DataTimeout means the provider did not answer within its deadline.
	DataTimeout DataStatus = "timeout"
)

// DataResult is the tagged outcome of a single provider call. Exactly one of
// the variants applies: Success carries Payload, Unavailable carries Reason,
// Timeout carries neither. Provider failures never escape the gateway as
// errors; they become DataResults.
type DataResult struct {
	Tag     ProviderTag `json:"tag"`
	Status  DataStatus  `json:"status"`
	Payload string      `json:"payload,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

// SuccessResult builds a Success DataResult for the given provider.
func SuccessResult(tag ProviderTag, payload string) DataResult {
	return DataResult{Tag: tag, Status: DataSuccess, Payload: payload}
}

// UnavailableResult builds an Unavailable DataResult with a human-readable reason.
func UnavailableResult(tag ProviderTag, reason string) DataResult {
	return DataResult{Tag: tag, Status: DataUnavailable, Reason: reason}
}

// TimeoutResult builds a Timeout DataResult.
func TimeoutResult(tag ProviderTag) DataResult {
	return DataResult{Tag: tag, Status: DataTimeout}
}

// OK reports whether the result carries a usable payload.
func (r DataResult) OK() bool { return r.Status == DataSuccess }

// Summary renders the result for prompt construction and turn records.
// Failed lookups are summarized rather than omitted so the dialogue agent can
// acknowledge the gap instead of silently ignoring it.
func (r DataResult) Summary() string {
	switch r.Status {
	case DataSuccess:
		return r.Payload
	case DataTimeout:
		return string(r.Tag) + " data unavailable (lookup timed out)"
	default:
		if r.Reason != "" {
			return string(r.Tag) + " data unavailable (" + r.Reason + ")"
		}
		return string(r.Tag) + " data unavailable"
	}
}

// ReplyPlan is the transient structured output of the dialogue agent: an
// ordered list of content blocks to be rendered into SMS segments, plus an
// optional hint carried into the next turn's context.
type ReplyPlan struct {
	Blocks       []string `json:"blocks"`
	FollowUpHint string   `json:"follow_up_hint,omitempty"`
}

// Empty reports whether the plan has no non-blank content block.
func (p ReplyPlan) Empty() bool {
	for _, b := range p.Blocks {
		if b != "" {
			return false
		}
	}
	return true
}
