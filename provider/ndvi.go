package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/agriaid/agriaid/core"
)

// NDVIOptions configure the vegetation-health service client.
type NDVIOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	// PeriodDays is the analysis window requested from the service.
	PeriodDays int
}

// NDVI queries the vegetation-health analysis service, which reduces
// satellite NDVI imagery for a ward to a single summary per request.
type NDVI struct {
	baseURL    string
	client     *http.Client
	periodDays int
}

// NewNDVI constructs the NDVI provider.
func NewNDVI(optFns ...func(o *NDVIOptions)) *NDVI {
	opts := NDVIOptions{
		HTTPClient: http.DefaultClient,
		PeriodDays: 30,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &NDVI{baseURL: opts.BaseURL, client: opts.HTTPClient, periodDays: opts.PeriodDays}
}

// Tag implements Provider.
func (n *NDVI) Tag() core.ProviderTag { return core.TagNDVI }

type ndviResponse struct {
	MeanNDVI       float64 `json:"mean_ndvi"`
	MinNDVI        float64 `json:"min_ndvi"`
	MaxNDVI        float64 `json:"max_ndvi"`
	Trend          string  `json:"trend"`
	Interpretation string  `json:"interpretation"`
}

// Fetch implements Provider.
func (n *NDVI) Fetch(ctx context.Context, q core.Query) (string, error) {
	if n.baseURL == "" {
		return "", Reject("vegetation analysis service is not configured")
	}
	if q.Ward == "" && !q.HasLocation() {
		return "", Reject("no registered farm location; ask the farmer to register their ward")
	}

	params := url.Values{}
	if q.Ward != "" {
		params.Set("ward", q.Ward)
	}
	if q.HasLocation() {
		params.Set("lat", fmt.Sprintf("%.4f", q.Lat))
		params.Set("lon", fmt.Sprintf("%.4f", q.Lon))
	}
	params.Set("period_days", fmt.Sprintf("%d", n.periodDays))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/analysis?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build ndvi request: %w", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", Reject("no vegetation data for ward %q", q.Ward)
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return "", Reject("vegetation service rejected the request (%d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vegetation service returned %d", resp.StatusCode)
	}

	var data ndviResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode ndvi response: %w", err)
	}

	s := fmt.Sprintf("Vegetation health (last %d days): mean NDVI %.2f (range %.2f-%.2f), trend %s.",
		n.periodDays, data.MeanNDVI, data.MinNDVI, data.MaxNDVI, data.Trend)
	if data.Interpretation != "" {
		s += " " + data.Interpretation
	}
	return s, nil
}
