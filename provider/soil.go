package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/agriaid/agriaid/core"
)

// SoilOptions configure the ISRIC SoilGrids client.
type SoilOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	// Properties to request; defaults cover the ones useful for planting
	// advice (pH, organic carbon, texture fractions).
	Properties []string
}

// Soil fetches topsoil properties from the SoilGrids REST API for the
// farmer's registered coordinates.
type Soil struct {
	baseURL    string
	client     *http.Client
	properties []string
}

// NewSoil constructs the soil provider.
func NewSoil(optFns ...func(o *SoilOptions)) *Soil {
	opts := SoilOptions{
		BaseURL:    "https://rest.isric.org/soilgrids/v2.0",
		HTTPClient: http.DefaultClient,
		Properties: []string{"phh2o", "soc", "clay", "sand"},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Soil{baseURL: opts.BaseURL, client: opts.HTTPClient, properties: opts.Properties}
}

// Tag implements Provider.
func (s *Soil) Tag() core.ProviderTag { return core.TagSoil }

type soilGridsResponse struct {
	Properties struct {
		Layers []struct {
			Name        string `json:"name"`
			UnitMeasure struct {
				DFactor     float64 `json:"d_factor"`
				TargetUnits string  `json:"target_units"`
				MappedUnits string  `json:"mapped_units"`
			} `json:"unit_measure"`
			Depths []struct {
				Label  string `json:"label"`
				Values struct {
					Mean *float64 `json:"mean"`
				} `json:"values"`
			} `json:"depths"`
		} `json:"layers"`
	} `json:"properties"`
}

// Fetch implements Provider.
func (s *Soil) Fetch(ctx context.Context, q core.Query) (string, error) {
	if !q.HasLocation() {
		return "", Reject("no registered farm location; ask the farmer to register their ward")
	}

	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%.4f", q.Lat))
	params.Set("lon", fmt.Sprintf("%.4f", q.Lon))
	for _, p := range s.properties {
		params.Add("property", p)
	}
	params.Add("depth", "0-5cm")
	params.Add("value", "mean")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/properties/query?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build soil request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return "", Reject("soil service rejected the request (%d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("soil service returned %d", resp.StatusCode)
	}

	var data soilGridsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode soil response: %w", err)
	}
	return summarizeSoil(q, data)
}

// soilLabels maps SoilGrids property names to farmer-friendly labels.
var soilLabels = map[string]string{
	"phh2o": "pH",
	"soc":   "organic carbon",
	"clay":  "clay",
	"sand":  "sand",
	"silt":  "silt",
}

func summarizeSoil(q core.Query, data soilGridsResponse) (string, error) {
	var parts []string
	for _, layer := range data.Properties.Layers {
		label, ok := soilLabels[layer.Name]
		if !ok {
			label = layer.Name
		}
		for _, depth := range layer.Depths {
			if depth.Values.Mean == nil {
				continue
			}
			value := *depth.Values.Mean
			if layer.UnitMeasure.DFactor > 0 {
				value /= layer.UnitMeasure.DFactor
			}
			unit := layer.UnitMeasure.TargetUnits
			if layer.Name == "phh2o" {
				unit = ""
			}
			parts = append(parts, strings.TrimSpace(fmt.Sprintf("%s %.1f%s", label, value, unit)))
			break
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("soil response contained no usable values")
	}

	place := q.Ward
	if place == "" {
		place = "your area"
	}
	return fmt.Sprintf("Topsoil (0-5cm) for %s: %s.", place, strings.Join(parts, ", ")), nil
}
