package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/agriaid/agriaid/core"
)

// WeatherOptions configure the OpenWeather One Call client.
type WeatherOptions struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Weather fetches current conditions and a short forecast from the
// OpenWeather One Call API for the farmer's registered coordinates.
type Weather struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewWeather constructs the weather provider.
func NewWeather(optFns ...func(o *WeatherOptions)) *Weather {
	opts := WeatherOptions{
		BaseURL:    "https://api.openweathermap.org/data/3.0/onecall",
		HTTPClient: http.DefaultClient,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Weather{baseURL: opts.BaseURL, apiKey: opts.APIKey, client: opts.HTTPClient}
}

// Tag implements Provider.
func (w *Weather) Tag() core.ProviderTag { return core.TagWeather }

type oneCallResponse struct {
	Current struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
		Weather  []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"current"`
	Daily []struct {
		Temp struct {
			Min float64 `json:"min"`
			Max float64 `json:"max"`
		} `json:"temp"`
		Pop     float64 `json:"pop"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"daily"`
}

// Fetch implements Provider. It requires registered coordinates; farmers
// without a location get an explicit rejection the reply can explain.
func (w *Weather) Fetch(ctx context.Context, q core.Query) (string, error) {
	if !q.HasLocation() {
		return "", Reject("no registered farm location; ask the farmer to register their ward")
	}

	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%.4f", q.Lat))
	params.Set("lon", fmt.Sprintf("%.4f", q.Lon))
	params.Set("appid", w.apiKey)
	params.Set("units", "metric")
	params.Set("exclude", "minutely,hourly,alerts")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build weather request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", Reject("weather service rejected the request (%d): %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("weather service returned %d", resp.StatusCode)
	}

	var data oneCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode weather response: %w", err)
	}
	return summarizeWeather(q, data), nil
}

func summarizeWeather(q core.Query, data oneCallResponse) string {
	place := q.Ward
	if place == "" {
		place = q.County
	}
	if place == "" {
		place = "your area"
	}

	desc := "no description"
	if len(data.Current.Weather) > 0 {
		desc = data.Current.Weather[0].Description
	}
	s := fmt.Sprintf("Weather for %s: now %.0fC, %s, humidity %d%%.", place, data.Current.Temp, desc, data.Current.Humidity)

	labels := []string{"Today", "Tomorrow"}
	for i, d := range data.Daily {
		if i >= len(labels) {
			break
		}
		dayDesc := ""
		if len(d.Weather) > 0 {
			dayDesc = d.Weather[0].Description + ", "
		}
		s += fmt.Sprintf(" %s: %.0f-%.0fC, %s%.0f%% chance of rain.", labels[i], d.Temp.Min, d.Temp.Max, dayDesc, d.Pop*100)
	}
	return s
}
