package provider

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agriaid/agriaid/core"
)

//go:embed calendar.yaml
var defaultCalendarYAML []byte

// calendarEntry is one county's planting calendar.
type calendarEntry struct {
	County     string         `yaml:"county"`
	LongRains  string         `yaml:"long_rains"`
	ShortRains string         `yaml:"short_rains"`
	Crops      []calendarCrop `yaml:"crops"`
}

type calendarCrop struct {
	Name    string `yaml:"name"`
	Plant   string `yaml:"plant"`
	Harvest string `yaml:"harvest"`
}

type calendarFile struct {
	Defaults calendarEntry   `yaml:"defaults"`
	Counties []calendarEntry `yaml:"counties"`
}

// CropCalendar answers planting-window questions from a local dataset of
// Kenyan rain seasons and crop windows. It is the only provider with no
// upstream; lookups never time out.
type CropCalendar struct {
	defaults calendarEntry
	counties map[string]calendarEntry
}

// NewCropCalendar loads the embedded dataset.
func NewCropCalendar() (*CropCalendar, error) {
	return NewCropCalendarFromYAML(defaultCalendarYAML)
}

// NewCropCalendarFromYAML loads a caller-provided dataset, for deployments
// that maintain their own calendar.
func NewCropCalendarFromYAML(data []byte) (*CropCalendar, error) {
	var file calendarFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse crop calendar: %w", err)
	}
	c := &CropCalendar{defaults: file.Defaults, counties: make(map[string]calendarEntry, len(file.Counties))}
	for _, entry := range file.Counties {
		c.counties[strings.ToLower(entry.County)] = entry
	}
	return c, nil
}

// Tag implements Provider.
func (c *CropCalendar) Tag() core.ProviderTag { return core.TagCropCalendar }

// Fetch implements Provider. County comes from the registration; the crop is
// taken from the query or scanned out of the raw message text.
func (c *CropCalendar) Fetch(_ context.Context, q core.Query) (string, error) {
	entry, localized := c.counties[strings.ToLower(q.County)]
	if !localized {
		entry = c.defaults
	}

	crop := q.Crop
	if crop == "" {
		crop = findCrop(q.Raw, entry.Crops)
	}

	place := entry.County
	if place == "" {
		place = "most of Kenya"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Planting calendar for %s: long rains %s, short rains %s.", place, entry.LongRains, entry.ShortRains)

	if crop != "" {
		for _, cc := range entry.Crops {
			if strings.EqualFold(cc.Name, crop) {
				fmt.Fprintf(&b, " %s: plant %s, harvest %s.", title(cc.Name), cc.Plant, cc.Harvest)
				return b.String(), nil
			}
		}
		fmt.Fprintf(&b, " No specific window recorded for %s; plant with the onset of the nearest rain season.", crop)
		return b.String(), nil
	}

	for _, cc := range entry.Crops {
		fmt.Fprintf(&b, " %s: plant %s.", title(cc.Name), cc.Plant)
	}
	return b.String(), nil
}

// findCrop scans the message for a known crop name.
func findCrop(text string, crops []calendarCrop) string {
	lower := strings.ToLower(text)
	for _, cc := range crops {
		if strings.Contains(lower, strings.ToLower(cc.Name)) {
			return cc.Name
		}
	}
	return ""
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
