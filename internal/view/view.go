// Package view holds the displayed weather fields. A View is owned by the UI loop
// and is not safe for concurrent use; other goroutines read Snapshot copies.
package view

import (
	"fmt"
	"strconv"

	"github.com/williamchen0301-sh/my-weather-portfolio/internal/models"
)

// Placeholder fills every field before the first successful lookup.
const Placeholder = "--"

// Snapshot is a copy of the displayed fields.
type Snapshot struct {
	City        string `json:"city"`
	Temperature string `json:"temperature"`
	Condition   string `json:"condition"`
	Details     string `json:"details"`
	Status      string `json:"status"`
}

// View is the set of display regions plus the status line.
type View struct {
	fields Snapshot
}

// New returns a View showing placeholders and a "Ready" status.
func New() *View {
	return &View{fields: Snapshot{
		City:        Placeholder,
		Temperature: Placeholder + "°F",
		Condition:   Placeholder,
		Details:     Placeholder,
		Status:      "Ready",
	}}
}

// Apply replaces every field from reading in one assignment. timeFormat is a
// time.Format layout for the status line.
func (v *View) Apply(reading models.WeatherReading, provider, timeFormat string) {
	v.fields = Render(reading, provider, timeFormat)
}

// Snapshot returns a copy of the current fields.
func (v *View) Snapshot() Snapshot {
	return v.fields
}

// Render formats reading into display fields without touching any View.
func Render(reading models.WeatherReading, provider, timeFormat string) Snapshot {
	return Snapshot{
		City:        reading.CityName,
		Temperature: formatNumber(reading.TemperatureF) + "°F",
		Condition:   reading.Condition,
		Details: fmt.Sprintf("Feels like: %s°F | Humidity: %d%% | Wind: %s mph",
			formatNumber(reading.FeelsLikeF), reading.HumidityPercent, formatNumber(reading.WindSpeedMph)),
		Status: fmt.Sprintf("Last updated: %s (%s)", reading.RetrievedAt.Format(timeFormat), provider),
	}
}

// formatNumber prints whole numbers without a decimal point and others as-is.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
