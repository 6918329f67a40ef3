package render

import (
	"encoding/json"
	"fmt"

	"github.com/yeti-teti/Caesarion/pkg/api"
)

// Weather renders get_current_weather results as a small card. The result
// payload is the open-meteo forecast response.
type Weather struct{}

type weatherResult struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Timezone     string  `json:"timezone"`
	CurrentUnits struct {
		Temperature string `json:"temperature_2m"`
	} `json:"current_units"`
	Current struct {
		Time        string  `json:"time"`
		Temperature float64 `json:"temperature_2m"`
	} `json:"current"`
}

// Render draws the weather card.
func (Weather) Render(inv api.ToolInvocation) string {
	var w weatherResult
	if err := json.Unmarshal(inv.Result, &w); err != nil {
		return panelStyle.Render(prettyJSON(inv.Result))
	}

	unit := w.CurrentUnits.Temperature
	if unit == "" {
		unit = "°C"
	}

	body := fmt.Sprintf("%.1f%s\n", w.Current.Temperature, unit) +
		dimStyle.Render(fmt.Sprintf("%.2f, %.2f  %s", w.Latitude, w.Longitude, w.Timezone))
	return panelStyle.Render(body)
}

// Placeholder draws the skeleton card shown while the lookup runs.
func (Weather) Placeholder() string {
	return panelStyle.Render(dimStyle.Render("fetching weather..."))
}
