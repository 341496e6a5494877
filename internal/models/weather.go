package models

// WeatherSnapshot is the current-conditions record shown on the summary cards.
type WeatherSnapshot struct {
	Temperature float64 `json:"temperature"` // °C
	Humidity    int     `json:"humidity"`    // %
	Rainfall    float64 `json:"rainfall"`    // mm, this week
	WindSpeed   float64 `json:"windSpeed"`   // km/h
}

// ForecastDay is one row of the five-day outlook.
type ForecastDay struct {
	Label      string  `json:"label"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Conditions string  `json:"conditions"`
}

// AlertLevel styles a weather alert.
type AlertLevel string

const (
	AlertLevelWarning AlertLevel = "warning"
	AlertLevelInfo    AlertLevel = "info"
)

type WeatherAlert struct {
	Title   string     `json:"title"`
	Message string     `json:"message"`
	Level   AlertLevel `json:"level"`
}
