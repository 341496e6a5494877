package content

import (
	"context"

	"github.com/kjstillabower/crop-advisory-service/internal/models"
)

// WeatherSection is what a weather data provider supplies.
type WeatherSection struct {
	Current  models.WeatherSnapshot
	Forecast []models.ForecastDay
	Alerts   []models.WeatherAlert
}

// AdvisorySection is what the crop advisory source supplies.
type AdvisorySection struct {
	Recommendations []models.CropRecommendation
	Fertilizer      []models.FertilizerTask
}

// AssistantSection is the chat tab's fixed material.
type AssistantSection struct {
	Transcript  []models.ChatLine
	QuickTopics []string
}

type WeatherProvider interface {
	Weather(ctx context.Context) (WeatherSection, error)
}

type MarketProvider interface {
	MarketPrices(ctx context.Context) ([]models.MarketPriceEntry, error)
}

type AdvisoryProvider interface {
	Advisory(ctx context.Context) (AdvisorySection, error)
}

type AssistantProvider interface {
	Assistant(ctx context.Context) (AssistantSection, error)
}

// Sources groups one provider per dashboard section. Swapping the static
// tables for a live feed means replacing a single field.
type Sources struct {
	Weather   WeatherProvider
	Market    MarketProvider
	Advisory  AdvisoryProvider
	Assistant AssistantProvider
}

// StaticProvider serves the built-in tables. Every call returns fresh copies
// so callers may not mutate the shared tables.
type StaticProvider struct{}

// StaticSources returns Sources backed entirely by StaticProvider.
func StaticSources() Sources {
	p := StaticProvider{}
	return Sources{Weather: p, Market: p, Advisory: p, Assistant: p}
}

func (StaticProvider) Weather(ctx context.Context) (WeatherSection, error) {
	if err := ctx.Err(); err != nil {
		return WeatherSection{}, err
	}
	return WeatherSection{
		Current:  currentWeather,
		Forecast: BuildForecast(forecastLabels, forecastBaseHigh, forecastLowSpread, forecastConditions),
		Alerts:   append([]models.WeatherAlert(nil), weatherAlerts...),
	}, nil
}

func (StaticProvider) MarketPrices(ctx context.Context) ([]models.MarketPriceEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]models.MarketPriceEntry(nil), marketPrices...), nil
}

func (StaticProvider) Advisory(ctx context.Context) (AdvisorySection, error) {
	if err := ctx.Err(); err != nil {
		return AdvisorySection{}, err
	}
	return AdvisorySection{
		Recommendations: append([]models.CropRecommendation(nil), recommendations...),
		Fertilizer:      append([]models.FertilizerTask(nil), fertilizerSchedule...),
	}, nil
}

func (StaticProvider) Assistant(ctx context.Context) (AssistantSection, error) {
	if err := ctx.Err(); err != nil {
		return AssistantSection{}, err
	}
	return AssistantSection{
		Transcript:  append([]models.ChatLine(nil), transcript...),
		QuickTopics: append([]string(nil), quickTopics...),
	}, nil
}
