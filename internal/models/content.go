package models

// Language is one entry of the header language selector.
type Language struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Content bundles every static table the dashboard renders. It is the unit
// a content provider returns and the content cache stores.
type Content struct {
	Weather         WeatherSnapshot      `json:"weather"`
	Forecast        []ForecastDay        `json:"forecast"`
	Alerts          []WeatherAlert       `json:"alerts"`
	MarketPrices    []MarketPriceEntry   `json:"marketPrices"`
	Recommendations []CropRecommendation `json:"recommendations"`
	Fertilizer      []FertilizerTask     `json:"fertilizer"`
	Transcript      []ChatLine           `json:"transcript"`
	QuickTopics     []string             `json:"quickTopics"`
	Languages       []Language           `json:"languages"`
}
