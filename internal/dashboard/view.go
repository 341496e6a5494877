package dashboard

import (
	"strconv"

	"github.com/kjstillabower/crop-advisory-service/internal/models"
	"github.com/kjstillabower/crop-advisory-service/internal/validation"
)

// View is the fully rendered dashboard.
type View struct {
	SessionID    string               `json:"sessionId"`
	Header       Header               `json:"header"`
	Summary      []SummaryCard        `json:"summary"`
	Tabs         []TabRef             `json:"tabs"`
	DefaultTab   string               `json:"defaultTab"`
	Advisory     AdvisoryTab          `json:"advisory"`
	Pest         PestTab              `json:"pest"`
	Weather      WeatherTab           `json:"weather"`
	Market       MarketTab            `json:"market"`
	Chat         ChatTab              `json:"chat"`
	Notification *models.Notification `json:"notification,omitempty"`
}

type Header struct {
	Title       string            `json:"title"`
	Subtitle    string            `json:"subtitle"`
	Language    string            `json:"language"`
	Languages   []models.Language `json:"languages"`
	AlertsLabel string            `json:"alertsLabel"`
}

type SummaryCard struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Value   string `json:"value"`
	Caption string `json:"caption"`
}

type TabRef struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type AdvisoryTab struct {
	Recommendations []models.CropRecommendation `json:"recommendations"`
	Fertilizer      []models.FertilizerTask     `json:"fertilizer"`
}

type PestTab struct {
	ImagePresent bool                  `json:"imagePresent"`
	Image        *models.UploadedImage `json:"image,omitempty"`
	Status       string                `json:"status,omitempty"`
	StatusDetail string                `json:"statusDetail,omitempty"`
	Progress     int                   `json:"progress,omitempty"`
}

type WeatherTab struct {
	Forecast []models.ForecastDay  `json:"forecast"`
	Alerts   []models.WeatherAlert `json:"alerts"`
}

// MarketRow is a price entry with its badge variant.
type MarketRow struct {
	models.MarketPriceEntry
	Badge      string `json:"badge"`
	Comparison string `json:"comparison"`
}

type MarketTab struct {
	Prices []MarketRow `json:"prices"`
}

type ChatTab struct {
	Transcript  []models.ChatLine `json:"transcript"`
	Draft       string            `json:"draft"`
	Placeholder string            `json:"placeholder"`
	QuickTopics []string          `json:"quickTopics"`
}

// View renders the dashboard. Tables are shown in their stored order; nothing
// is sorted or filtered.
func (d *Dashboard) View() View {
	d.mu.Lock()
	language := d.language
	draft := d.draft
	var img *models.UploadedImage
	if d.pestImage != nil {
		copied := *d.pestImage
		img = &copied
	}
	d.mu.Unlock()

	c := d.content
	v := View{
		SessionID: d.id,
		Header: Header{
			Title:       appTitle,
			Subtitle:    appSubtitle,
			Language:    language,
			Languages:   c.Languages,
			AlertsLabel: alertsLabel,
		},
		Summary:    summaryCards(c.Weather),
		Tabs:       tabRefs(),
		DefaultTab: validation.TabAdvisory,
		Advisory:   AdvisoryTab{Recommendations: c.Recommendations, Fertilizer: c.Fertilizer},
		Pest:       pestTab(img),
		Weather:    WeatherTab{Forecast: c.Forecast, Alerts: c.Alerts},
		Market:     marketTab(c.MarketPrices),
		Chat: ChatTab{
			Transcript:  c.Transcript,
			Draft:       draft,
			Placeholder: chatPlaceholder,
			QuickTopics: c.QuickTopics,
		},
	}
	if n, ok := d.feed.Latest(); ok {
		v.Notification = &n
	}
	return v
}

// Tab renders a single tab's content.
func (d *Dashboard) Tab(id string) (interface{}, error) {
	tab, err := validation.ValidateTab(id)
	if err != nil {
		return nil, err
	}
	v := d.View()
	switch tab {
	case validation.TabAdvisory:
		return v.Advisory, nil
	case validation.TabPest:
		return v.Pest, nil
	case validation.TabWeather:
		return v.Weather, nil
	case validation.TabMarket:
		return v.Market, nil
	default:
		return v.Chat, nil
	}
}

func summaryCards(w models.WeatherSnapshot) []SummaryCard {
	return []SummaryCard{
		{ID: "temperature", Title: "Temperature", Value: formatNumber(w.Temperature) + "°C", Caption: cardCaptions.temperature},
		{ID: "humidity", Title: "Humidity", Value: strconv.Itoa(w.Humidity) + "%", Caption: cardCaptions.humidity},
		{ID: "rainfall", Title: "Rainfall", Value: formatNumber(w.Rainfall) + "mm", Caption: cardCaptions.rainfall},
		{ID: "wind", Title: "Wind Speed", Value: formatNumber(w.WindSpeed) + " km/h", Caption: cardCaptions.wind},
	}
}

func tabRefs() []TabRef {
	refs := make([]TabRef, len(validation.Tabs))
	for i, id := range validation.Tabs {
		refs[i] = TabRef{ID: id, Label: tabLabels[id]}
	}
	return refs
}

func pestTab(img *models.UploadedImage) PestTab {
	if img == nil {
		return PestTab{}
	}
	return PestTab{
		ImagePresent: true,
		Image:        img,
		Status:       pestStatus,
		StatusDetail: pestStatusDetail,
		Progress:     pestProgress,
	}
}

func marketTab(prices []models.MarketPriceEntry) MarketTab {
	rows := make([]MarketRow, len(prices))
	for i, p := range prices {
		rows[i] = MarketRow{MarketPriceEntry: p, Badge: badgeVariant(p.Trend), Comparison: marketComparison}
	}
	return MarketTab{Prices: rows}
}

// badgeVariant maps a price trend to its badge style.
func badgeVariant(t models.Trend) string {
	switch t {
	case models.TrendUp:
		return "default"
	case models.TrendDown:
		return "destructive"
	default:
		return "secondary"
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
