package content

import "github.com/kjstillabower/crop-advisory-service/internal/models"

// The tables below are the dashboard's entire data set. Display code reads
// them through a Provider and never embeds literals of its own.

var currentWeather = models.WeatherSnapshot{
	Temperature: 28,
	Humidity:    65,
	Rainfall:    12,
	WindSpeed:   8,
}

var forecastLabels = []string{"Today", "Tomorrow", "Day 3", "Day 4", "Day 5"}

const (
	forecastBaseHigh   = 28
	forecastLowSpread  = 8
	forecastConditions = "Sunny"
)

var weatherAlerts = []models.WeatherAlert{
	{Title: "Heavy Rain Alert", Message: "Expected 50mm rainfall in next 48 hours. Prepare drainage.", Level: models.AlertLevelWarning},
	{Title: "Temperature Drop", Message: "Night temperature may drop to 15°C. Protect sensitive crops.", Level: models.AlertLevelInfo},
}

var marketPrices = []models.MarketPriceEntry{
	{Crop: "Rice", Price: "₹2,100/quintal", Trend: models.TrendUp, Change: "+2.5%"},
	{Crop: "Wheat", Price: "₹2,350/quintal", Trend: models.TrendDown, Change: "-1.2%"},
	{Crop: "Cotton", Price: "₹5,800/quintal", Trend: models.TrendUp, Change: "+3.8%"},
	{Crop: "Sugarcane", Price: "₹310/quintal", Trend: models.TrendStable, Change: "0%"},
}

var recommendations = []models.CropRecommendation{
	{Crop: "Tomato", Season: "Kharif", MatchPercent: 95},
	{Crop: "Rice", Season: "Monsoon", MatchPercent: 88},
	{Crop: "Cotton", Season: "Summer", MatchPercent: 82},
}

var fertilizerSchedule = []models.FertilizerTask{
	{Name: "NPK Fertilizer", Timing: "Apply in 2 days", Status: models.TaskPending},
	{Name: "Urea Application", Timing: "Apply in 1 week", Status: models.TaskScheduled},
	{Name: "Organic Compost", Timing: "Applied 3 days ago", Status: models.TaskCompleted},
}

var transcript = []models.ChatLine{
	{Speaker: models.SpeakerAssistant, Text: "Hello! I'm your smart farming assistant. How can I help you today?"},
	{Speaker: models.SpeakerUser, Text: "What's the best time to plant tomatoes?"},
	{Speaker: models.SpeakerAssistant, Text: "Based on your location and current weather, the best time to plant tomatoes is during the Kharif season (June-July). The soil temperature should be around 16-29°C for optimal germination."},
}

var quickTopics = []string{"Crop recommendations", "Fertilizer advice", "Pest control", "Weather forecast"}

// Languages is the fixed option set of the header selector, in display order.
var Languages = []models.Language{
	{Code: "english", Label: "English"},
	{Code: "hindi", Label: "हिंदी"},
	{Code: "bengali", Label: "বাংলা"},
	{Code: "tamil", Label: "தமிழ்"},
}

// BuildForecast derives the five-day outlook from the day labels: day i has
// high baseHigh+i and low baseHigh-lowSpread+i.
func BuildForecast(labels []string, baseHigh, lowSpread float64, conditions string) []models.ForecastDay {
	days := make([]models.ForecastDay, len(labels))
	for i, label := range labels {
		days[i] = models.ForecastDay{
			Label:      label,
			High:       baseHigh + float64(i),
			Low:        baseHigh - lowSpread + float64(i),
			Conditions: conditions,
		}
	}
	return days
}
