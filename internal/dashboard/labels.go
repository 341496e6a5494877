package dashboard

import "github.com/kjstillabower/crop-advisory-service/internal/validation"

// Display chrome. Data lives in the content tables; these are only the fixed
// words around it.
const (
	appTitle         = "Smart Crop Advisory"
	appSubtitle      = "AI-Powered Farming Assistant"
	alertsLabel      = "Alerts"
	pestStatus       = "Analysis in Progress"
	pestStatusDetail = "AI is examining your image..."
	pestProgress     = 75
	chatPlaceholder  = "Ask about crops, weather, fertilizers, pest control..."
	marketComparison = "vs last week"
)

var tabLabels = map[string]string{
	validation.TabAdvisory: "Crop Advisory",
	validation.TabPest:     "Pest Detection",
	validation.TabWeather:  "Weather",
	validation.TabMarket:   "Market Prices",
	validation.TabChat:     "AI Assistant",
}

var cardCaptions = struct {
	temperature, humidity, rainfall, wind string
}{
	temperature: "Perfect for crops",
	humidity:    "Optimal level",
	rainfall:    "This week",
	wind:        "Gentle breeze",
}
