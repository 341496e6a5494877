package dashboard

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/kjstillabower/crop-advisory-service/internal/models"
)

func TestView_SummaryCards(t *testing.T) {
	d := newTestDashboard(t, time.Hour, time.Hour)

	want := []SummaryCard{
		{ID: "temperature", Title: "Temperature", Value: "28°C", Caption: "Perfect for crops"},
		{ID: "humidity", Title: "Humidity", Value: "65%", Caption: "Optimal level"},
		{ID: "rainfall", Title: "Rainfall", Value: "12mm", Caption: "This week"},
		{ID: "wind", Title: "Wind Speed", Value: "8 km/h", Caption: "Gentle breeze"},
	}
	if diff := cmp.Diff(want, d.View().Summary); diff != "" {
		t.Errorf("Summary mismatch (-want +got):\n%s", diff)
	}
}

func TestView_TabsInFixedOrder(t *testing.T) {
	d := newTestDashboard(t, time.Hour, time.Hour)

	want := []TabRef{
		{ID: "advisory", Label: "Crop Advisory"},
		{ID: "pest", Label: "Pest Detection"},
		{ID: "weather", Label: "Weather"},
		{ID: "market", Label: "Market Prices"},
		{ID: "chat", Label: "AI Assistant"},
	}
	v := d.View()
	if diff := cmp.Diff(want, v.Tabs); diff != "" {
		t.Errorf("Tabs mismatch (-want +got):\n%s", diff)
	}
	if v.DefaultTab != "advisory" {
		t.Errorf("DefaultTab = %q, want advisory", v.DefaultTab)
	}
}

func TestView_ForecastFiveDays(t *testing.T) {
	d := newTestDashboard(t, time.Hour, time.Hour)

	labels := []string{"Today", "Tomorrow", "Day 3", "Day 4", "Day 5"}
	forecast := d.View().Weather.Forecast
	if len(forecast) != len(labels) {
		t.Fatalf("len(Forecast) = %d, want %d", len(forecast), len(labels))
	}
	for i, day := range forecast {
		if day.Label != labels[i] {
			t.Errorf("day %d label = %q, want %q", i, day.Label, labels[i])
		}
		if day.High != float64(28+i) || day.Low != float64(20+i) {
			t.Errorf("day %d = %v/%v, want %d/%d", i, day.High, day.Low, 28+i, 20+i)
		}
		if day.Conditions != "Sunny" {
			t.Errorf("day %d conditions = %q, want Sunny", i, day.Conditions)
		}
	}
}

func TestView_MarketPricesInvariantAcrossRenders(t *testing.T) {
	d := newTestDashboard(t, time.Hour, time.Hour)

	want := []MarketRow{
		{MarketPriceEntry: models.MarketPriceEntry{Crop: "Rice", Price: "₹2,100/quintal", Trend: models.TrendUp, Change: "+2.5%"}, Badge: "default", Comparison: "vs last week"},
		{MarketPriceEntry: models.MarketPriceEntry{Crop: "Wheat", Price: "₹2,350/quintal", Trend: models.TrendDown, Change: "-1.2%"}, Badge: "destructive", Comparison: "vs last week"},
		{MarketPriceEntry: models.MarketPriceEntry{Crop: "Cotton", Price: "₹5,800/quintal", Trend: models.TrendUp, Change: "+3.8%"}, Badge: "default", Comparison: "vs last week"},
		{MarketPriceEntry: models.MarketPriceEntry{Crop: "Sugarcane", Price: "₹310/quintal", Trend: models.TrendStable, Change: "0%"}, Badge: "secondary", Comparison: "vs last week"},
	}
	for i := 0; i < 3; i++ {
		if diff := cmp.Diff(want, d.View().Market.Prices); diff != "" {
			t.Fatalf("render %d market mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestView_LanguageChangesOnlySelector(t *testing.T) {
	d := newTestDashboard(t, time.Hour, time.Hour)
	before := d.View()

	if err := d.SelectLanguage("tamil"); err != nil {
		t.Fatalf("SelectLanguage() error = %v", err)
	}
	after := d.View()

	if after.Header.Language != "tamil" {
		t.Errorf("Header.Language = %q, want tamil", after.Header.Language)
	}
	ignoreSelector := cmpopts.IgnoreFields(Header{}, "Language")
	if diff := cmp.Diff(before, after, ignoreSelector); diff != "" {
		t.Errorf("language change altered other rendered text (-before +after):\n%s", diff)
	}
}

func TestView_PestTabReflectsUpload(t *testing.T) {
	d := newTestDashboard(t, time.Hour, time.Hour)
	if d.View().Pest.ImagePresent {
		t.Fatal("ImagePresent = true before upload")
	}

	_ = d.UploadPestImage(&models.UploadedImage{Filename: "photo.jpg"})
	pest := d.View().Pest
	if !pest.ImagePresent || pest.Image == nil || pest.Image.Filename != "photo.jpg" {
		t.Errorf("Pest = %+v, want photo.jpg present", pest)
	}
	if pest.Status != "Analysis in Progress" || pest.Progress != 75 {
		t.Errorf("Pest status = %q/%d", pest.Status, pest.Progress)
	}
}

func TestView_ShowsLatestNotification(t *testing.T) {
	d := newTestDashboard(t, time.Hour, time.Hour)
	if d.View().Notification != nil {
		t.Fatal("Notification should be nil before any action")
	}
	_, _ = d.SubmitChatMessage("hello")
	n := d.View().Notification
	if n == nil || n.Title != "Advisory Sent" {
		t.Errorf("Notification = %+v, want Advisory Sent", n)
	}
}

func TestTab(t *testing.T) {
	d := newTestDashboard(t, time.Hour, time.Hour)

	got, err := d.Tab("market")
	if err != nil {
		t.Fatalf("Tab(market) error = %v", err)
	}
	market, ok := got.(MarketTab)
	if !ok || len(market.Prices) != 4 {
		t.Errorf("Tab(market) = %#v", got)
	}
	if _, err := d.Tab("advisory"); err != nil {
		t.Errorf("Tab(advisory) error = %v", err)
	}
	if _, err := d.Tab("settings"); err == nil {
		t.Error("Tab(settings) error = nil, want ErrTabUnknown")
	}
}

func TestBadgeVariant(t *testing.T) {
	tests := map[models.Trend]string{
		models.TrendUp:     "default",
		models.TrendDown:   "destructive",
		models.TrendStable: "secondary",
		"sideways":         "secondary",
	}
	for trend, want := range tests {
		if got := badgeVariant(trend); got != want {
			t.Errorf("badgeVariant(%q) = %q, want %q", trend, got, want)
		}
	}
}
