package content

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kjstillabower/crop-advisory-service/internal/models"
)

func TestBuildForecast(t *testing.T) {
	got := BuildForecast([]string{"Today", "Tomorrow", "Day 3"}, 28, 8, "Sunny")
	want := []models.ForecastDay{
		{Label: "Today", High: 28, Low: 20, Conditions: "Sunny"},
		{Label: "Tomorrow", High: 29, Low: 21, Conditions: "Sunny"},
		{Label: "Day 3", High: 30, Low: 22, Conditions: "Sunny"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildForecast() mismatch (-want +got):\n%s", diff)
	}
}

// TestStaticProvider_ReturnsCopies verifies callers cannot mutate the shared tables.
func TestStaticProvider_ReturnsCopies(t *testing.T) {
	p := StaticProvider{}
	first, err := p.MarketPrices(context.Background())
	if err != nil {
		t.Fatalf("MarketPrices() error = %v", err)
	}
	first[0].Price = "free"

	second, _ := p.MarketPrices(context.Background())
	if second[0].Price != "₹2,100/quintal" {
		t.Errorf("MarketPrices()[0].Price = %q, want unchanged table value", second[0].Price)
	}
}

func TestStaticProvider_MarketTrends(t *testing.T) {
	prices, _ := StaticProvider{}.MarketPrices(context.Background())
	want := map[string]models.Trend{
		"Rice":      models.TrendUp,
		"Wheat":     models.TrendDown,
		"Cotton":    models.TrendUp,
		"Sugarcane": models.TrendStable,
	}
	for _, p := range prices {
		if p.Trend != want[p.Crop] {
			t.Errorf("%s trend = %q, want %q", p.Crop, p.Trend, want[p.Crop])
		}
	}
}

func TestLanguages_Order(t *testing.T) {
	var codes []string
	for _, l := range Languages {
		codes = append(codes, l.Code)
	}
	if diff := cmp.Diff([]string{"english", "hindi", "bengali", "tamil"}, codes); diff != "" {
		t.Errorf("language codes mismatch (-want +got):\n%s", diff)
	}
}
