package models

// Trend is the week-over-week direction of a mandi rate.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// MarketPriceEntry is one crop row of the market prices tab.
// Price and Change are display strings and are never parsed.
type MarketPriceEntry struct {
	Crop   string `json:"crop"`
	Price  string `json:"price"`
	Trend  Trend  `json:"trend"`
	Change string `json:"change"`
}
