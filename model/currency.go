package model

// DefaultBase is the currency every rate
// in the table is expressed against
const DefaultBase = "USD"

// RateEntry holds the rate of one currency
// relative to the base currency
type RateEntry struct {
	Currency string  `json:"currency"` // Currency code, e.g. EUR
	Rate     float64 `json:"rate"`     // Units of Currency per one unit of base
}

// ExchangeRate holds information
// for given exchange rate
type ExchangeRate struct {
	Base   string  `json:"base"`   // Base currency
	Target string  `json:"target"` // Target currency
	Rate   float64 `json:"rate"`   // Exchange rate
}

// DefaultRates are the seed values used
// when no other seed source is configured
func DefaultRates() []RateEntry {
	return []RateEntry{
		{Currency: "USD", Rate: 1.0},
		{Currency: "EUR", Rate: 0.85},
		{Currency: "RUB", Rate: 75.0},
	}
}
