package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is assumed when an upstream omits the quote currency.
const DefaultCurrency = "USD"

// PriceSnapshot is the normalized quote shape returned by all providers.
// ChangePercent is a percentage value (1.92 means 1.92%), not a fraction.
type PriceSnapshot struct {
	Symbol        string          `json:"symbol"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	PreviousClose decimal.Decimal `json:"previous_close"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Volume        int64           `json:"volume"`
	AsOf          time.Time       `json:"as_of"`
	DisplayName   string          `json:"display_name,omitempty"`
	Currency      string          `json:"currency"`
}

// ChangeFrom derives Change and ChangePercent from CurrentPrice and
// PreviousClose for upstreams that only report raw prices.
func (s *PriceSnapshot) ChangeFrom() {
	s.Change = s.CurrentPrice.Sub(s.PreviousClose)
	if !s.PreviousClose.IsZero() {
		s.ChangePercent = s.Change.Div(s.PreviousClose).Mul(decimal.NewFromInt(100))
	}
}
