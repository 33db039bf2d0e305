package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one close observation for one asset.
type PricePoint struct {
	AssetId   int             `json:"id"`
	Ticker    string          `json:"ticker"`
	Close     decimal.Decimal `json:"close"`
	Interval  Interval        `json:"interval"`
	Timestamp time.Time       `json:"timestamp"`
}
