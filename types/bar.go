package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one immutable OHLCV observation for a fixed time interval.
// Timestamps are expected to be monotonically non-decreasing across a feed.
type Bar struct {
	Symbol    string          `json:"symbol"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	Interval  Interval        `json:"interval"`
	Timestamp time.Time       `json:"timestamp"`
}
