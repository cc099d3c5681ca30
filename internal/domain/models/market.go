package models

import "time"

// DailyBar represents one end-of-day OHLCV record for a symbol.
type DailyBar struct {
	Date   time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Tick is a single trade observation from the live stream.
type Tick struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
	Volume    float64
}

// Movement is one binary up/down observation derived from consecutive
// closing prices: 1 when the close rose, 0 otherwise.
type Movement struct {
	Date time.Time
	Up   int
}
