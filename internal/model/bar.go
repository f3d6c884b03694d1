package model

import "time"

// Bar is one OHLCV observation for an instrument at 1-minute granularity.
type Bar struct {
	Ts     time.Time `json:"ts" db:"ts"`
	Open   float64   `json:"open" db:"open"`
	High   float64   `json:"high" db:"high"`
	Low    float64   `json:"low" db:"low"`
	Close  float64   `json:"close" db:"close"`
	Volume int64     `json:"volume" db:"volume"`
}

type CandleInterval string

const (
	IntervalMinute CandleInterval = "minute"
	IntervalDay    CandleInterval = "day"
)
