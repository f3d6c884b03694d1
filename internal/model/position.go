package model

import "time"

// Position is an open trade for one (strategy, instrument) pair.
// At most one may exist per pair at any time.
type Position struct {
	StrategyName  string    `json:"strategy_name"`
	Instrument    string    `json:"instrument"`
	Action        Action    `json:"action"`
	EntryPrice    float64   `json:"entry_price"`
	Quantity      int64     `json:"quantity"`
	EntryTime     time.Time `json:"entry_time"`
	StopLoss      float64   `json:"stop_loss"`
	Target        float64   `json:"target"`
	TrailingSLPct float64   `json:"trailing_sl_pct"`

	// Extremes since entry drive the trailing stop.
	HighestSinceEntry float64 `json:"highest_price_since_entry"`
	LowestSinceEntry  float64 `json:"lowest_price_since_entry"`

	OrderRequestID string `json:"order_request_id"`
}

func (p Position) Key() string {
	return p.StrategyName + ":" + p.Instrument
}
