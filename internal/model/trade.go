package model

import "time"

// TradeRecord is an immutable, append-only log entry. Never updated
// or deleted after insert.
type TradeRecord struct {
	ID           int64     `db:"id"`
	Ts           time.Time `db:"ts"`
	StrategyName string    `db:"strategy_name"`
	Instrument   string    `db:"instrument"`
	Action       string    `db:"action"`
	Price        float64   `db:"price"`
	Quantity     int64     `db:"quantity"`
	Details      string    `db:"details"`
}
