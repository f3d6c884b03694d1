package model

import "time"

type Action string

const (
	ActionNone  Action = "NONE"
	ActionLong  Action = "LONG"
	ActionShort Action = "SHORT"
)

// Signal is the evaluator output for the latest completed bar of a
// strategy's timeframe. StopLoss, Target and TrailingSLPct are only
// meaningful when Action is LONG or SHORT.
type Signal struct {
	Action        Action
	Ts            time.Time
	Price         float64
	StopLoss      float64
	Target        float64
	TrailingSLPct float64
}
