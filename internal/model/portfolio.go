package model

// PortfolioState is the per-strategy capital bookkeeping record.
// InitialCapital is fixed at first run; TradingCapital is spendable cash,
// BankedProfit is realized PnL set aside, TotalCharges is cumulative fees.
type PortfolioState struct {
	StrategyName   string  `db:"strategy_name"`
	InitialCapital float64 `db:"initial_capital"`
	TradingCapital float64 `db:"trading_capital"`
	BankedProfit   float64 `db:"banked_profit"`
	TotalCharges   float64 `db:"total_charges"`
}
