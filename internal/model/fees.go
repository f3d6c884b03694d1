package model

// FeeBreakdown lists the simulated brokerage and statutory charges for a
// single trade leg. Only Total is folded into PortfolioState; the breakdown
// itself is never persisted.
type FeeBreakdown struct {
	Turnover    float64
	Brokerage   float64
	STT         float64
	TxnCharges  float64
	GST         float64
	SEBICharges float64
	StampDuty   float64
	Total       float64
}
