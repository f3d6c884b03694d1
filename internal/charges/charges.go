package charges

import (
	"github.com/quantghar/paper-trader/internal/model"
	"github.com/shopspring/decimal"
)

// Rates for a single leg of an NSE equity trade. Brokerage is percentage
// based but capped at a flat amount per executed order.
var (
	_brokerageCap  = decimal.NewFromInt(20)
	_brokerageRate = decimal.RequireFromString("0.0003")
	_sttIntraday   = decimal.RequireFromString("0.00025")
	_sttDelivery   = decimal.RequireFromString("0.001")
	_txnRate       = decimal.RequireFromString("0.0000345")
	_gstRate       = decimal.RequireFromString("0.18")
	_sebiRate      = decimal.RequireFromString("0.000001")
	_stampRate     = decimal.RequireFromString("0.00003")
)

// Calculate returns the estimated charges for one leg (buy or sell) of a
// trade. The same formula applies at entry and exit, each leg priced on its
// own fill price. Deterministic for a given (quantity, price, intraday).
func Calculate(quantity int64, price float64, intraday bool) model.FeeBreakdown {
	turnover := decimal.NewFromInt(quantity).Mul(decimal.NewFromFloat(price))

	brokerage := decimal.Min(_brokerageCap, _brokerageRate.Mul(turnover))

	stt := _sttDelivery.Mul(turnover)
	if intraday {
		stt = _sttIntraday.Mul(turnover)
	}

	txn := _txnRate.Mul(turnover)
	gst := _gstRate.Mul(brokerage.Add(txn))
	sebi := _sebiRate.Mul(turnover)
	stamp := _stampRate.Mul(turnover)

	total := brokerage.Add(stt).Add(txn).Add(gst).Add(sebi).Add(stamp)

	return model.FeeBreakdown{
		Turnover:    turnover.InexactFloat64(),
		Brokerage:   brokerage.InexactFloat64(),
		STT:         stt.InexactFloat64(),
		TxnCharges:  txn.InexactFloat64(),
		GST:         gst.InexactFloat64(),
		SEBICharges: sebi.InexactFloat64(),
		StampDuty:   stamp.InexactFloat64(),
		Total:       total.InexactFloat64(),
	}
}
