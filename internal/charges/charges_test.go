package charges

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateIntradayFixture(t *testing.T) {
	f := Calculate(10, 100, true)

	assert.InDelta(t, 1000.0, f.Turnover, 1e-9)
	assert.InDelta(t, 0.30, f.Brokerage, 1e-9)
	assert.InDelta(t, 0.25, f.STT, 1e-9)
	assert.InDelta(t, 0.0345, f.TxnCharges, 1e-9)
	assert.InDelta(t, 0.06021, f.GST, 1e-9)
	assert.InDelta(t, 0.001, f.SEBICharges, 1e-9)
	assert.InDelta(t, 0.03, f.StampDuty, 1e-9)
	assert.InDelta(t, 0.67571, f.Total, 1e-9)
}

func TestCalculateBrokerageCap(t *testing.T) {
	// 100 * 1000 = 100000 turnover, 0.03% would be 30 -> capped at 20.
	f := Calculate(100, 1000, true)
	assert.InDelta(t, 20.0, f.Brokerage, 1e-9)
}

func TestCalculateDeliverySTT(t *testing.T) {
	f := Calculate(10, 100, false)
	assert.InDelta(t, 1.0, f.STT, 1e-9)
}

func TestCalculateDeterministic(t *testing.T) {
	a := Calculate(37, 1543.55, true)
	b := Calculate(37, 1543.55, true)
	assert.Equal(t, a, b)

	sum := a.Brokerage + a.STT + a.TxnCharges + a.GST + a.SEBICharges + a.StampDuty
	assert.InDelta(t, a.Total, sum, 1e-9)
}
