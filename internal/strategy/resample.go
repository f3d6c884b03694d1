package strategy

import (
	"time"

	"github.com/quantghar/paper-trader/internal/model"
)

// Resample aggregates 1-minute bars into non-overlapping windows of the
// given timeframe: open = first, high = max, low = min, close = last,
// volume = sum. Input must be sorted by timestamp; windows are aligned to
// multiples of the timeframe.
func Resample(bars []model.Bar, timeframe time.Duration) []model.Bar {
	if len(bars) == 0 || timeframe <= 0 {
		return nil
	}

	out := make([]model.Bar, 0, len(bars))
	for _, b := range bars {
		window := b.Ts.Truncate(timeframe)
		if n := len(out); n > 0 && out[n-1].Ts.Equal(window) {
			cur := &out[n-1]
			cur.High = max(cur.High, b.High)
			cur.Low = min(cur.Low, b.Low)
			cur.Close = b.Close
			cur.Volume += b.Volume
			continue
		}
		out = append(out, model.Bar{
			Ts:     window,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}
	return out
}
