package marketdata

import (
	"slices"
	"sync"
	"time"

	"github.com/quantghar/paper-trader/internal/model"
)

// BarCache holds the per-instrument 1-minute bar series shared between the
// fetcher loop (writer) and the strategy-processing loop (reader). All
// accesses copy in or out under the lock, so neither loop ever observes a
// partial merge.
type BarCache struct {
	mu     sync.RWMutex
	series map[string][]model.Bar
}

func NewBarCache() *BarCache {
	return &BarCache{
		series: make(map[string][]model.Bar),
	}
}

// Update merges bars into the stored series for instrument: combined,
// sorted by timestamp and deduplicated keeping the latest write for a
// given timestamp. Merging the same batch twice is a no-op.
func (c *BarCache) Update(instrument string, bars []model.Bar) {
	if len(bars) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	merged := append(slices.Clone(c.series[instrument]), bars...)
	slices.SortStableFunc(merged, func(a, b model.Bar) int {
		return a.Ts.Compare(b.Ts)
	})

	deduped := merged[:0]
	for _, b := range merged {
		if n := len(deduped); n > 0 && deduped[n-1].Ts.Equal(b.Ts) {
			deduped[n-1] = b
			continue
		}
		deduped = append(deduped, b)
	}

	c.series[instrument] = slices.Clone(deduped)
}

// Snapshot returns an independent copy of the instrument's series.
func (c *BarCache) Snapshot(instrument string) []model.Bar {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.series[instrument])
}

// LastTimestamp reports the latest cached bar timestamp for instrument,
// or a zero time if nothing is cached yet.
func (c *BarCache) LastTimestamp(instrument string) time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.series[instrument]
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Ts
}

func (c *BarCache) Len(instrument string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.series[instrument])
}
