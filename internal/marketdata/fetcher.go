package marketdata

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/quantghar/paper-trader/internal/config"
	"github.com/quantghar/paper-trader/internal/logger"
	"github.com/quantghar/paper-trader/internal/model"
)

type pauseSignal interface {
	Paused() bool
}

// Fetcher keeps the BarCache current for every tracked instrument. Each
// cycle it walks the instrument set in fixed-size batches: fetches inside a
// batch run concurrently, batches run sequentially with a cooldown in
// between, so a cycle never bursts past the provider's rate ceiling.
type Fetcher struct {
	provider Provider
	cache    *BarCache
	pause    pauseSignal

	cfg         config.FetcherConfig
	instruments []string

	logger logger.Logger
}

func NewFetcher(provider Provider, cache *BarCache, pause pauseSignal, cfg config.FetcherConfig, instruments []string, logger logger.Logger) *Fetcher {
	return &Fetcher{
		provider:    provider,
		cache:       cache,
		pause:       pause,
		cfg:         cfg,
		instruments: instruments,
		logger:      logger,
	}
}

// Run blocks until ctx is cancelled. Fetch failures are logged and skipped,
// never fatal to the loop.
func (f *Fetcher) Run(ctx context.Context) {
	ticker := time.NewTicker(f.cfg.Cadence)
	defer ticker.Stop()

	f.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if f.pause != nil && f.pause.Paused() {
				f.logger.Debugf("fetcher paused, skipping cycle")
				continue
			}
			f.RunCycle(ctx)
		}
	}
}

// RunCycle refreshes every tracked instrument once.
func (f *Fetcher) RunCycle(ctx context.Context) {
	for start := 0; start < len(f.instruments); start += f.cfg.BatchSize {
		if ctx.Err() != nil {
			return
		}

		end := min(start+f.cfg.BatchSize, len(f.instruments))

		var wg sync.WaitGroup
		for _, instrument := range f.instruments[start:end] {
			wg.Add(1)
			go func() {
				defer wg.Done()
				f.fetchInstrument(ctx, instrument)
			}()
		}
		wg.Wait()

		if end < len(f.instruments) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(f.cfg.BatchCooldown):
			}
		}
	}
}

// fetchInstrument pulls the incremental window for one instrument and merges
// it into the cache. Rate-limit responses are retried with exponential
// backoff; any other error abandons the instrument for this cycle.
func (f *Fetcher) fetchInstrument(ctx context.Context, instrument string) {
	now := time.Now().UTC()

	from := now.Add(-f.cfg.BootstrapWindow)
	if last := f.cache.LastTimestamp(instrument); !last.IsZero() {
		from = last.Add(time.Minute)
	}

	delay := f.cfg.RetryBaseDelay
	for attempt := 1; ; attempt++ {
		bars, err := f.provider.GetCandles(ctx, instrument, model.IntervalMinute, from, now)
		if err == nil {
			if len(bars) > 0 {
				f.cache.Update(instrument, bars)
				f.logger.Debugf("merged %d bars for %s", len(bars), instrument)
			}
			return
		}

		if !errors.Is(err, ErrRateLimited) {
			f.logger.Errorf("%s: can't fetch candles for %s", err, instrument)
			return
		}
		if attempt >= f.cfg.MaxFetchAttempts {
			f.logger.Warnf("rate limited %d times, skipping %s for this cycle", attempt, instrument)
			return
		}

		f.logger.Debugf("rate limited, retrying %s in %s", instrument, delay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
	}
}
