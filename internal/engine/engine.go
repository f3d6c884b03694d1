package engine

import (
	"context"
	"time"

	"github.com/quantghar/paper-trader/internal/config"
	"github.com/quantghar/paper-trader/internal/control"
	"github.com/quantghar/paper-trader/internal/logger"
	"github.com/quantghar/paper-trader/internal/marketdata"
	"github.com/quantghar/paper-trader/internal/model"
	"github.com/quantghar/paper-trader/internal/portfolio"
	"github.com/quantghar/paper-trader/internal/strategy"
)

// Engine drives the strategy-processing loop: every tick it evaluates each
// strategy instance against a cache snapshot and feeds the result to the
// position manager. It shares nothing with the fetcher loop except the
// cache.
type Engine struct {
	cache      *marketdata.BarCache
	manager    *portfolio.Manager
	strategies []strategy.Strategy

	sw *control.Switch
	hb *control.Heartbeat

	cfg    config.EngineConfig
	logger logger.Logger

	cycle uint64
}

func NewEngine(
	cache *marketdata.BarCache,
	manager *portfolio.Manager,
	strategies []strategy.Strategy,
	sw *control.Switch,
	hb *control.Heartbeat,
	cfg config.EngineConfig,
	logger logger.Logger,
) *Engine {
	return &Engine{
		cache:      cache,
		manager:    manager,
		strategies: strategies,
		sw:         sw,
		hb:         hb,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run blocks until ctx is cancelled. The stop check and the pause signal are
// polled once per tick; there is no preemptive cancellation mid-tick.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Infof("engine stopped after %d cycles", e.cycle)
			return
		case <-ticker.C:
			e.tick(ctx, time.Now())
		}
	}
}

func (e *Engine) tick(ctx context.Context, now time.Time) {
	e.cycle++

	paused := e.sw.Paused()
	inSession := e.cfg.WithinSession(now)

	state := "running"
	if paused {
		state = "paused"
	}
	if err := e.hb.Beat(control.Status{
		Ts:            now,
		State:         state,
		MarketOpen:    inSession,
		OpenPositions: e.manager.OpenPositionCount(),
		Cycle:         e.cycle,
	}); err != nil {
		e.logger.Warnf("%s: can't write heartbeat", err)
	}

	if paused {
		e.logger.Warnf("stop signal received, pausing trading engine")
		return
	}
	if !inSession {
		e.logger.Debugf("market is closed, waiting")
		return
	}

	e.ProcessTick(ctx, now)
}

// ProcessTick evaluates every strategy instance once. For a given pair,
// maintenance and exit checks run before new-entry checks, and a position
// closed in this tick is never reopened within the same tick.
func (e *Engine) ProcessTick(ctx context.Context, now time.Time) {
	squareOff := e.cfg.PastSquareOff(now)

	for _, s := range e.strategies {
		raw := e.cache.Snapshot(s.Instrument())
		if len(raw) == 0 {
			continue
		}
		price := raw[len(raw)-1].Close

		if _, open := e.manager.OpenPosition(s.Name(), s.Instrument()); open {
			e.manager.Maintain(ctx, s.Name(), s.Instrument(), price, now, squareOff)
			continue
		}

		if squareOff {
			continue
		}

		sig := s.Run(raw)
		if sig.Action == model.ActionNone {
			continue
		}
		if _, err := e.manager.Enter(ctx, s.Name(), s.Instrument(), sig, now); err != nil {
			e.logger.Errorf("%s: can't enter %s %s", err, s.Name(), s.Instrument())
		}
	}
}
