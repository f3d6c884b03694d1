package strategy

import (
	"fmt"

	"github.com/quantghar/paper-trader/internal/config"
	"github.com/quantghar/paper-trader/internal/logger"
	"github.com/quantghar/paper-trader/internal/model"
)

// Strategy evaluates one instrument on one timeframe. ComputeIndicators
// resamples the raw 1-minute series to the strategy's timeframe;
// GenerateSignals inspects the latest completed bar and emits at most one
// entry signal. GenerateSignals is only called once the resampled series
// reaches MinBars.
type Strategy interface {
	Name() string
	Instrument() string
	MinBars() int

	ComputeIndicators(raw []model.Bar) []model.Bar
	GenerateSignals(bars []model.Bar) model.Signal
	Run(raw []model.Bar) model.Signal
}

// Factory builds a strategy instance for one symbol out of its config block.
type Factory func(cfg config.StrategyConfig, instrument string, logger logger.Logger) Strategy

var _registry = map[string]Factory{
	"alphaone": NewAlphaOne,
	"breakout": NewBreakout,
}

func New(cfg config.StrategyConfig, instrument string, logger logger.Logger) (Strategy, error) {
	factory, ok := _registry[cfg.Name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", cfg.Name)
	}
	return factory(cfg, instrument, logger), nil
}

// Build expands every strategy config block into one instance per symbol.
func Build(cfgs []config.StrategyConfig, logger logger.Logger) ([]Strategy, error) {
	instances := make([]Strategy, 0)
	for _, cfg := range cfgs {
		for _, symbol := range cfg.Symbols {
			s, err := New(cfg, symbol, logger)
			if err != nil {
				return nil, err
			}
			instances = append(instances, s)
		}
	}
	if len(instances) == 0 {
		return nil, fmt.Errorf("no strategies loadable")
	}
	return instances, nil
}

// run is the shared two-phase orchestration: indicators first, signals only
// if the resampled series is long enough.
func run(s Strategy, raw []model.Bar) model.Signal {
	bars := s.ComputeIndicators(raw)
	if len(bars) < s.MinBars() {
		return model.Signal{Action: model.ActionNone}
	}
	return s.GenerateSignals(bars)
}
