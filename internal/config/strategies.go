package config

import "fmt"

// StrategyConfig binds one strategy type to a symbol set, a timeframe and a
// capital allocation. Parameters are typed per strategy; unset values fall
// back to the strategy's defaults.
type StrategyConfig struct {
	Name             string   `yaml:"name"`
	Symbols          []string `yaml:"symbols"`
	TimeframeMinutes int      `yaml:"timeframe_minutes"`
	Capital          float64  `yaml:"capital"`

	AlphaOne AlphaOneConfig `yaml:"alphaone"`
	Breakout BreakoutConfig `yaml:"breakout"`
}

func (c *StrategyConfig) Setup() error {
	if c.Name == "" {
		return fmt.Errorf("strategy name is required")
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("empty symbols for strategy %s", c.Name)
	}
	if c.Capital <= 0 {
		return fmt.Errorf("non-positive capital for strategy %s", c.Name)
	}
	if c.TimeframeMinutes <= 0 {
		c.TimeframeMinutes = 15
	}

	c.AlphaOne.Setup()
	c.Breakout.Setup()
	return nil
}

type AlphaOneConfig struct {
	StreakLength          int     `yaml:"streak_length"`
	StrongCandleRatio     float64 `yaml:"strong_candle_ratio"`
	VolumeWindow          int     `yaml:"volume_window"`
	VolumeSpikeMultiplier float64 `yaml:"volume_spike_multiplier"`
	TargetRR              float64 `yaml:"target_rr"`
}

func (c *AlphaOneConfig) Setup() {
	if c.StreakLength <= 0 {
		c.StreakLength = 8
	}
	if c.StrongCandleRatio <= 0 {
		c.StrongCandleRatio = 0.7
	}
	if c.VolumeWindow <= 0 {
		c.VolumeWindow = 20
	}
	if c.VolumeSpikeMultiplier <= 0 {
		c.VolumeSpikeMultiplier = 1.5
	}
	if c.TargetRR <= 0 {
		c.TargetRR = 3.0
	}
}

type BreakoutConfig struct {
	StopLossPct     float64 `yaml:"stop_loss_pct"`
	TargetRR        float64 `yaml:"target_rr"`
	TrailingSLPct   float64 `yaml:"trailing_sl_pct"`
	MaxTradesPerDay int     `yaml:"max_trades_per_day"`
	MinBars         int     `yaml:"min_bars"`
}

func (c *BreakoutConfig) Setup() {
	if c.StopLossPct <= 0 {
		c.StopLossPct = 1.0
	}
	if c.TargetRR <= 0 {
		c.TargetRR = 2.0
	}
	if c.MaxTradesPerDay <= 0 {
		c.MaxTradesPerDay = 3
	}
	if c.MinBars <= 0 {
		c.MinBars = 3
	}
}
