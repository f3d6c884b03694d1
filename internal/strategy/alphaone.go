package strategy

import (
	"time"

	"github.com/quantghar/paper-trader/internal/config"
	"github.com/quantghar/paper-trader/internal/logger"
	"github.com/quantghar/paper-trader/internal/model"
)

// AlphaOne is a mean-reversion strategy: after an unbroken N-bar losing
// (winning) streak, a strong reversal candle on a volume spike opens a LONG
// (SHORT). Stop sits at the signal bar's low (high), target at TargetRR
// times the risk.
type AlphaOne struct {
	instrument string
	timeframe  time.Duration
	cfg        config.AlphaOneConfig

	logger logger.Logger
}

func NewAlphaOne(cfg config.StrategyConfig, instrument string, logger logger.Logger) Strategy {
	return &AlphaOne{
		instrument: instrument,
		timeframe:  time.Duration(cfg.TimeframeMinutes) * time.Minute,
		cfg:        cfg.AlphaOne,
		logger:     logger.With("strategy", "alphaone", "instrument", instrument),
	}
}

func (s *AlphaOne) Name() string       { return "alphaone" }
func (s *AlphaOne) Instrument() string { return s.instrument }

func (s *AlphaOne) MinBars() int {
	return max(s.cfg.StreakLength+2, s.cfg.VolumeWindow+1)
}

func (s *AlphaOne) ComputeIndicators(raw []model.Bar) []model.Bar {
	return Resample(raw, s.timeframe)
}

func (s *AlphaOne) GenerateSignals(bars []model.Bar) model.Signal {
	last := bars[len(bars)-1]
	sig := model.Signal{Action: model.ActionNone, Ts: last.Ts, Price: last.Close}

	if !s.hasVolumeSpike(bars) || !isStrongCandle(last, s.cfg.StrongCandleRatio) {
		return sig
	}

	// Streak is measured on the bars before the signal candle.
	prior := bars[:len(bars)-1]
	switch {
	case s.closeStreak(prior, -1) && last.Close > last.Open:
		risk := last.Close - last.Low
		if risk <= 0 {
			return sig
		}
		sig.Action = model.ActionLong
		sig.StopLoss = last.Low
		sig.Target = last.Close + risk*s.cfg.TargetRR
	case s.closeStreak(prior, 1) && last.Close < last.Open:
		risk := last.High - last.Close
		if risk <= 0 {
			return sig
		}
		sig.Action = model.ActionShort
		sig.StopLoss = last.High
		sig.Target = last.Close - risk*s.cfg.TargetRR
	}

	if sig.Action != model.ActionNone {
		s.logger.Infof("%s signal at %.2f sl %.2f target %.2f", sig.Action, sig.Price, sig.StopLoss, sig.Target)
	}
	return sig
}

func (s *AlphaOne) Run(raw []model.Bar) model.Signal {
	return run(s, raw)
}

// closeStreak reports whether the last StreakLength closes of bars moved
// strictly in the given direction (-1 down, +1 up) bar over bar.
func (s *AlphaOne) closeStreak(bars []model.Bar, direction int) bool {
	n := s.cfg.StreakLength
	if len(bars) < n+1 {
		return false
	}
	for i := len(bars) - n; i < len(bars); i++ {
		diff := bars[i].Close - bars[i-1].Close
		if direction < 0 && diff >= 0 {
			return false
		}
		if direction > 0 && diff <= 0 {
			return false
		}
	}
	return true
}

func (s *AlphaOne) hasVolumeSpike(bars []model.Bar) bool {
	w := s.cfg.VolumeWindow
	if len(bars) < w+1 {
		return false
	}
	var sum int64
	for _, b := range bars[len(bars)-1-w : len(bars)-1] {
		sum += b.Volume
	}
	avg := float64(sum) / float64(w)
	return float64(bars[len(bars)-1].Volume) > avg*s.cfg.VolumeSpikeMultiplier
}

func isStrongCandle(b model.Bar, ratio float64) bool {
	barRange := b.High - b.Low
	if barRange <= 0 {
		return false
	}
	body := b.Close - b.Open
	if body < 0 {
		body = -body
	}
	return body/barRange >= ratio
}
