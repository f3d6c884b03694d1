package strategy

import (
	"time"

	"github.com/quantghar/paper-trader/internal/config"
	"github.com/quantghar/paper-trader/internal/logger"
	"github.com/quantghar/paper-trader/internal/model"
)

// Breakout trades the direction of the latest completed bar: a bullish bar
// (close above open) opens a LONG, a bearish bar a SHORT, with a fixed
// percentage stop, a 1:TargetRR target and an optional trailing stop. A
// per-day signal counter caps how many entries it emits per session and
// resets on date change.
type Breakout struct {
	instrument string
	timeframe  time.Duration
	cfg        config.BreakoutConfig

	signalsToday  int
	lastSignalDay time.Time

	logger logger.Logger
}

func NewBreakout(cfg config.StrategyConfig, instrument string, logger logger.Logger) Strategy {
	return &Breakout{
		instrument: instrument,
		timeframe:  time.Duration(cfg.TimeframeMinutes) * time.Minute,
		cfg:        cfg.Breakout,
		logger:     logger.With("strategy", "breakout", "instrument", instrument),
	}
}

func (s *Breakout) Name() string       { return "breakout" }
func (s *Breakout) Instrument() string { return s.instrument }
func (s *Breakout) MinBars() int       { return s.cfg.MinBars }

func (s *Breakout) ComputeIndicators(raw []model.Bar) []model.Bar {
	return Resample(raw, s.timeframe)
}

func (s *Breakout) GenerateSignals(bars []model.Bar) model.Signal {
	last := bars[len(bars)-1]
	sig := model.Signal{Action: model.ActionNone, Ts: last.Ts, Price: last.Close}

	if day := last.Ts.Truncate(24 * time.Hour); !day.Equal(s.lastSignalDay) {
		s.lastSignalDay = day
		s.signalsToday = 0
	}
	if s.signalsToday >= s.cfg.MaxTradesPerDay {
		return sig
	}

	switch {
	case last.Close > last.Open:
		sig.Action = model.ActionLong
		sig.StopLoss = last.Close * (1 - s.cfg.StopLossPct/100)
		risk := last.Close - sig.StopLoss
		sig.Target = last.Close + risk*s.cfg.TargetRR
	case last.Close < last.Open:
		sig.Action = model.ActionShort
		sig.StopLoss = last.Close * (1 + s.cfg.StopLossPct/100)
		risk := sig.StopLoss - last.Close
		sig.Target = last.Close - risk*s.cfg.TargetRR
	default:
		return sig
	}

	sig.TrailingSLPct = s.cfg.TrailingSLPct
	s.signalsToday++
	s.logger.Debugf("%s signal %d/%d at %.2f", sig.Action, s.signalsToday, s.cfg.MaxTradesPerDay, sig.Price)
	return sig
}

func (s *Breakout) Run(raw []model.Bar) model.Signal {
	return run(s, raw)
}
