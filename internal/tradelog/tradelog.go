package tradelog

import (
	"context"
	"time"

	"github.com/quantghar/paper-trader/internal/logger"
	"github.com/quantghar/paper-trader/internal/model"
)

type tradeAppender interface {
	AppendTrade(ctx context.Context, t model.TradeRecord) error
}

// Logger translates manager events into immutable trade records. Append
// failures are logged and swallowed: losing one record is preferable to
// halting trading decisions.
type Logger struct {
	store  tradeAppender
	logger logger.Logger
}

func NewLogger(store tradeAppender, logger logger.Logger) *Logger {
	return &Logger{
		store:  store,
		logger: logger,
	}
}

func (l *Logger) Log(ctx context.Context, ts time.Time, strategy, instrument, action string, price float64, quantity int64, details string) {
	record := model.TradeRecord{
		Ts:           ts,
		StrategyName: strategy,
		Instrument:   instrument,
		Action:       action,
		Price:        price,
		Quantity:     quantity,
		Details:      details,
	}
	if err := l.store.AppendTrade(ctx, record); err != nil {
		l.logger.Errorf("%s: can't append trade %s %s %s", err, strategy, instrument, action)
	}
}
