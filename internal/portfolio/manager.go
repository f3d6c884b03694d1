package portfolio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quantghar/paper-trader/internal/charges"
	"github.com/quantghar/paper-trader/internal/logger"
	"github.com/quantghar/paper-trader/internal/model"
	"github.com/quantghar/paper-trader/internal/tradelog"
)

const _orderIDPrefix = "paper-trader-"

// Exit reasons recorded in trade details.
const (
	ExitStopLoss  = "stop_loss"
	ExitTarget    = "target"
	ExitSquareOff = "square_off"
)

// Store is the durable persistence the manager flushes to after every
// mutation (save-after-write).
type Store interface {
	SavePortfolioState(ctx context.Context, st model.PortfolioState) error
	LoadPortfolioStates(ctx context.Context) ([]model.PortfolioState, error)
	SavePosition(ctx context.Context, p model.Position) error
	DeletePosition(ctx context.Context, strategyName, instrument string) error
	LoadOpenPositions(ctx context.Context) ([]model.Position, error)
}

// Manager owns the per-strategy capital and the open-position set, and
// enforces the two hard invariants: trading capital never goes negative and
// at most one open position exists per (strategy, instrument).
type Manager struct {
	store  Store
	trades *tradelog.Logger
	logger logger.Logger

	capitalConfig map[string]float64

	mu        sync.Mutex
	states    map[string]*model.PortfolioState
	positions map[string]model.Position
}

func NewManager(store Store, trades *tradelog.Logger, capitalConfig map[string]float64, logger logger.Logger) *Manager {
	return &Manager{
		store:         store,
		trades:        trades,
		logger:        logger,
		capitalConfig: capitalConfig,
		states:        make(map[string]*model.PortfolioState),
		positions:     make(map[string]model.Position),
	}
}

// Init reloads portfolio state and open positions from the store, creating a
// fresh record for any configured strategy seen for the first time. After
// Init the in-memory state matches what was persisted before the last
// shutdown.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	persisted, err := m.store.LoadPortfolioStates(ctx)
	if err != nil {
		return fmt.Errorf("%w: can't load portfolio states", err)
	}
	fromDB := make(map[string]model.PortfolioState, len(persisted))
	for _, st := range persisted {
		fromDB[st.StrategyName] = st
	}

	for name, capital := range m.capitalConfig {
		if st, ok := fromDB[name]; ok {
			m.states[name] = &st
			continue
		}
		m.logger.Warnf("no state found for %q, creating fresh record", name)
		st := &model.PortfolioState{
			StrategyName:   name,
			InitialCapital: capital,
			TradingCapital: capital,
		}
		m.states[name] = st
		if err := m.store.SavePortfolioState(ctx, *st); err != nil {
			return fmt.Errorf("%w: can't save fresh state for %q", err, name)
		}
	}

	positions, err := m.store.LoadOpenPositions(ctx)
	if err != nil {
		return fmt.Errorf("%w: can't load open positions", err)
	}
	for _, p := range positions {
		m.positions[p.Key()] = p
	}

	m.logSummary()
	return nil
}

// Enter attempts the FLAT -> OPEN transition for an evaluator signal.
// Quantity is sized to the strategy's trading capital; the entry is rejected
// without any state change when a position is already open for the pair or
// capital cannot cover cost plus entry fee.
func (m *Manager) Enter(ctx context.Context, strategyName, instrument string, sig model.Signal, ts time.Time) (bool, error) {
	if sig.Action != model.ActionLong && sig.Action != model.ActionShort {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[strategyName]
	if !ok {
		return false, fmt.Errorf("unknown strategy %q", strategyName)
	}

	key := strategyName + ":" + instrument
	if _, open := m.positions[key]; open {
		m.logger.Warnf("rejected: %s already has a position for %s", strategyName, instrument)
		return false, nil
	}

	quantity, entryFee := sizePosition(st.TradingCapital, sig.Price)
	if quantity <= 0 {
		m.logger.Warnf("rejected: insufficient funds for %s on %s", strategyName, instrument)
		return false, nil
	}

	st.TradingCapital -= sig.Price*float64(quantity) + entryFee
	st.TotalCharges += entryFee

	pos := model.Position{
		StrategyName:   strategyName,
		Instrument:     instrument,
		Action:         sig.Action,
		EntryPrice:     sig.Price,
		Quantity:       quantity,
		EntryTime:      ts,
		StopLoss:       sig.StopLoss,
		Target:         sig.Target,
		TrailingSLPct:  sig.TrailingSLPct,
		OrderRequestID: _orderIDPrefix + uuid.NewString(),
	}
	switch sig.Action {
	case model.ActionLong:
		pos.HighestSinceEntry = sig.Price
	case model.ActionShort:
		pos.LowestSinceEntry = sig.Price
	}
	m.positions[key] = pos

	m.persistPosition(ctx, pos)
	m.persistState(ctx, st)
	m.trades.Log(ctx, ts, strategyName, instrument, string(sig.Action), sig.Price, quantity,
		fmt.Sprintf("entry_fee=%.2f sl=%.2f target=%.2f order_id=%s", entryFee, sig.StopLoss, sig.Target, pos.OrderRequestID))

	m.logger.Infof("executed: %s %s %d of %s @ %.2f", strategyName, sig.Action, quantity, instrument, sig.Price)
	return true, nil
}

// Maintain runs position maintenance for one open position on the current
// price: trailing-stop update first, then the stop/target/square-off exit
// check. Reports whether the position was closed this tick.
func (m *Manager) Maintain(ctx context.Context, strategyName, instrument string, price float64, ts time.Time, squareOff bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strategyName + ":" + instrument
	pos, ok := m.positions[key]
	if !ok {
		return false
	}

	if !squareOff {
		m.updateTrailingStop(ctx, &pos, price)
		m.positions[key] = pos
	}

	reason, exit := exitReason(pos, price, squareOff)
	if !exit {
		return false
	}

	m.closeLocked(ctx, pos, price, ts, reason)
	return true
}

func (m *Manager) updateTrailingStop(ctx context.Context, pos *model.Position, price float64) {
	if pos.TrailingSLPct <= 0 {
		return
	}

	original := pos.StopLoss
	switch pos.Action {
	case model.ActionLong:
		pos.HighestSinceEntry = max(pos.HighestSinceEntry, price)
		trailed := pos.HighestSinceEntry * (1 - pos.TrailingSLPct/100)
		pos.StopLoss = max(pos.StopLoss, trailed)
	case model.ActionShort:
		if pos.LowestSinceEntry <= 0 {
			pos.LowestSinceEntry = price
		}
		pos.LowestSinceEntry = min(pos.LowestSinceEntry, price)
		trailed := pos.LowestSinceEntry * (1 + pos.TrailingSLPct/100)
		pos.StopLoss = min(pos.StopLoss, trailed)
	}

	if pos.StopLoss != original {
		m.logger.Infof("tsl update for %s: stop trailed to %.2f", pos.Instrument, pos.StopLoss)
		m.persistPosition(ctx, *pos)
	}
}

func exitReason(pos model.Position, price float64, squareOff bool) (string, bool) {
	switch pos.Action {
	case model.ActionLong:
		if price <= pos.StopLoss {
			return ExitStopLoss, true
		}
		if price >= pos.Target {
			return ExitTarget, true
		}
	case model.ActionShort:
		if price >= pos.StopLoss {
			return ExitStopLoss, true
		}
		if price <= pos.Target {
			return ExitTarget, true
		}
	}
	if squareOff {
		return ExitSquareOff, true
	}
	return "", false
}

// closeLocked performs the OPEN -> FLAT transition. The exit fee is the only
// newly charged amount; the entry fee, already charged at entry, still counts
// into net PnL. Profit banking: half of a positive net PnL is banked and half
// reinvested on top of the initial allocation; a non-positive net PnL is
// absorbed into banked profit and trading capital resets to exactly the
// initial allocation.
func (m *Manager) closeLocked(ctx context.Context, pos model.Position, price float64, ts time.Time, reason string) float64 {
	st := m.states[pos.StrategyName]

	entryFee := charges.Calculate(pos.Quantity, pos.EntryPrice, true).Total
	exitFee := charges.Calculate(pos.Quantity, price, true).Total
	totalFee := entryFee + exitFee

	grossPnL := (price - pos.EntryPrice) * float64(pos.Quantity)
	if pos.Action == model.ActionShort {
		grossPnL = -grossPnL
	}
	netPnL := grossPnL - totalFee

	st.TotalCharges += exitFee

	if netPnL > 0 {
		banked := netPnL * 0.5
		st.BankedProfit += banked
		st.TradingCapital = st.InitialCapital + (netPnL - banked)
	} else {
		st.BankedProfit += netPnL
		st.TradingCapital = st.InitialCapital
	}

	delete(m.positions, pos.Key())
	if err := m.store.DeletePosition(ctx, pos.StrategyName, pos.Instrument); err != nil {
		m.logger.Errorf("%s: can't delete position %s", err, pos.Key())
	}
	m.persistState(ctx, st)

	m.trades.Log(ctx, ts, pos.StrategyName, pos.Instrument, exitAction(pos.Action), price, pos.Quantity,
		fmt.Sprintf("reason=%s net_pnl=%.2f fees=%.2f order_id=%s", reason, netPnL, totalFee, pos.OrderRequestID))
	m.logger.Infof("closed: %s position for %s, net pnl %.2f (%s)", pos.StrategyName, pos.Instrument, netPnL, reason)
	m.logSummary()

	return netPnL
}

func exitAction(a model.Action) string {
	if a == model.ActionShort {
		return "EXIT_SHORT"
	}
	return "EXIT_LONG"
}

// sizePosition picks the largest quantity whose cost plus entry fee fits in
// the available capital.
func sizePosition(capital, price float64) (int64, float64) {
	if price <= 0 {
		return 0, 0
	}
	quantity := int64(capital / price)
	for quantity > 0 {
		fee := charges.Calculate(quantity, price, true).Total
		if price*float64(quantity)+fee <= capital {
			return quantity, fee
		}
		quantity--
	}
	return 0, 0
}

// OpenPosition returns the open position for the pair, if any.
func (m *Manager) OpenPosition(strategyName, instrument string) (model.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.positions[strategyName+":"+instrument]
	return p, ok
}

func (m *Manager) OpenPositionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.positions)
}

// State returns a copy of the strategy's portfolio state.
func (m *Manager) State(strategyName string) (model.PortfolioState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[strategyName]
	if !ok {
		return model.PortfolioState{}, false
	}
	return *st, true
}

func (m *Manager) persistState(ctx context.Context, st *model.PortfolioState) {
	if err := m.store.SavePortfolioState(ctx, *st); err != nil {
		m.logger.Errorf("%s: can't save portfolio state for %s", err, st.StrategyName)
	}
}

func (m *Manager) persistPosition(ctx context.Context, pos model.Position) {
	if err := m.store.SavePosition(ctx, pos); err != nil {
		m.logger.Errorf("%s: can't save position %s", err, pos.Key())
	}
}

func (m *Manager) logSummary() {
	for name, st := range m.states {
		m.logger.Infof("portfolio %s | trading capital: %.2f | banked profit: %.2f | charges: %.2f",
			name, st.TradingCapital, st.BankedProfit, st.TotalCharges)
	}
}
