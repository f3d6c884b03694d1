package portfolio

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantghar/paper-trader/internal/charges"
	"github.com/quantghar/paper-trader/internal/logger"
	"github.com/quantghar/paper-trader/internal/model"
	"github.com/quantghar/paper-trader/internal/tradelog"
)

// memStore keeps the durable surface in maps so manager behavior can be
// exercised and recovery replayed without a database.
type memStore struct {
	mu        sync.Mutex
	states    map[string]model.PortfolioState
	positions map[string]model.Position
	trades    []model.TradeRecord
}

func newMemStore() *memStore {
	return &memStore{
		states:    make(map[string]model.PortfolioState),
		positions: make(map[string]model.Position),
	}
}

func (s *memStore) SavePortfolioState(_ context.Context, st model.PortfolioState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[st.StrategyName] = st
	return nil
}

func (s *memStore) LoadPortfolioStates(_ context.Context) ([]model.PortfolioState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.PortfolioState, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, st)
	}
	return out, nil
}

func (s *memStore) SavePosition(_ context.Context, p model.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[p.Key()] = p
	return nil
}

func (s *memStore) DeletePosition(_ context.Context, strategyName, instrument string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.positions, strategyName+":"+instrument)
	return nil
}

func (s *memStore) LoadOpenPositions(_ context.Context) ([]model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Position, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, p)
	}
	return out, nil
}

func (s *memStore) AppendTrade(_ context.Context, t model.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = int64(len(s.trades) + 1)
	s.trades = append(s.trades, t)
	return nil
}

func (s *memStore) tradeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trades)
}

func (s *memStore) lastTrade() model.TradeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trades[len(s.trades)-1]
}

func newTestManager(t *testing.T, store *memStore, capitals map[string]float64) *Manager {
	t.Helper()
	log := logger.NewNopLogger()
	m := NewManager(store, tradelog.NewLogger(store, log), capitals, log)
	require.NoError(t, m.Init(context.Background()))
	return m
}

func longSignal(price, stopLoss, target float64) model.Signal {
	return model.Signal{Action: model.ActionLong, Price: price, StopLoss: stopLoss, Target: target}
}

func TestInitCreatesFreshStates(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store, map[string]float64{"alphaone": 50000})

	st, ok := m.State("alphaone")
	require.True(t, ok)
	assert.Equal(t, 50000.0, st.InitialCapital)
	assert.Equal(t, 50000.0, st.TradingCapital)
	assert.Zero(t, st.BankedProfit)
	assert.Zero(t, st.TotalCharges)

	// fresh record is persisted immediately
	assert.Equal(t, st, store.states["alphaone"])
}

func TestEnterSizesToCapital(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store, map[string]float64{"breakout": 1000})
	ts := time.Now()

	opened, err := m.Enter(context.Background(), "breakout", "RELIANCE", longSignal(100, 95, 110), ts)
	require.NoError(t, err)
	require.True(t, opened)

	pos, ok := m.OpenPosition("breakout", "RELIANCE")
	require.True(t, ok)
	// 10 shares cost 1000 and leave nothing for the entry fee
	assert.Equal(t, int64(9), pos.Quantity)
	assert.Equal(t, model.ActionLong, pos.Action)
	assert.Equal(t, 100.0, pos.HighestSinceEntry)
	assert.NotEmpty(t, pos.OrderRequestID)

	entryFee := charges.Calculate(9, 100, true).Total
	st, _ := m.State("breakout")
	assert.InDelta(t, 1000-900-entryFee, st.TradingCapital, 1e-9)
	assert.InDelta(t, entryFee, st.TotalCharges, 1e-9)
	assert.GreaterOrEqual(t, st.TradingCapital, 0.0)

	// entry is persisted and logged
	assert.Contains(t, store.positions, "breakout:RELIANCE")
	assert.Equal(t, 1, store.tradeCount())
	assert.Equal(t, "LONG", store.lastTrade().Action)
}

func TestEnterRejectsInsufficientCapital(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store, map[string]float64{"breakout": 50})

	opened, err := m.Enter(context.Background(), "breakout", "RELIANCE", longSignal(100, 95, 110), time.Now())
	require.NoError(t, err)
	assert.False(t, opened)

	st, _ := m.State("breakout")
	assert.Equal(t, 50.0, st.TradingCapital)
	assert.Zero(t, st.TotalCharges)
	assert.Zero(t, m.OpenPositionCount())
	assert.Zero(t, store.tradeCount())
}

func TestEnterRejectsDuplicatePosition(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store, map[string]float64{"breakout": 100000})
	ctx := context.Background()

	opened, err := m.Enter(ctx, "breakout", "TCS", longSignal(100, 95, 110), time.Now())
	require.NoError(t, err)
	require.True(t, opened)
	stBefore, _ := m.State("breakout")

	opened, err = m.Enter(ctx, "breakout", "TCS", longSignal(101, 96, 111), time.Now())
	require.NoError(t, err)
	assert.False(t, opened)

	stAfter, _ := m.State("breakout")
	assert.Equal(t, stBefore, stAfter)
	assert.Equal(t, 1, m.OpenPositionCount())
}

func TestEnterIgnoresFlatSignal(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store, map[string]float64{"breakout": 1000})

	opened, err := m.Enter(context.Background(), "breakout", "TCS", model.Signal{Action: model.ActionNone}, time.Now())
	require.NoError(t, err)
	assert.False(t, opened)
}

func TestEnterUnknownStrategy(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store, map[string]float64{"breakout": 1000})

	_, err := m.Enter(context.Background(), "momentum", "TCS", longSignal(100, 95, 110), time.Now())
	assert.Error(t, err)
}

func TestProfitSplitOnWinningExit(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store, map[string]float64{"breakout": 10000})
	ctx := context.Background()

	opened, err := m.Enter(ctx, "breakout", "INFY", longSignal(100, 95, 110), time.Now())
	require.NoError(t, err)
	require.True(t, opened)
	pos, _ := m.OpenPosition("breakout", "INFY")

	closed := m.Maintain(ctx, "breakout", "INFY", 110, time.Now(), false)
	require.True(t, closed)
	assert.Zero(t, m.OpenPositionCount())

	entryFee := charges.Calculate(pos.Quantity, 100, true).Total
	exitFee := charges.Calculate(pos.Quantity, 110, true).Total
	netPnL := 10*float64(pos.Quantity) - entryFee - exitFee
	require.Greater(t, netPnL, 0.0)

	st, _ := m.State("breakout")
	assert.InDelta(t, netPnL/2, st.BankedProfit, 1e-9)
	assert.InDelta(t, 10000+netPnL/2, st.TradingCapital, 1e-9)
	assert.InDelta(t, entryFee+exitFee, st.TotalCharges, 1e-9)

	trade := store.lastTrade()
	assert.Equal(t, "EXIT_LONG", trade.Action)
	assert.Contains(t, trade.Details, "reason=target")
}

func TestLossAbsorbedIntoBankedProfit(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store, map[string]float64{"breakout": 10000})
	ctx := context.Background()

	opened, err := m.Enter(ctx, "breakout", "INFY", longSignal(100, 95, 110), time.Now())
	require.NoError(t, err)
	require.True(t, opened)
	pos, _ := m.OpenPosition("breakout", "INFY")

	closed := m.Maintain(ctx, "breakout", "INFY", 95, time.Now(), false)
	require.True(t, closed)

	entryFee := charges.Calculate(pos.Quantity, 100, true).Total
	exitFee := charges.Calculate(pos.Quantity, 95, true).Total
	netPnL := -5*float64(pos.Quantity) - entryFee - exitFee
	require.Less(t, netPnL, 0.0)

	st, _ := m.State("breakout")
	assert.InDelta(t, netPnL, st.BankedProfit, 1e-9)
	assert.Equal(t, 10000.0, st.TradingCapital)
	assert.Contains(t, store.lastTrade().Details, "reason=stop_loss")
}

func TestShortExitOnTarget(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store, map[string]float64{"breakout": 10000})
	ctx := context.Background()

	sig := model.Signal{Action: model.ActionShort, Price: 100, StopLoss: 105, Target: 90}
	opened, err := m.Enter(ctx, "breakout", "SBIN", sig, time.Now())
	require.NoError(t, err)
	require.True(t, opened)
	pos, _ := m.OpenPosition("breakout", "SBIN")
	assert.Equal(t, 100.0, pos.LowestSinceEntry)

	closed := m.Maintain(ctx, "breakout", "SBIN", 90, time.Now(), false)
	require.True(t, closed)

	entryFee := charges.Calculate(pos.Quantity, 100, true).Total
	exitFee := charges.Calculate(pos.Quantity, 90, true).Total
	netPnL := 10*float64(pos.Quantity) - entryFee - exitFee

	st, _ := m.State("breakout")
	assert.InDelta(t, netPnL/2, st.BankedProfit, 1e-9)
	assert.Equal(t, "EXIT_SHORT", store.lastTrade().Action)
}

func TestTrailingStopLong(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store, map[string]float64{"breakout": 10000})
	ctx := context.Background()

	sig := model.Signal{Action: model.ActionLong, Price: 100, StopLoss: 99, Target: 1000, TrailingSLPct: 1.0}
	opened, err := m.Enter(ctx, "breakout", "HDFC", sig, time.Now())
	require.NoError(t, err)
	require.True(t, opened)

	// price runs up, stop trails the high
	closed := m.Maintain(ctx, "breakout", "HDFC", 110, time.Now(), false)
	assert.False(t, closed)
	pos, _ := m.OpenPosition("breakout", "HDFC")
	assert.Equal(t, 110.0, pos.HighestSinceEntry)
	assert.InDelta(t, 110*0.99, pos.StopLoss, 1e-9)

	// pullback below the high leaves the stop in place
	closed = m.Maintain(ctx, "breakout", "HDFC", 109.5, time.Now(), false)
	assert.False(t, closed)
	pos, _ = m.OpenPosition("breakout", "HDFC")
	assert.Equal(t, 110.0, pos.HighestSinceEntry)
	assert.InDelta(t, 108.9, pos.StopLoss, 1e-9)

	// deeper pullback crosses the trailed stop
	closed = m.Maintain(ctx, "breakout", "HDFC", 108, time.Now(), false)
	assert.True(t, closed)
	assert.Contains(t, store.lastTrade().Details, "reason=stop_loss")
}

func TestTrailingStopShort(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store, map[string]float64{"breakout": 10000})
	ctx := context.Background()

	sig := model.Signal{Action: model.ActionShort, Price: 100, StopLoss: 101, Target: 1, TrailingSLPct: 1.0}
	opened, err := m.Enter(ctx, "breakout", "HDFC", sig, time.Now())
	require.NoError(t, err)
	require.True(t, opened)

	closed := m.Maintain(ctx, "breakout", "HDFC", 90, time.Now(), false)
	assert.False(t, closed)
	pos, _ := m.OpenPosition("breakout", "HDFC")
	assert.Equal(t, 90.0, pos.LowestSinceEntry)
	assert.InDelta(t, 90*1.01, pos.StopLoss, 1e-9)

	closed = m.Maintain(ctx, "breakout", "HDFC", 91, time.Now(), false)
	assert.True(t, closed)
	assert.Contains(t, store.lastTrade().Details, "reason=stop_loss")
}

func TestSquareOffClosesAtAnyPrice(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store, map[string]float64{"breakout": 10000})
	ctx := context.Background()

	sig := model.Signal{Action: model.ActionLong, Price: 100, StopLoss: 50, Target: 1000, TrailingSLPct: 1.0}
	opened, err := m.Enter(ctx, "breakout", "WIPRO", sig, time.Now())
	require.NoError(t, err)
	require.True(t, opened)

	closed := m.Maintain(ctx, "breakout", "WIPRO", 100.5, time.Now(), true)
	require.True(t, closed)
	assert.Zero(t, m.OpenPositionCount())
	assert.Contains(t, store.lastTrade().Details, "reason=square_off")
	assert.NotContains(t, store.positions, "breakout:WIPRO")
}

func TestMaintainWithoutPosition(t *testing.T) {
	store := newMemStore()
	m := newTestManager(t, store, map[string]float64{"breakout": 10000})

	assert.False(t, m.Maintain(context.Background(), "breakout", "WIPRO", 100, time.Now(), false))
}

func TestRecoveryRestoresStateAndPositions(t *testing.T) {
	store := newMemStore()
	capitals := map[string]float64{"breakout": 10000, "alphaone": 20000}
	m := newTestManager(t, store, capitals)
	ctx := context.Background()

	// one completed round trip and one still-open position
	opened, err := m.Enter(ctx, "breakout", "INFY", longSignal(100, 95, 110), time.Now())
	require.NoError(t, err)
	require.True(t, opened)
	require.True(t, m.Maintain(ctx, "breakout", "INFY", 110, time.Now(), false))

	sig := model.Signal{Action: model.ActionLong, Price: 200, StopLoss: 190, Target: 220, TrailingSLPct: 0.5}
	opened, err = m.Enter(ctx, "alphaone", "TCS", sig, time.Now())
	require.NoError(t, err)
	require.True(t, opened)

	before, _ := m.State("breakout")
	posBefore, _ := m.OpenPosition("alphaone", "TCS")

	// simulate a restart against the same store
	restarted := newTestManager(t, store, capitals)

	after, ok := restarted.State("breakout")
	require.True(t, ok)
	assert.Equal(t, before, after)

	posAfter, ok := restarted.OpenPosition("alphaone", "TCS")
	require.True(t, ok)
	assert.Equal(t, posBefore, posAfter)
	assert.Equal(t, 1, restarted.OpenPositionCount())

	// the recovered position still exits normally
	require.True(t, restarted.Maintain(ctx, "alphaone", "TCS", 220, time.Now(), false))
	st, _ := restarted.State("alphaone")
	assert.Positive(t, st.BankedProfit)
}
