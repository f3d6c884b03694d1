package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/quantghar/paper-trader/internal/model"
)

const (
	_upsertPortfolioState = `INSERT INTO portfolio_state (
								strategy_name,
								initial_capital,
								trading_capital,
								banked_profit,
								total_charges
							) VALUES ($1,$2,$3,$4,$5)
							ON CONFLICT (strategy_name)
							DO UPDATE SET
								trading_capital = EXCLUDED.trading_capital,
								banked_profit = EXCLUDED.banked_profit,
								total_charges = EXCLUDED.total_charges;`
	_queryPortfolioStates = `SELECT strategy_name, initial_capital, trading_capital, banked_profit, total_charges
							FROM portfolio_state`

	_upsertPosition = `INSERT INTO open_positions (
								id, strategy_name, instrument, details
							) VALUES ($1,$2,$3,$4)
							ON CONFLICT (id)
							DO UPDATE SET
								details = EXCLUDED.details;`
	_deletePosition = `DELETE FROM open_positions WHERE id = $1`
	_queryPositions = `SELECT details FROM open_positions`

	_insertTrade = `INSERT INTO trades (
								ts, strategy_name, instrument, action, price, quantity, details
							) VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_queryTrades = `SELECT id, ts, strategy_name, instrument, action, price, quantity, details
							FROM trades ORDER BY id`
)

func (s *Store) SavePortfolioState(ctx context.Context, st model.PortfolioState) error {
	if _, err := s.db.ExecContext(ctx, _upsertPortfolioState,
		st.StrategyName,
		st.InitialCapital,
		st.TradingCapital,
		st.BankedProfit,
		st.TotalCharges,
	); err != nil {
		return fmt.Errorf("%w: can't upsert portfolio state", err)
	}
	return nil
}

func (s *Store) LoadPortfolioStates(ctx context.Context) ([]model.PortfolioState, error) {
	var states []model.PortfolioState
	if err := s.db.SelectContext(ctx, &states, _queryPortfolioStates); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: can't query portfolio states", err)
	}
	return states, nil
}

func (s *Store) SavePosition(ctx context.Context, p model.Position) error {
	details, err := sonic.Marshal(p)
	if err != nil {
		return fmt.Errorf("%w: can't marshal position", err)
	}
	if _, err := s.db.ExecContext(ctx, _upsertPosition,
		p.Key(), p.StrategyName, p.Instrument, details); err != nil {
		return fmt.Errorf("%w: can't upsert position", err)
	}
	return nil
}

func (s *Store) DeletePosition(ctx context.Context, strategyName, instrument string) error {
	id := strategyName + ":" + instrument
	if _, err := s.db.ExecContext(ctx, _deletePosition, id); err != nil {
		return fmt.Errorf("%w: can't delete position", err)
	}
	return nil
}

func (s *Store) LoadOpenPositions(ctx context.Context) ([]model.Position, error) {
	var raws [][]byte
	if err := s.db.SelectContext(ctx, &raws, _queryPositions); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: can't query open positions", err)
	}

	positions := make([]model.Position, 0, len(raws))
	for _, raw := range raws {
		var p model.Position
		if err := sonic.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: can't unmarshal position", err)
		}
		positions = append(positions, p)
	}
	return positions, nil
}

func (s *Store) AppendTrade(ctx context.Context, t model.TradeRecord) error {
	if _, err := s.db.ExecContext(ctx, _insertTrade,
		t.Ts, t.StrategyName, t.Instrument, t.Action, t.Price, t.Quantity, t.Details); err != nil {
		return fmt.Errorf("%w: can't insert trade", err)
	}
	return nil
}

func (s *Store) LoadAllTrades(ctx context.Context) ([]model.TradeRecord, error) {
	var trades []model.TradeRecord
	if err := s.db.SelectContext(ctx, &trades, _queryTrades); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: can't query trades", err)
	}
	return trades, nil
}
