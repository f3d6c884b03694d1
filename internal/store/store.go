package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/quantghar/paper-trader/internal/logger"
)

const _schema = `
CREATE TABLE IF NOT EXISTS portfolio_state (
	strategy_name   TEXT PRIMARY KEY,
	initial_capital DOUBLE PRECISION NOT NULL,
	trading_capital DOUBLE PRECISION NOT NULL,
	banked_profit   DOUBLE PRECISION NOT NULL,
	total_charges   DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS open_positions (
	id            TEXT PRIMARY KEY,
	strategy_name TEXT NOT NULL,
	instrument    TEXT NOT NULL,
	details       JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	id            SERIAL PRIMARY KEY,
	ts            TIMESTAMPTZ NOT NULL,
	strategy_name TEXT NOT NULL,
	instrument    TEXT NOT NULL,
	action        TEXT NOT NULL,
	price         DOUBLE PRECISION NOT NULL,
	quantity      BIGINT NOT NULL,
	details       TEXT
);`

// Store is the durable persistence layer for the three record kinds the
// engine needs to survive a restart: per-strategy portfolio state, open
// positions keyed by "strategy:instrument", and the append-only trade log.
type Store struct {
	db     *sqlx.DB
	logger logger.Logger
}

func NewStore(db *sqlx.DB, logger logger.Logger) (*Store, error) {
	if _, err := db.Exec(_schema); err != nil {
		return nil, fmt.Errorf("%w: can't apply schema", err)
	}
	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
