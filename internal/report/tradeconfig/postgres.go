package tradeconfig

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"report-workers/internal/common/logger"
)

const (
	Schema = `CREATE TABLE IF NOT EXISTS trade_configs (
	trade              TEXT PRIMARY KEY,
	system_prompt      TEXT NOT NULL DEFAULT '',
	checklist_template TEXT NOT NULL DEFAULT '',
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

	selectTrade = `SELECT system_prompt, checklist_template FROM trade_configs WHERE trade = $1`
	selectAll   = `SELECT trade, system_prompt, checklist_template FROM trade_configs`
	upsertTrade = `INSERT INTO trade_configs (trade, system_prompt, checklist_template, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (trade) DO UPDATE
	SET system_prompt = EXCLUDED.system_prompt,
	    checklist_template = EXCLUDED.checklist_template,
	    updated_at = NOW()`
)

// PostgresStore keeps trade configurations in the trade_configs table so every worker replica
// sees the same guidance.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log.With(map[string]interface{}{"component": "trade-config", "backend": "postgres"}),
	}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, trade string) (TradeConfig, error) {
	key := Key(trade)
	var cfg TradeConfig
	err := s.db.QueryRowContext(ctx, selectTrade, key).Scan(&cfg.SystemPrompt, &cfg.ChecklistTemplate)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return TradeConfig{}, fmt.Errorf("query trade config %q: %w", key, err)
	}
	if def, ok := Defaults()[key]; ok {
		return def, nil
	}
	return TradeConfig{}, fmt.Errorf("%w: %q", ErrTradeNotFound, trade)
}

func (s *PostgresStore) List(ctx context.Context) (map[string]TradeConfig, error) {
	rows, err := s.db.QueryContext(ctx, selectAll)
	if err != nil {
		return nil, fmt.Errorf("query trade configs: %w", err)
	}
	defer rows.Close()

	merged := Defaults()
	for rows.Next() {
		var trade string
		var cfg TradeConfig
		if err := rows.Scan(&trade, &cfg.SystemPrompt, &cfg.ChecklistTemplate); err != nil {
			return nil, fmt.Errorf("scan trade config: %w", err)
		}
		merged[Key(trade)] = cfg
	}
	return merged, rows.Err()
}

func (s *PostgresStore) Save(ctx context.Context, trade string, cfg TradeConfig) error {
	key := Key(trade)
	if key == "" {
		return ErrInvalidTrade
	}
	cfg = normalize(cfg)
	if _, err := s.db.ExecContext(ctx, upsertTrade, key, cfg.SystemPrompt, cfg.ChecklistTemplate); err != nil {
		return fmt.Errorf("save trade config %q: %w", key, err)
	}
	s.logger.Info("trade config saved", map[string]interface{}{"trade": key})
	return nil
}
