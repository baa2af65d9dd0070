package tradeconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"report-workers/internal/common/logger"
)

// FileStore keeps trade configurations in a JSON object keyed by trade. A missing or unreadable
// file leaves only the defaults.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger logger.Logger
}

func NewFileStore(path string, log logger.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: log.With(map[string]interface{}{"component": "trade-config", "backend": "file"}),
	}
}

func (s *FileStore) Get(ctx context.Context, trade string) (TradeConfig, error) {
	all, err := s.List(ctx)
	if err != nil {
		return TradeConfig{}, err
	}
	cfg, ok := all[Key(trade)]
	if !ok {
		return TradeConfig{}, fmt.Errorf("%w: %q", ErrTradeNotFound, trade)
	}
	return cfg, nil
}

func (s *FileStore) List(_ context.Context) (map[string]TradeConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(), nil
}

func (s *FileStore) Save(_ context.Context, trade string, cfg TradeConfig) error {
	key := Key(trade)
	if key == "" {
		return ErrInvalidTrade
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load()
	all[key] = normalize(cfg)

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create trade config dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write trade config: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace trade config: %w", err)
	}

	s.logger.Info("trade config saved", map[string]interface{}{"trade": key, "path": s.path})
	return nil
}

func (s *FileStore) load() map[string]TradeConfig {
	merged := Defaults()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to read trade configs, using defaults", map[string]interface{}{
				"path":  s.path,
				"error": err,
			})
		}
		return merged
	}

	var stored map[string]TradeConfig
	if err := json.Unmarshal(data, &stored); err != nil {
		s.logger.Warn("failed to parse trade configs, using defaults", map[string]interface{}{
			"path":  s.path,
			"error": err,
		})
		return merged
	}
	for trade, cfg := range stored {
		merged[Key(trade)] = cfg
	}
	return merged
}
