package template

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"report-workers/internal/common/logger"
)

var ErrInvalidTemplate = errors.New("TEMPLATE_VALIDATION_FAILED")

// Store writes uploaded templates into the Layout. Concurrent uploads to the same slot race and
// the last rename wins.
type Store struct {
	layout   Layout
	validate func([]byte) error
	logger   logger.Logger
}

// NewStore returns a Store. validate may be nil to accept any bytes.
func NewStore(layout Layout, validate func([]byte) error, log logger.Logger) *Store {
	return &Store{
		layout:   layout,
		validate: validate,
		logger:   log.With(map[string]interface{}{"component": "template-store"}),
	}
}

// Save validates data and writes it to the slot for dest. It returns the written path.
func (s *Store) Save(ctx context.Context, dest Destination, tenant, trade string, data []byte) (string, error) {
	path, err := s.layout.PathFor(dest, tenant, trade)
	if err != nil {
		return "", err
	}
	if s.validate != nil {
		if err := s.validate(data); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := writeAtomic(path, data); err != nil {
		return "", fmt.Errorf("write template %s: %w", path, err)
	}

	s.logger.Info("template stored", map[string]interface{}{
		"path":        path,
		"destination": string(dest),
		"tenant":      tenant,
		"trade":       trade,
		"sizeBytes":   len(data),
	})
	return path, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".upload-*.docx")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
