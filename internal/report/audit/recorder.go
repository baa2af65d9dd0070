// Package audit keeps a Postgres trail of every exported report.
package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"report-workers/internal/common/logger"
)

var ErrAuditFailed = errors.New("DATABASE_ERROR")

// Schema creates the audit table. It is safe to run repeatedly.
const Schema = `CREATE TABLE IF NOT EXISTS report_exports (
	id              UUID PRIMARY KEY,
	document_key    TEXT NOT NULL,
	tenant          TEXT NOT NULL DEFAULT '',
	trade           TEXT NOT NULL DEFAULT '',
	project_name    TEXT NOT NULL DEFAULT '',
	filename        TEXT NOT NULL,
	template_path   TEXT NOT NULL,
	template_source TEXT NOT NULL,
	size_bytes      INTEGER NOT NULL,
	findings_rows   INTEGER NOT NULL,
	images_embedded INTEGER NOT NULL,
	images_skipped  INTEGER NOT NULL,
	deficiencies    INTEGER NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS report_exports_tenant_created_idx ON report_exports (tenant, created_at DESC);`

const (
	insertExport = `INSERT INTO report_exports (
		id, document_key, tenant, trade, project_name, filename, template_path, template_source,
		size_bytes, findings_rows, images_embedded, images_skipped, deficiencies, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	selectRecent = `SELECT id, document_key, tenant, trade, project_name, filename, template_path,
		template_source, size_bytes, findings_rows, images_embedded, images_skipped, deficiencies, created_at
	FROM report_exports
	WHERE ($1 = '' OR tenant = $1)
	ORDER BY created_at DESC
	LIMIT $2`
)

const defaultRecentLimit = 20

// Export is one row of the audit trail.
type Export struct {
	ID             string    `json:"id"`
	DocumentKey    string    `json:"documentKey"`
	Tenant         string    `json:"tenant,omitempty"`
	Trade          string    `json:"trade"`
	ProjectName    string    `json:"projectName,omitempty"`
	Filename       string    `json:"filename"`
	TemplatePath   string    `json:"templatePath"`
	TemplateSource string    `json:"templateSource"`
	SizeBytes      int       `json:"sizeBytes"`
	FindingsRows   int       `json:"findingsRows"`
	ImagesEmbedded int       `json:"imagesEmbedded"`
	ImagesSkipped  int       `json:"imagesSkipped"`
	Deficiencies   int       `json:"deficiencies"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Recorder struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewRecorder(db *sql.DB, log logger.Logger) *Recorder {
	return &Recorder{
		db:     db,
		logger: log.With(map[string]interface{}{"component": "export-audit"}),
		now:    time.Now,
	}
}

func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("%w: create schema: %v", ErrAuditFailed, err)
	}
	return nil
}

// Record inserts e, filling ID and CreatedAt when they are empty, and returns the row id.
func (r *Recorder) Record(ctx context.Context, e *Export) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}

	_, err := r.db.ExecContext(ctx, insertExport,
		e.ID, e.DocumentKey, e.Tenant, e.Trade, e.ProjectName, e.Filename, e.TemplatePath,
		e.TemplateSource, e.SizeBytes, e.FindingsRows, e.ImagesEmbedded, e.ImagesSkipped,
		e.Deficiencies, e.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("%w: insert export: %v", ErrAuditFailed, err)
	}

	r.logger.Debug("export recorded", map[string]interface{}{
		"id":       e.ID,
		"tenant":   e.Tenant,
		"filename": e.Filename,
	})
	return e.ID, nil
}

// Recent lists the newest exports, optionally for one tenant only.
func (r *Recorder) Recent(ctx context.Context, tenant string, limit int) ([]Export, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := r.db.QueryContext(ctx, selectRecent, tenant, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query exports: %v", ErrAuditFailed, err)
	}
	defer rows.Close()

	var out []Export
	for rows.Next() {
		var e Export
		if err := rows.Scan(
			&e.ID, &e.DocumentKey, &e.Tenant, &e.Trade, &e.ProjectName, &e.Filename,
			&e.TemplatePath, &e.TemplateSource, &e.SizeBytes, &e.FindingsRows,
			&e.ImagesEmbedded, &e.ImagesSkipped, &e.Deficiencies, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scan export: %v", ErrAuditFailed, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuditFailed, err)
	}
	return out, nil
}
