// Package exportindex makes exported reports searchable by project, tenant and trade.
package exportindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"report-workers/internal/common/logger"
)

var ErrIndexFailed = errors.New("INDEX_FAILED")

const DefaultIndex = "report-exports"

// Summary is the searchable part of an export. Document bytes are never indexed.
type Summary struct {
	ExportID       string    `json:"export_id"`
	DocumentKey    string    `json:"document_key"`
	Tenant         string    `json:"tenant,omitempty"`
	Trade          string    `json:"trade"`
	ProjectName    string    `json:"project_name,omitempty"`
	InspectionDate string    `json:"inspection_date,omitempty"`
	Filename       string    `json:"filename"`
	TemplateSource string    `json:"template_source"`
	Deficiencies   []string  `json:"deficiencies,omitempty"`
	Summary        string    `json:"deficiencies_summary,omitempty"`
	FindingsRows   int       `json:"findings_rows"`
	ImagesEmbedded int       `json:"images_embedded"`
	ExportedAt     time.Time `json:"exported_at"`
}

type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	if index == "" {
		index = DefaultIndex
	}
	return &Indexer{
		client: client,
		index:  index,
		logger: log.With(map[string]interface{}{"component": "export-index", "index": index}),
	}
}

// Index upserts s keyed by its export id.
func (i *Indexer) Index(ctx context.Context, s *Summary) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: encode summary: %v", ErrIndexFailed, err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: s.ExportID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("%w: %s: %s", ErrIndexFailed, res.Status(), bytes.TrimSpace(msg))
	}

	i.logger.Debug("export indexed", map[string]interface{}{
		"exportId": s.ExportID,
		"filename": s.Filename,
	})
	return nil
}
