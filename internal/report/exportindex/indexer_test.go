package exportindex

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"report-workers/internal/common/logger"
)

type capturedRequest struct {
	method string
	path   string
	body   map[string]interface{}
}

func setupElasticsearch(t *testing.T, status int) (*elasticsearch.Client, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(raw, &body)
		captured = append(captured, capturedRequest{method: r.Method, path: r.URL.Path, body: body})

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 300 {
			_, _ = w.Write([]byte(`{"error":{"type":"mapper_parsing_exception"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{server.URL},
	})
	require.NoError(t, err)
	return client, &captured
}

func createSummary() *Summary {
	return &Summary{
		ExportID:       "exp-1",
		DocumentKey:    "doc-1",
		Tenant:         "Acme Steel",
		Trade:          "welding",
		ProjectName:    "Tower A",
		Filename:       "tower_a_welding.docx",
		TemplateSource: "trade",
		Deficiencies:   []string{"Weld undersized"},
		FindingsRows:   3,
		ExportedAt:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestIndexer_Index(t *testing.T) {
	client, captured := setupElasticsearch(t, http.StatusCreated)
	idx := NewIndexer(client, "", logger.NewTestLogger(t))

	require.NoError(t, idx.Index(context.Background(), createSummary()))

	require.Len(t, *captured, 1)
	req := (*captured)[0]
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/report-exports/_doc/exp-1", req.path)
	assert.Equal(t, "Tower A", req.body["project_name"])
	assert.Equal(t, float64(3), req.body["findings_rows"])
}

func TestIndexer_ErrorResponse(t *testing.T) {
	client, _ := setupElasticsearch(t, http.StatusBadRequest)
	idx := NewIndexer(client, "custom-index", logger.NewNoOpLogger())

	err := idx.Index(context.Background(), createSummary())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexFailed)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}
