// Package docstore hands finished report documents from the export worker to whoever downloads
// them. Documents live in Redis hashes and expire after a fixed TTL.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"report-workers/internal/common/logger"
)

var (
	ErrDocumentNotFound = errors.New("DOCUMENT_NOT_FOUND")
	ErrStoreFailed      = errors.New("DOCUMENT_STORE_FAILED")
)

const (
	keyPrefix  = "report:document:"
	DefaultTTL = time.Hour

	fieldFilename    = "filename"
	fieldContentType = "content_type"
	fieldData        = "data"
	fieldCreatedAt   = "created_at"
)

type Document struct {
	Key         string
	Filename    string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
	now    func() time.Time
}

func NewStore(client *redis.Client, ttl time.Duration, log logger.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		client: client,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "docstore"}),
		now:    time.Now,
	}
}

func Key(id string) string {
	return keyPrefix + id
}

// Put stores doc under a fresh id (or doc.Key when set) and returns the id.
func (s *Store) Put(ctx context.Context, doc *Document) (string, error) {
	id := doc.Key
	if id == "" {
		id = uuid.NewString()
	}
	created := doc.CreatedAt
	if created.IsZero() {
		created = s.now().UTC()
	}

	key := Key(id)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldFilename, doc.Filename,
			fieldContentType, doc.ContentType,
			fieldData, doc.Data,
			fieldCreatedAt, strconv.FormatInt(created.Unix(), 10),
		)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}

	s.logger.Debug("document stored", map[string]interface{}{
		"key":       id,
		"filename":  doc.Filename,
		"sizeBytes": len(doc.Data),
		"ttl":       s.ttl.String(),
	})
	return id, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	fields, err := s.client.HGetAll(ctx, Key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}

	doc := &Document{
		Key:         id,
		Filename:    fields[fieldFilename],
		ContentType: fields[fieldContentType],
		Data:        []byte(fields[fieldData]),
	}
	if sec, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64); err == nil {
		doc.CreatedAt = time.Unix(sec, 0).UTC()
	}
	return doc, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, Key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	return nil
}
