package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"report-workers/internal/common/logger"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func createDocument() *Document {
	return &Document{
		Filename:    "tower_a_welding.docx",
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Data:        []byte("PK\x03\x04\x00binary\xffpayload"),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewStore(client, 10*time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	id, err := store.Put(ctx, createDocument())
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.True(t, mr.Exists(Key(id)))
	assert.Equal(t, 10*time.Minute, mr.TTL(Key(id)))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.Key)
	assert.Equal(t, "tower_a_welding.docx", got.Filename)
	assert.Equal(t, createDocument().Data, got.Data)
	assert.Equal(t, createDocument().ContentType, got.ContentType)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStore_ExplicitKey(t *testing.T) {
	_, client := setupRedis(t)
	store := NewStore(client, 0, logger.NewNoOpLogger())

	doc := createDocument()
	doc.Key = "job-42"
	id, err := store.Put(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "job-42", id)
}

func TestStore_ExpiryIsHonored(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewStore(client, time.Minute, logger.NewNoOpLogger())
	ctx := context.Background()

	id, err := store.Put(ctx, createDocument())
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestStore_Delete(t *testing.T) {
	_, client := setupRedis(t)
	store := NewStore(client, time.Minute, logger.NewNoOpLogger())
	ctx := context.Background()

	id, err := store.Put(ctx, createDocument())
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, id))

	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestStore_GetBackendError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewStore(client, time.Minute, logger.NewNoOpLogger())

	mock.ExpectHGetAll(Key("abc")).SetErr(errors.New("connection refused"))

	_, err := store.Get(context.Background(), "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreFailed)
	assert.NotErrorIs(t, err, ErrDocumentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_PutBackendDown(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewStore(client, time.Minute, logger.NewNoOpLogger())
	mr.Close()

	_, err := store.Put(context.Background(), createDocument())
	assert.ErrorIs(t, err, ErrStoreFailed)
}
