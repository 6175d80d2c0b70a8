package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/chesstactics/internal/repository/sqlite"
	"github.com/vytor/chesstactics/internal/testutil"
)

func TestSQLiteStore_RoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.MustClose(t, db)
	s := NewSQLiteStore(db, sqlite.NewProgressRepository(db))
	ctx := context.Background()

	_, err := s.Load(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "u1", []byte("blob")))
	data, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), data)

	require.NoError(t, s.Delete(ctx, "u1"))
	_, err = s.Load(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Ping(ctx))
}

// memoryKV mimics the redis commands the store uses.
type memoryKV struct {
	data   map[string][]byte
	getErr error
}

func (m *memoryKV) Get(ctx context.Context, key string) *redis.StringCmd {
	if m.getErr != nil {
		return redis.NewStringResult("", m.getErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (m *memoryKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = append([]byte(nil), value.([]byte)...)
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (m *memoryKV) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *memoryKV) Close() error { return nil }

func TestRedisStore_UsesPrefixedKeys(t *testing.T) {
	kv := &memoryKV{data: map[string][]byte{}}
	s := &RedisStore{client: kv}
	ctx := context.Background()

	_, err := s.Load(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "u1", []byte(`{"userId":"u1"}`)))
	assert.Contains(t, kv.data, "chesstactics:progress:u1")

	data, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"userId":"u1"}`, string(data))

	require.NoError(t, s.Delete(ctx, "u1"))
	assert.Empty(t, kv.data)
	assert.NoError(t, s.Ping(ctx))
}

func TestRedisStore_PropagatesErrors(t *testing.T) {
	boom := errors.New("connection refused")
	s := &RedisStore{client: &memoryKV{data: map[string][]byte{}, getErr: boom}}

	_, err := s.Load(context.Background(), "u1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}
