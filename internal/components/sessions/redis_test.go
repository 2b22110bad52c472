package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, NewRedisStore(rdb)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	mr, store := newTestRedis(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	session := testSession(now)

	require.NoError(t, store.Save(ctx, session))
	assert.True(t, mr.Exists(keyPrefix+session.ID.String()))
	assert.InDelta(t, time.Hour.Seconds(), mr.TTL(keyPrefix+session.ID.String()).Seconds(), 5)

	got, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, session.Token, got.Token)
	assert.True(t, session.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, store.Delete(ctx, session.ID))
	_, err = store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_ExpiresWithSession(t *testing.T) {
	mr, store := newTestRedis(t)
	ctx := context.Background()
	session := testSession(time.Now())

	require.NoError(t, store.Save(ctx, session))
	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_RejectsExpiredSession(t *testing.T) {
	_, store := newTestRedis(t)
	session := testSession(time.Now().Add(-2 * time.Hour))

	err := store.Save(context.Background(), session)
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "SESSION_ALREADY_EXPIRED", oopsErr.Code())
}

func TestRedisStore_GetMissing(t *testing.T) {
	_, store := newTestRedis(t)

	_, err := store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_Unreachable(t *testing.T) {
	mr, store := newTestRedis(t)
	mr.Close()

	_, err := store.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}
