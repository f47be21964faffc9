package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()

	_, err := store.Get(ctx, RoomsCollection)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, RoomsCollection, []byte(`[{"id":1}]`)))
	got, err := store.Get(ctx, RoomsCollection)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(got))

	require.NoError(t, store.Put(ctx, RoomsCollection, []byte(`[]`)))
	got, err = store.Get(ctx, RoomsCollection)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(got))

	nested := roomConfigCollection(42)
	require.NoError(t, store.Put(ctx, nested, []byte(`{"autoRefresh":true}`)))
	got, err = store.Get(ctx, nested)
	require.NoError(t, err)
	assert.JSONEq(t, `{"autoRefresh":true}`, string(got))

	require.NoError(t, store.Delete(ctx, RoomsCollection))
	_, err = store.Get(ctx, RoomsCollection)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Delete(ctx, RoomsCollection))

	assert.Error(t, store.Put(ctx, "../escape", []byte(`{}`)))
	assert.Error(t, store.Put(ctx, "", []byte(`{}`)))
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	storeContract(t, store)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	storeContract(t, NewRedisStore(client))

	require.NoError(t, NewRedisStore(client).Put(context.Background(), SensorsCollection, []byte(`[]`)))
	assert.True(t, mr.Exists("panorama:doc:sensors"))
}
