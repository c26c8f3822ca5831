package localstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore() *Store {
	return New(NewMemory(), zap.NewNop())
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore()

	data, ok, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestStore_JSONRoundTripAndMalformed(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.SetJSON(ctx, KeyUser, map[string]string{"role": "user"}))
	var got map[string]string
	ok, err := s.GetJSON(ctx, KeyUser, &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "user", got["role"])

	require.NoError(t, s.Set(ctx, KeyCart, []byte("{not json")))
	var cart []any
	ok, err = s.GetJSON(ctx, KeyCart, &cart)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestStore_DeleteNotifiesEachKey(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, KeyToken, []byte("a")))
	require.NoError(t, s.Set(ctx, KeyUser, []byte("{}")))

	var changed []string
	unsub := s.Subscribe(func(key string) { changed = append(changed, key) })
	defer unsub()

	require.NoError(t, s.Delete(ctx, KeyToken, KeyUser))
	assert.Equal(t, []string{KeyToken, KeyUser}, changed)

	_, ok, _ := s.Get(ctx, KeyToken)
	assert.False(t, ok)
}

func TestStore_Update(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	notified := 0
	s.Subscribe(func(string) { notified++ })

	err := s.Update(ctx, "counter", func(cur []byte, exists bool) ([]byte, error) {
		assert.False(t, exists)
		return []byte("1"), nil
	})
	require.NoError(t, err)

	err = s.Update(ctx, "counter", func(cur []byte, exists bool) ([]byte, error) {
		assert.True(t, exists)
		assert.Equal(t, "1", string(cur))
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, notified)

	boom := errors.New("boom")
	assert.ErrorIs(t, s.Update(ctx, "counter", func([]byte, bool) ([]byte, error) { return nil, boom }), boom)
}
