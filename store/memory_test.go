package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/leadrank/core"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	_, err := s.Get(ctx, "missing")
	assert.True(t, core.IsStoreNotFound(err))

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 60))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	batch, err := s.BatchGet(ctx, []string{"k", "missing"})
	require.NoError(t, err)
	assert.Len(t, batch, 1)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.True(t, core.IsStoreNotFound(err))
}

func TestMemoryStore_ZRevRangeByScore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	for i, m := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.ZAdd(ctx, "z", float64(i+1), m))
	}

	got, err := s.ZRevRangeByScore(ctx, "z", 2, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c", "b"}, got)

	got, err = s.ZRevRangeByScore(ctx, "z", 0, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c"}, got)

	n, err := s.ZCard(ctx, "z")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestMemoryStore_CloseTwice(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
