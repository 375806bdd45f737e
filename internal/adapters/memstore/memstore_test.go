package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	v, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.Set(ctx, "theme", []byte("dark")))
	v, err = s.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", string(v))

	require.NoError(t, s.Delete(ctx, "theme"))
	v, err = s.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Zero(t, s.Len())
}

func TestStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := New()
	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[0] = 'z'

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(v))

	v[1] = 'z'
	again, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestStore_EmptyKey(t *testing.T) {
	ctx := context.Background()
	s := New()
	assert.Error(t, s.Set(ctx, "", nil))
	_, err := s.Get(ctx, "")
	assert.Error(t, err)
	assert.NoError(t, s.Delete(ctx, ""))
}
