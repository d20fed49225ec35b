package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinyfeed/internal/store"
	"tinyfeed/internal/store/storetest"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := New(Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, _ := newTestStore(t)
		return s
	})
}

func TestUsesOriginalKeyLayout(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	require.NoError(t, s.LPush(ctx, "timeline:1", "7"))
	require.NoError(t, s.HSet(ctx, "post:7", map[string]string{"message": "hello"}))

	list, err := mr.List("timeline:1")
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, list)
	assert.Equal(t, "hello", mr.HGet("post:7", "message"))
}

func TestErrorsWhenServerIsDown(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	mr.Close()

	_, err := s.Incr(ctx, "postid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incr postid")
}
