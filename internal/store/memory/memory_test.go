package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinyfeed/internal/store"
	"tinyfeed/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New()
	})
}

func TestSMembersKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, m := range []string{"3", "1", "2", "1"} {
		_, err := s.SAdd(ctx, "following:7", m)
		require.NoError(t, err)
	}

	members, err := s.SMembers(ctx, "following:7")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1", "2"}, members)
}

func TestHGetAllReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.HSet(ctx, "user:1", map[string]string{"username": "alice"}))

	all, err := s.HGetAll(ctx, "user:1")
	require.NoError(t, err)
	all["username"] = "mallory"

	v, _, err := s.HGet(ctx, "user:1", "username")
	require.NoError(t, err)
	assert.Equal(t, "alice", v)
}
