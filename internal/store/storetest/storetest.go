// Package storetest holds the behavior every store.Store backend must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinyfeed/internal/store"
)

// Run exercises a backend. newStore must return an empty store each call.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	ctx := context.Background()

	t.Run("counters start at one", func(t *testing.T) {
		s := newStore(t)
		v, err := s.Incr(ctx, "userid")
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)

		v, err = s.Incr(ctx, "userid")
		require.NoError(t, err)
		assert.Equal(t, int64(2), v)

		v, err = s.Incr(ctx, "postid")
		require.NoError(t, err)
		assert.Equal(t, int64(1), v, "counters are independent")
	})

	t.Run("hash fields", func(t *testing.T) {
		s := newStore(t)
		_, ok, err := s.HGet(ctx, "user:1", "username")
		require.NoError(t, err)
		assert.False(t, ok)

		all, err := s.HGetAll(ctx, "user:1")
		require.NoError(t, err)
		assert.Empty(t, all)

		require.NoError(t, s.HSet(ctx, "user:1", map[string]string{"username": "alice", "hash": "x"}))
		v, ok, err := s.HGet(ctx, "user:1", "username")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "alice", v)

		require.NoError(t, s.HSet(ctx, "user:1", map[string]string{"hash": "y"}))
		all, err = s.HGetAll(ctx, "user:1")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"username": "alice", "hash": "y"}, all)
	})

	t.Run("hsetnx keeps the first writer", func(t *testing.T) {
		s := newStore(t)
		set, err := s.HSetNX(ctx, "users", "alice", "1")
		require.NoError(t, err)
		assert.True(t, set)

		set, err = s.HSetNX(ctx, "users", "alice", "2")
		require.NoError(t, err)
		assert.False(t, set)

		v, _, err := s.HGet(ctx, "users", "alice")
		require.NoError(t, err)
		assert.Equal(t, "1", v)
	})

	t.Run("sets report new members", func(t *testing.T) {
		s := newStore(t)
		added, err := s.SAdd(ctx, "followers:1", "2")
		require.NoError(t, err)
		assert.True(t, added)

		added, err = s.SAdd(ctx, "followers:1", "2")
		require.NoError(t, err)
		assert.False(t, added)

		_, err = s.SAdd(ctx, "followers:1", "3")
		require.NoError(t, err)
		members, err := s.SMembers(ctx, "followers:1")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"2", "3"}, members)

		members, err = s.SMembers(ctx, "followers:9")
		require.NoError(t, err)
		assert.Empty(t, members)
	})

	t.Run("lists are newest first", func(t *testing.T) {
		s := newStore(t)
		for i := 1; i <= 5; i++ {
			require.NoError(t, s.LPush(ctx, "timeline:1", fmt.Sprint(i)))
		}

		got, err := s.LRange(ctx, "timeline:1", 0, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"5", "4", "3"}, got)

		got, err = s.LRange(ctx, "timeline:1", 0, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{"5", "4", "3", "2", "1"}, got)

		got, err = s.LRange(ctx, "timeline:1", 3, 100)
		require.NoError(t, err)
		assert.Equal(t, []string{"2", "1"}, got)

		got, err = s.LRange(ctx, "timeline:2", 0, 20)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("tail window is stable under concurrent pushes", func(t *testing.T) {
		s := newStore(t)
		for i := 1; i <= 3; i++ {
			require.NoError(t, s.LPush(ctx, "timeline:1", fmt.Sprint(i)))
		}

		done := make(chan struct{})
		pushErr := make(chan error, 1)
		go func() {
			defer close(done)
			for i := 4; i <= 60; i++ {
				if err := s.LPush(ctx, "timeline:1", fmt.Sprint(i)); err != nil {
					pushErr <- err
					return
				}
			}
		}()

		for reading := true; reading; {
			select {
			case <-done:
				reading = false
			default:
			}
			got, err := s.LRange(ctx, "timeline:1", -3, -1)
			require.NoError(t, err)
			assert.Equal(t, []string{"3", "2", "1"}, got)
		}

		select {
		case err := <-pushErr:
			require.NoError(t, err)
		default:
		}
	})

	t.Run("concurrent increments are atomic", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Incr(ctx, "postid")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		v, err := s.Incr(ctx, "postid")
		require.NoError(t, err)
		assert.Equal(t, int64(21), v)
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Ping(ctx))
	})
}
