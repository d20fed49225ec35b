package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinyfeed/internal/domain"
	"tinyfeed/internal/repository"
	"tinyfeed/internal/store/memory"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	users := NewUserRepository(s)

	alice := &domain.User{Username: "alice", PasswordHash: "h1"}
	id, err := users.Create(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, int64(1), alice.ID)

	bob := &domain.User{Username: "bob", PasswordHash: "h2"}
	id, err = users.Create(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	t.Run("lookup by name and id", func(t *testing.T) {
		got, err := users.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ID)
		assert.Equal(t, "h1", got.PasswordHash)

		got, err = users.GetByID(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "bob", got.Username)
	})

	t.Run("missing users", func(t *testing.T) {
		_, err := users.GetByUsername(ctx, "carol")
		assert.ErrorIs(t, err, repository.ErrNotFound)

		_, err = users.GetByID(ctx, 99)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("duplicate username burns an id and keeps the original", func(t *testing.T) {
		_, err := users.Create(ctx, &domain.User{Username: "alice", PasswordHash: "other"})
		assert.ErrorIs(t, err, repository.ErrAlreadyExists)

		got, err := users.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "h1", got.PasswordHash)

		carol := &domain.User{Username: "carol"}
		id, err := users.Create(ctx, carol)
		require.NoError(t, err)
		assert.Equal(t, int64(4), id, "ids are never reused")
	})

	t.Run("usernames index", func(t *testing.T) {
		names, err := users.Usernames(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"alice": 1, "bob": 2, "carol": 4}, names)
	})
}

func TestPostRepository(t *testing.T) {
	ctx := context.Background()
	posts := NewPostRepository(memory.New())
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	p := &domain.Post{AuthorID: 1, AuthorUsername: "alice", Message: "hello", CreatedAt: created}
	id, err := posts.Create(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	got, err := posts.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, &domain.Post{
		ID:             1,
		AuthorID:       1,
		AuthorUsername: "alice",
		Message:        "hello",
		CreatedAt:      created,
	}, got)

	_, err = posts.Get(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGraphRepository(t *testing.T) {
	ctx := context.Background()
	graph := NewGraphRepository(memory.New())

	added, err := graph.AddFollowing(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = graph.AddFollower(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = graph.AddFollowing(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, added)

	following, err := graph.Following(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, following)

	followers, err := graph.Followers(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, followers)

	followers, err = graph.Followers(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, followers)
}

func TestGraphRepositoryMalformedMember(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	_, err := s.SAdd(ctx, "followers:1", "not-a-number")
	require.NoError(t, err)

	_, err = NewGraphRepository(s).Followers(ctx, 1)
	assert.ErrorContains(t, err, "malformed id")
}

func TestTimelineRepository(t *testing.T) {
	ctx := context.Background()
	timelines := NewTimelineRepository(memory.New())

	for id := int64(1); id <= 25; id++ {
		require.NoError(t, timelines.Push(ctx, 7, id))
	}

	latest, err := timelines.Latest(ctx, 7, domain.TimelineWindow)
	require.NoError(t, err)
	require.Len(t, latest, 21)
	assert.Equal(t, int64(25), latest[0])
	assert.Equal(t, int64(5), latest[20])

	latest, err = timelines.Latest(ctx, 8, domain.TimelineWindow)
	require.NoError(t, err)
	assert.Empty(t, latest)

	latest, err = timelines.Latest(ctx, 7, 0)
	require.NoError(t, err)
	assert.Empty(t, latest)
}
