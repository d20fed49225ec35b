package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterOrAuthenticate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	t.Run("unknown usernames sign up with sequential ids", func(t *testing.T) {
		alice, err := env.users.RegisterOrAuthenticate(ctx, "alice", "wonderland")
		require.NoError(t, err)
		assert.Equal(t, int64(1), alice.ID)
		assert.Equal(t, "alice", alice.Username)
		assert.Empty(t, alice.PasswordHash, "credential never leaves the service")

		bob, err := env.users.RegisterOrAuthenticate(ctx, "bob", "builder")
		require.NoError(t, err)
		assert.Equal(t, int64(2), bob.ID)
	})

	t.Run("known username with the right password logs in", func(t *testing.T) {
		alice, err := env.users.RegisterOrAuthenticate(ctx, "alice", "wonderland")
		require.NoError(t, err)
		assert.Equal(t, int64(1), alice.ID)
	})

	t.Run("username is trimmed", func(t *testing.T) {
		alice, err := env.users.RegisterOrAuthenticate(ctx, "  alice ", "wonderland")
		require.NoError(t, err)
		assert.Equal(t, int64(1), alice.ID)
	})

	t.Run("wrong password is an auth error", func(t *testing.T) {
		_, err := env.users.RegisterOrAuthenticate(ctx, "alice", "looking-glass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.EqualError(t, err, "incorrect credential")
	})

	t.Run("get by id", func(t *testing.T) {
		bob, err := env.users.GetByID(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "bob", bob.Username)
		assert.Empty(t, bob.PasswordHash)

		_, err = env.users.GetByID(ctx, 99)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestRegisterOrAuthenticateRejectsEmptyInputBeforeStorage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.store.setFail(func(string, string) bool { return true })

	cases := []struct{ username, password string }{
		{"", "pw"},
		{"   ", "pw"},
		{"alice", ""},
		{"", ""},
		{"alice", strings.Repeat("x", 73)},
	}
	for _, c := range cases {
		_, err := env.users.RegisterOrAuthenticate(ctx, c.username, c.password)
		assert.ErrorIs(t, err, ErrInvalidInput, "username=%q password=%q", c.username, c.password)
		assert.NotErrorIs(t, err, ErrStoreUnavailable)
	}
	assert.Zero(t, env.store.callCount())
}

func TestRegisterOrAuthenticateStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.setFail(failOn("hget", "users"))

	_, err := env.users.RegisterOrAuthenticate(context.Background(), "alice", "pw")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, errInjected)
}

func TestConcurrentSignupsForOneName(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	var wg sync.WaitGroup
	ids := make([]int64, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user, err := env.users.RegisterOrAuthenticate(ctx, "alice", "same-password")
			errs[i] = err
			if err == nil {
				ids[i] = user.ID
			}
		}()
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i], "every caller ends up as the same user")
	}

	names, err := env.repos.Users.Usernames(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 1)
}

func TestRegisterOrAuthenticateLongPasswords(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	atLimit := strings.Repeat("x", 72)

	bob, err := env.users.RegisterOrAuthenticate(ctx, "bob", atLimit)
	require.NoError(t, err)

	again, err := env.users.RegisterOrAuthenticate(ctx, "bob", atLimit)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, again.ID)

	_, err = env.users.RegisterOrAuthenticate(ctx, "bob", atLimit+"DIFFERENT")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)

	_, err = env.users.RegisterOrAuthenticate(ctx, "carol", strings.Repeat("y", 80))
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.users.GetByID(ctx, bob.ID+1)
	assert.ErrorIs(t, err, ErrUserNotFound, "rejected signup allocates nothing")
}
