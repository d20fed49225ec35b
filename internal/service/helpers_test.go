package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tinyfeed/internal/clock"
	"tinyfeed/internal/credential"
	"tinyfeed/internal/fanout"
	"tinyfeed/internal/repository/kv"
	"tinyfeed/internal/store"
	"tinyfeed/internal/store/memory"
)

var errInjected = errors.New("injected store failure")

// faultyStore fails any call for which fail(op, key) reports true and
// counts every call that reaches it.
type faultyStore struct {
	store.Store

	mu    sync.Mutex
	fail  func(op, key string) bool
	calls int
}

func (f *faultyStore) setFail(fn func(op, key string) bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fn
}

func (f *faultyStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *faultyStore) check(op, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil && f.fail(op, key) {
		return errInjected
	}
	return nil
}

func (f *faultyStore) Incr(ctx context.Context, name string) (int64, error) {
	if err := f.check("incr", name); err != nil {
		return 0, err
	}
	return f.Store.Incr(ctx, name)
}

func (f *faultyStore) HGet(ctx context.Context, key, field string) (string, bool, error) {
	if err := f.check("hget", key); err != nil {
		return "", false, err
	}
	return f.Store.HGet(ctx, key, field)
}

func (f *faultyStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if err := f.check("hgetall", key); err != nil {
		return nil, err
	}
	return f.Store.HGetAll(ctx, key)
}

func (f *faultyStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if err := f.check("hset", key); err != nil {
		return err
	}
	return f.Store.HSet(ctx, key, fields)
}

func (f *faultyStore) HSetNX(ctx context.Context, key, field, value string) (bool, error) {
	if err := f.check("hsetnx", key); err != nil {
		return false, err
	}
	return f.Store.HSetNX(ctx, key, field, value)
}

func (f *faultyStore) SAdd(ctx context.Context, key, member string) (bool, error) {
	if err := f.check("sadd", key); err != nil {
		return false, err
	}
	return f.Store.SAdd(ctx, key, member)
}

func (f *faultyStore) SMembers(ctx context.Context, key string) ([]string, error) {
	if err := f.check("smembers", key); err != nil {
		return nil, err
	}
	return f.Store.SMembers(ctx, key)
}

func (f *faultyStore) LPush(ctx context.Context, key, value string) error {
	if err := f.check("lpush", key); err != nil {
		return err
	}
	return f.Store.LPush(ctx, key, value)
}

func (f *faultyStore) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	if err := f.check("lrange", key); err != nil {
		return nil, err
	}
	return f.Store.LRange(ctx, key, start, stop)
}

func failOn(op, keyPrefix string) func(string, string) bool {
	return func(gotOp, key string) bool {
		return gotOp == op && strings.HasPrefix(key, keyPrefix)
	}
}

type testEnv struct {
	store      *faultyStore
	clock      *clock.Stub
	hook       *test.Hook
	repos      Repositories
	users      UserService
	posts      PostService
	graph      GraphService
	dashboards DashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	s := &faultyStore{Store: memory.New()}
	clk := clock.NewStub(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	repos := Repositories{
		Users:     kv.NewUserRepository(s),
		Posts:     kv.NewPostRepository(s),
		Graph:     kv.NewGraphRepository(s),
		Timelines: kv.NewTimelineRepository(s),
	}
	dispatcher := fanout.NewDispatcher(fanout.Config{MaxConcurrent: 4, Logger: logger}, repos.Timelines)

	return &testEnv{
		store:      s,
		clock:      clk,
		hook:       hook,
		repos:      repos,
		users:      NewUserService(repos.Users, credential.NewBcrypt(bcrypt.MinCost), clk, logger),
		posts:      NewPostService(repos, dispatcher, clk, logger),
		graph:      NewGraphService(repos, logger),
		dashboards: NewDashboardService(repos, clk, logger),
	}
}

func (e *testEnv) signup(t *testing.T, username string) int64 {
	t.Helper()
	user, err := e.users.RegisterOrAuthenticate(context.Background(), username, "pw-"+username)
	require.NoError(t, err)
	return user.ID
}

func (e *testEnv) timeline(t *testing.T, userID int64) []int64 {
	t.Helper()
	ids, err := e.repos.Timelines.Latest(context.Background(), userID, 1000)
	require.NoError(t, err)
	return ids
}
