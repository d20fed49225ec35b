package clock

import (
	"sync"
	"time"
)

type Clock interface {
	NowUTC() time.Time
}

type Real struct{}

func NewReal() *Real {
	return &Real{}
}

func (c *Real) NowUTC() time.Time {
	return time.Now().UTC()
}

// Stub is a settable clock for tests.
type Stub struct {
	now  time.Time
	lock sync.Mutex
}

func NewStub(now time.Time) *Stub {
	return &Stub{now: now.UTC()}
}

func (c *Stub) NowUTC() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *Stub) Set(now time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = now.UTC()
}

// Advance moves the clock forward by d and returns the new time.
func (c *Stub) Advance(d time.Duration) time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
