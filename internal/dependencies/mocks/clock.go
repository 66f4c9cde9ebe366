package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/votingroom/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing.
// Safe for use from the sweeper goroutine.
type MockClock struct {
	mu          sync.Mutex
	currentTime time.Time
	lastTicker  *MockTicker
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTime
}

// Advance moves the clock forward by the given duration
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = c.currentTime.Add(d)
}

// Set sets the clock to the given time
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = t
}

// NewTicker returns a ticker that only fires when Tick is called on it.
// The most recently created ticker is available from LastTicker.
func (c *MockClock) NewTicker(_ time.Duration) clock.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &MockTicker{ch: make(chan time.Time, 1)}
	c.lastTicker = t
	return t
}

// LastTicker returns the most recently created ticker, or nil
func (c *MockClock) LastTicker() *MockTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTicker
}

// MockTicker is a manually driven clock.Ticker
type MockTicker struct {
	ch      chan time.Time
	stopped bool
	mu      sync.Mutex
}

// C returns the tick channel
func (t *MockTicker) C() <-chan time.Time { return t.ch }

// Stop marks the ticker as stopped; later ticks are dropped
func (t *MockTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

// Tick delivers a tick unless the ticker is stopped or a tick is already pending
func (t *MockTicker) Tick(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	select {
	case t.ch <- now:
	default:
	}
}
