package heartbeat

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kepixel/kepixel-go/pkg/kepixel/environment"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newTestScheduler returns a scheduler whose ticker never fires during a test.
func newTestScheduler(env environment.Observer, clock *fakeClock) (*Scheduler, *atomic.Int32) {
	var pings atomic.Int32
	s := New(env, func() { pings.Add(1) },
		WithClock(clock.Now),
		WithInterval(time.Hour),
	)
	return s, &pings
}

func TestScheduler_Threshold(t *testing.T) {
	clock := newFakeClock()
	env := environment.NewSynthetic("https://example.com")
	s, pings := newTestScheduler(env, clock)

	s.Enable(15 * time.Second)
	defer s.Disable()

	for i := 0; i < 2; i++ {
		clock.Advance(5 * time.Second)
		assert.False(t, s.Check())
	}
	assert.Zero(t, pings.Load(), "no ping before the threshold")

	clock.Advance(5 * time.Second)
	assert.True(t, s.Check())
	assert.Equal(t, int32(1), pings.Load())
	assert.Equal(t, clock.Now(), s.State().LastActive)

	clock.Advance(10 * time.Second)
	assert.False(t, s.Check(), "second ping needs a full threshold")
	clock.Advance(5 * time.Second)
	assert.True(t, s.Check())
	assert.Equal(t, int32(2), pings.Load())
}

func TestScheduler_ActivityResetsIdle(t *testing.T) {
	clock := newFakeClock()
	env := environment.NewSynthetic("")
	s, pings := newTestScheduler(env, clock)

	s.Enable(15 * time.Second)
	defer s.Disable()

	clock.Advance(14 * time.Second)
	env.Activity(environment.ActivityPointer)
	clock.Advance(14 * time.Second)
	assert.False(t, s.Check())
	assert.Zero(t, pings.Load())
}

func TestScheduler_HiddenSkipsTick(t *testing.T) {
	clock := newFakeClock()
	env := environment.NewSynthetic("")
	s, pings := newTestScheduler(env, clock)

	s.Enable(15 * time.Second)
	defer s.Disable()

	clock.Advance(10 * time.Second)
	env.SetVisibility(environment.Hidden)
	assert.Zero(t, pings.Load(), "hidden check below threshold does not ping")

	clock.Advance(20 * time.Second)
	assert.False(t, s.Check(), "regular ticks skip while hidden")

	env.SetVisibility(environment.Visible)
	assert.Equal(t, clock.Now(), s.State().LastActive, "becoming visible resets idle")
}

func TestScheduler_HiddenForcesCheck(t *testing.T) {
	clock := newFakeClock()
	env := environment.NewSynthetic("")
	s, pings := newTestScheduler(env, clock)

	s.Enable(15 * time.Second)
	defer s.Disable()

	clock.Advance(16 * time.Second)
	env.SetVisibility(environment.Hidden)
	assert.Equal(t, int32(1), pings.Load())
}

// repeatingObserver hands the visibility handler to the test, so it can
// report the same state twice the way some hosts do.
type repeatingObserver struct {
	*environment.Synthetic
	visibility func(environment.Visibility)
}

func (o *repeatingObserver) OnVisibilityChange(fn func(environment.Visibility)) func() {
	o.visibility = fn
	return func() {}
}

func TestScheduler_RepeatedHiddenChecksOnce(t *testing.T) {
	clock := newFakeClock()
	env := &repeatingObserver{Synthetic: environment.NewSynthetic("")}
	s, pings := newTestScheduler(env, clock)

	s.Enable(15 * time.Second)
	defer s.Disable()
	require.NotNil(t, env.visibility)

	clock.Advance(16 * time.Second)
	env.visibility(environment.Hidden)
	assert.Equal(t, int32(1), pings.Load())

	clock.Advance(16 * time.Second)
	env.visibility(environment.Hidden)
	assert.Equal(t, int32(1), pings.Load(), "still hidden, no forced check")

	env.visibility(environment.Visible)
	clock.Advance(16 * time.Second)
	env.visibility(environment.Hidden)
	assert.Equal(t, int32(2), pings.Load())
}

func TestScheduler_DefaultActiveTime(t *testing.T) {
	s, _ := newTestScheduler(nil, newFakeClock())
	s.Enable(0)
	defer s.Disable()

	state := s.State()
	assert.True(t, state.Enabled)
	assert.Equal(t, DefaultActiveTime, state.ActiveTime)
}

func TestScheduler_DisableIdempotent(t *testing.T) {
	env := environment.NewSynthetic("")
	s, _ := newTestScheduler(env, newFakeClock())

	assert.NotPanics(t, func() {
		s.Disable()
		s.Disable()
	})
	assert.False(t, s.State().Enabled)

	s.Enable(time.Second)
	assert.Equal(t, 2, env.Handlers())
	s.Disable()
	s.Disable()
	assert.False(t, s.State().Enabled)
	assert.Zero(t, env.Handlers())
}

func TestScheduler_EnableReplaces(t *testing.T) {
	env := environment.NewSynthetic("")
	s, _ := newTestScheduler(env, newFakeClock())

	s.Enable(time.Second)
	s.Enable(30 * time.Second)
	defer s.Disable()

	assert.Equal(t, 2, env.Handlers(), "observers are replaced, not stacked")
	assert.Equal(t, 30*time.Second, s.State().ActiveTime)
}

func TestScheduler_DisabledCheck(t *testing.T) {
	clock := newFakeClock()
	s, pings := newTestScheduler(nil, clock)

	clock.Advance(time.Hour)
	assert.False(t, s.Check())
	assert.Zero(t, pings.Load())
}

func TestScheduler_Ticker(t *testing.T) {
	var pings atomic.Int32
	s := New(nil, func() { pings.Add(1) }, WithInterval(5*time.Millisecond))

	s.Enable(time.Nanosecond)
	require.Eventually(t, func() bool { return pings.Load() >= 2 }, time.Second, 5*time.Millisecond)

	s.Disable()
	settled := pings.Load()
	time.Sleep(30 * time.Millisecond)
	assert.LessOrEqual(t, pings.Load(), settled+1, "ticker stops after Disable")
}
