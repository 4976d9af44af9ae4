package conversation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ragassist/internal/conversation"
)

// countingCleaner records the max age it was asked to sweep with.
type countingCleaner struct {
	removed int
	maxAges []time.Duration
	mu      sync.Mutex
}

func (c *countingCleaner) CleanupStale(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxAges = append(c.maxAges, maxAge)
	return c.removed
}

func (c *countingCleaner) calls() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.maxAges...)
}

func TestCleanupService_Sweep(t *testing.T) {
	store := conversation.NewStore(50 * time.Millisecond)
	limiter := &countingCleaner{removed: 2}
	service := conversation.NewCleanupService(store,
		conversation.WithStaleCleaner("rate_limit", limiter))

	store.Get("old-1")
	store.Get("old-2")
	time.Sleep(80 * time.Millisecond)
	store.Get("fresh")

	report := service.Sweep(context.Background())

	assert.Equal(t, conversation.SweepResult{Removed: 2, InFlight: 0, Remaining: 1}, report.Sessions)
	assert.Equal(t, map[string]int{"rate_limit": 2}, report.Stale)
	assert.Equal(t, []time.Duration{50 * time.Millisecond}, limiter.calls(),
		"companions are swept with the session window")
}

func TestCleanupService_SweepCountsInFlight(t *testing.T) {
	store := conversation.NewStore(20 * time.Millisecond)
	service := conversation.NewCleanupService(store)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = store.WithSession("busy", func(*conversation.State) error {
			close(entered)
			<-release
			return nil
		})
	}()

	<-entered
	time.Sleep(40 * time.Millisecond)

	report := service.Sweep(context.Background())
	assert.Equal(t, 1, report.Sessions.InFlight)
	assert.Equal(t, 0, report.Sessions.Removed)
	assert.Equal(t, 1, report.Sessions.Remaining)

	close(release)
	<-done
}

func TestCleanupService_RunSweepsPeriodically(t *testing.T) {
	store := conversation.NewStore(30 * time.Millisecond)
	limiter := &countingCleaner{}
	service := conversation.NewCleanupService(store,
		conversation.WithCleanupInterval(10*time.Millisecond),
		conversation.WithStaleCleaner("rate_limit", limiter))

	store.Get("session-1")
	store.Get("session-2")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return store.Stats()["total"] == 0
	}, time.Second, 10*time.Millisecond, "idle sessions should be removed")
	assert.GreaterOrEqual(t, len(limiter.calls()), 2, "limiter swept on the same ticker")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestCleanupService_KeepsActiveSessionHistory(t *testing.T) {
	store := conversation.NewStore(100 * time.Millisecond)
	service := conversation.NewCleanupService(store, conversation.WithCleanupInterval(20*time.Millisecond))

	require.NoError(t, store.WithSession("kept", func(st *conversation.State) error {
		st.Append(conversation.Message{Role: conversation.RoleUser, Content: "Hello"})
		return nil
	}))
	store.Get("dropped")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	// Touch one session while the other goes idle
	deadline := time.Now().Add(250 * time.Millisecond)
	for time.Now().Before(deadline) {
		store.Get("kept")
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, 1, store.Stats()["total"])
	assert.Len(t, store.Get("kept").Messages, 1)
}

func TestNewCleanupService_IgnoresInvalidOptions(t *testing.T) {
	store := conversation.NewStore(time.Minute)
	service := conversation.NewCleanupService(store,
		conversation.WithCleanupInterval(0),
		conversation.WithStaleCleaner("none", nil),
		conversation.WithCleanupLogger(nil))

	report := service.Sweep(context.Background())
	assert.Empty(t, report.Stale)
}
