package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rizesync/internal/cache"
	"rizesync/internal/config"
	"rizesync/internal/services"
)

type fakeRunner struct {
	calls atomic.Int32
	reqs  chan services.SyncRequest
	err   error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{reqs: make(chan services.SyncRequest, 16)}
}

func (r *fakeRunner) Run(_ context.Context, req services.SyncRequest) (services.RunSummary, error) {
	r.calls.Add(1)
	select {
	case r.reqs <- req:
	default:
	}
	return services.RunSummary{RunID: "run", Failed: 1}, r.err
}

type countingExpirer struct {
	sweeps atomic.Int32
}

func (e *countingExpirer) CleanExpired() int {
	e.sweeps.Add(1)
	return 0
}

func waitForPass(t *testing.T, r *fakeRunner) services.SyncRequest {
	t.Helper()
	select {
	case req := <-r.reqs:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a sync pass")
		return services.SyncRequest{}
	}
}

func TestWatcher_RunsImmediatelyAndOnTick(t *testing.T) {
	runner := newFakeRunner()
	sweeper := cache.NewSweeper()
	expirer := &countingExpirer{}
	sweeper.Register(expirer)

	req := services.SyncRequest{Mode: config.ModeBoth, Lookback: 1}
	w := NewWatcher(runner, sweeper, WatcherConfig{Interval: 10 * time.Millisecond, Request: req})

	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsRunning())

	assert.Equal(t, req, waitForPass(t, runner))
	assert.Equal(t, req, waitForPass(t, runner))

	require.NoError(t, w.Stop(context.Background()))
	assert.False(t, w.IsRunning())
	assert.GreaterOrEqual(t, w.Passes(), 2)
	assert.GreaterOrEqual(t, expirer.sweeps.Load(), int32(2))
}

func TestWatcher_StartTwice(t *testing.T) {
	w := NewWatcher(newFakeRunner(), nil, WatcherConfig{Interval: time.Hour})

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop(context.Background())

	assert.Error(t, w.Start(context.Background()))
}

func TestWatcher_StopWhenNotRunning(t *testing.T) {
	w := NewWatcher(newFakeRunner(), nil, DefaultWatcherConfig())

	assert.NoError(t, w.Stop(context.Background()))
}

func TestWatcher_ExitsOnContextCancel(t *testing.T) {
	runner := newFakeRunner()
	runner.err = errors.New("source down")
	w := NewWatcher(runner, nil, WatcherConfig{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	waitForPass(t, runner)
	cancel()

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not exit after cancel")
	}
	require.NoError(t, w.Stop(context.Background()))
	assert.Equal(t, int32(1), runner.calls.Load())
}

// blockingRunner holds every pass until release is closed.
type blockingRunner struct {
	started chan struct{}
	release chan struct{}
}

func (r *blockingRunner) Run(_ context.Context, _ services.SyncRequest) (services.RunSummary, error) {
	select {
	case r.started <- struct{}{}:
	default:
	}
	<-r.release
	return services.RunSummary{}, nil
}

func TestWatcher_StopAfterTimeoutCanBeRetried(t *testing.T) {
	runner := &blockingRunner{started: make(chan struct{}, 1), release: make(chan struct{})}
	w := NewWatcher(runner, nil, WatcherConfig{Interval: time.Hour})

	require.NoError(t, w.Start(context.Background()))
	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a sync pass")
	}

	for i := 0; i < 2; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		err := w.Stop(ctx)
		cancel()
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.True(t, w.IsRunning())
	}

	close(runner.release)
	require.NoError(t, w.Stop(context.Background()))
	assert.False(t, w.IsRunning())
}

func TestNewWatcher_DefaultsInterval(t *testing.T) {
	w := NewWatcher(newFakeRunner(), nil, WatcherConfig{})
	assert.Equal(t, time.Hour, w.config.Interval)
}
