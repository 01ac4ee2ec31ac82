package selection

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type mockPruner struct {
	calls     atomic.Int32
	pruneFunc func(ctx context.Context) (int, error)
}

func (m *mockPruner) Prune(ctx context.Context) (int, error) {
	m.calls.Add(1)
	if m.pruneFunc != nil {
		return m.pruneFunc(ctx)
	}
	return 0, nil
}

func TestSweeperSweep(t *testing.T) {
	t.Parallel()

	s := NewSweeper(nil, time.Minute, zap.NewNop())
	assert.NoError(t, s.sweep(context.Background()))

	ok := &mockPruner{pruneFunc: func(context.Context) (int, error) { return 3, nil }}
	s = NewSweeper(ok, time.Minute, zap.NewNop())
	assert.NoError(t, s.sweep(context.Background()))
	assert.Equal(t, int32(1), ok.calls.Load())

	failing := &mockPruner{pruneFunc: func(context.Context) (int, error) { return 0, errors.New("store down") }}
	s = NewSweeper(failing, time.Minute, zap.NewNop())
	assert.Error(t, s.sweep(context.Background()))
}

// The loop tests are not parallel so goleak only sees their goroutines.

func TestSweeperStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := NewSweeper(&mockPruner{}, 24*time.Hour, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Start(ctx), context.Canceled)
}

func TestSweeperPrunesMachine(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	clock := newTestClock()
	store := NewMemoryStore(clock.Now)
	m := newTestMachine(t, store, clock)
	_, err := m.Create(context.Background(), "owner-1", apolloRanking(), testCommand(clock))
	require.NoError(t, err)
	clock.Advance(time.Hour)

	s := NewSweeper(m, 5*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestSweeperKeepsRunningAfterErrors(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := &mockPruner{pruneFunc: func(context.Context) (int, error) { return 0, errors.New("store down") }}
	s := NewSweeper(p, 5*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return p.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
