package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeLifecycle conta chamadas e grava a ordem dos gatilhos.
type fakeLifecycle struct {
	mu      sync.Mutex
	creates atomic.Int64
	locks   atomic.Int64
	settles atomic.Int64
	calls   []string
}

func (f *fakeLifecycle) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeLifecycle) CreateNextPool(ctx context.Context) error {
	f.creates.Add(1)
	f.record("create")
	return nil
}

func (f *fakeLifecycle) LockDuePools(ctx context.Context) error {
	f.locks.Add(1)
	f.record("lock")
	return nil
}

func (f *fakeLifecycle) SettleDuePools(ctx context.Context) error {
	f.settles.Add(1)
	f.record("settle")
	return nil
}

// manualTicks devolve um canal por chamada, na ordem, para controlar cada
// gatilho individualmente nos testes.
func manualTicks(chans ...chan time.Time) TickFactory {
	var idx atomic.Int64
	return func(d time.Duration) (<-chan time.Time, func()) {
		i := idx.Add(1) - 1
		return chans[i], func() {}
	}
}

func TestRun_FiresImmediatelyOnStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lc := &fakeLifecycle{}
	s := New(lc, time.Minute, zap.NewNop())
	s.Ticks = manualTicks(make(chan time.Time), make(chan time.Time))

	go s.Run(ctx)

	require.Eventually(t, func() bool {
		return lc.creates.Load() == 1 && lc.locks.Load() == 1 && lc.settles.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRun_EachTickFiresItsTrigger(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	createTicks := make(chan time.Time)
	lockTicks := make(chan time.Time)

	lc := &fakeLifecycle{}
	s := New(lc, time.Minute, zap.NewNop())
	s.Ticks = manualTicks(createTicks, lockTicks)

	go s.Run(ctx)

	require.Eventually(t, func() bool { return lc.creates.Load() == 1 }, time.Second, 5*time.Millisecond)

	createTicks <- time.Now()
	createTicks <- time.Now()
	require.Eventually(t, func() bool { return lc.creates.Load() == 3 }, time.Second, 5*time.Millisecond)
	// o gatilho de criação não dispara lock/settle
	assert.Equal(t, int64(1), lc.locks.Load())

	lockTicks <- time.Now()
	require.Eventually(t, func() bool { return lc.locks.Load() == 2 && lc.settles.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestRun_LockAlwaysPrecedesSettle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lockTicks := make(chan time.Time)

	lc := &fakeLifecycle{}
	s := New(lc, time.Minute, zap.NewNop())
	s.Ticks = manualTicks(make(chan time.Time), lockTicks)

	go s.Run(ctx)

	require.Eventually(t, func() bool { return lc.settles.Load() == 1 }, time.Second, 5*time.Millisecond)
	lockTicks <- time.Now()
	require.Eventually(t, func() bool { return lc.settles.Load() == 2 }, time.Second, 5*time.Millisecond)

	lc.mu.Lock()
	defer lc.mu.Unlock()
	lastLock, lastSettle := -1, -1
	for i, c := range lc.calls {
		switch c {
		case "lock":
			// cada lock vem antes do settle correspondente
			assert.Less(t, lastSettle, i)
			lastLock = i
		case "settle":
			assert.Less(t, lastLock, i)
			lastSettle = i
		}
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	lc := &fakeLifecycle{}
	s := New(lc, time.Minute, zap.NewNop())
	s.Ticks = manualTicks(make(chan time.Time), make(chan time.Time))

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return lc.creates.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after context cancel")
	}

	after := lc.creates.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, lc.creates.Load())
}
