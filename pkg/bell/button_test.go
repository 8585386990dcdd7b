package bell

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeRinger struct {
	mu      sync.Mutex
	starts  int
	cancels int
}

func (r *fakeRinger) StartRing() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
}

func (r *fakeRinger) CancelRing() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels++
}

func (r *fakeRinger) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts, r.cancels
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startLoop(t *testing.T, ringer Ringer, timeout time.Duration) (chan<- struct{}, *ButtonHandler) {
	t.Helper()
	presses := make(chan struct{}, 1)
	b := NewButtonHandler(ringer, presses, Config{
		RingTimeout: timeout,
		Logger:      discard(),
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return presses, b
}

func TestPressStartsRing(t *testing.T) {
	ringer := &fakeRinger{}
	presses, _ := startLoop(t, ringer, time.Minute)

	presses <- struct{}{}

	assert.Eventually(t, func() bool {
		starts, _ := ringer.counts()
		return starts == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSecondPressCancelsRing(t *testing.T) {
	ringer := &fakeRinger{}
	presses, _ := startLoop(t, ringer, time.Minute)

	presses <- struct{}{}
	presses <- struct{}{}

	assert.Eventually(t, func() bool {
		starts, cancels := ringer.counts()
		return starts == 1 && cancels == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRingTimeoutCancels(t *testing.T) {
	ringer := &fakeRinger{}
	presses, _ := startLoop(t, ringer, 30*time.Millisecond)

	presses <- struct{}{}

	assert.Eventually(t, func() bool {
		_, cancels := ringer.counts()
		return cancels == 1
	}, time.Second, 5*time.Millisecond)
}

func TestCallEndReturnsToIdle(t *testing.T) {
	ringer := &fakeRinger{}
	presses, b := startLoop(t, ringer, time.Minute)

	presses <- struct{}{}
	assert.Eventually(t, func() bool {
		starts, _ := ringer.counts()
		return starts == 1
	}, time.Second, 5*time.Millisecond)

	b.CallEnd()
	time.Sleep(50 * time.Millisecond)

	// Back to idle: the next press rings again.
	presses <- struct{}{}
	assert.Eventually(t, func() bool {
		starts, _ := ringer.counts()
		return starts == 2
	}, time.Second, 5*time.Millisecond)
}

func TestNotificationsNeverBlock(t *testing.T) {
	b := NewButtonHandler(&fakeRinger{}, make(chan struct{}), Config{Logger: discard()})

	// No Run loop draining; repeated notifications must still return.
	for i := 0; i < 10; i++ {
		b.CallEnd()
		b.ReceiveCall()
	}
}

func TestCancelOnShutdownWhileRinging(t *testing.T) {
	ringer := &fakeRinger{}
	presses := make(chan struct{}, 1)
	b := NewButtonHandler(ringer, presses, Config{
		RingTimeout: time.Minute,
		Logger:      discard(),
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	presses <- struct{}{}
	assert.Eventually(t, func() bool {
		starts, _ := ringer.counts()
		return starts == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	_, cancels := ringer.counts()
	assert.Equal(t, 1, cancels)
}
