package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitReturnsAfterTimeout(t *testing.T) {
	n := NewPushNotifier()

	started := time.Now()
	n.Wait(50 * time.Millisecond)
	elapsed := time.Since(started)

	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestNotifyWakesWaiter(t *testing.T) {
	n := NewPushNotifier()

	woken := make(chan time.Duration, 1)
	started := time.Now()
	go func() {
		n.Wait(5 * time.Second)
		woken <- time.Since(started)
	}()

	time.Sleep(20 * time.Millisecond)
	n.Notify()

	select {
	case elapsed := <-woken:
		assert.Less(t, elapsed, time.Second)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not woken by Notify")
	}
}

func TestNotifyWakesEveryWaiter(t *testing.T) {
	n := NewPushNotifier()

	woken := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		go func() {
			n.Wait(5 * time.Second)
			woken <- struct{}{}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	n.Notify()

	for i := 0; i < 3; i++ {
		select {
		case <-woken:
		case <-time.After(2 * time.Second):
			t.Fatal("not all waiters were woken")
		}
	}
}

func TestNotifyWithNoWaiters(t *testing.T) {
	n := NewPushNotifier()
	n.Notify()
	n.Notify()
}
