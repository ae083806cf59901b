package quote

import (
	"sync"
	"testing"
	"time"
)

func TestDebouncer_OnlyLastCallFires(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var mu sync.Mutex
	var fired []uint64
	done := make(chan struct{}, 5)

	record := func(token uint64) {
		mu.Lock()
		fired = append(fired, token)
		mu.Unlock()
		done <- struct{}{}
	}

	d.Trigger(record)
	d.Trigger(record)
	last := d.Trigger(record)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced call never fired")
	}
	// Give any wrongly scheduled earlier call a chance to fire.
	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 1 {
		t.Fatalf("fired %d times, want 1", len(fired))
	}
	if fired[0] != last {
		t.Errorf("fired token %d, want %d", fired[0], last)
	}
}

func TestDebouncer_TokensIncrease(t *testing.T) {
	d := NewDebouncer(time.Hour)
	defer d.Stop()

	first := d.Trigger(func(uint64) {})
	second := d.Trigger(func(uint64) {})
	if second <= first {
		t.Errorf("tokens not increasing: %d then %d", first, second)
	}
	if d.IsLatest(first) {
		t.Error("older token reported as latest")
	}
	if !d.IsLatest(second) {
		t.Error("newest token not reported as latest")
	}
}

func TestDebouncer_StaleResultDiscarded(t *testing.T) {
	d := NewDebouncer(time.Hour)
	defer d.Stop()

	inFlight := d.Trigger(func(uint64) {})
	d.Invalidate()
	if d.IsLatest(inFlight) {
		t.Error("result of an invalidated call must be discarded")
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	fired := make(chan struct{}, 1)
	d.Trigger(func(uint64) { fired <- struct{}{} })
	d.Stop()

	select {
	case <-fired:
		t.Error("call fired after Stop")
	case <-time.After(60 * time.Millisecond):
	}

	if token := d.Trigger(func(uint64) {}); token != 0 {
		t.Errorf("Trigger after Stop returned token %d, want 0", token)
	}
}
