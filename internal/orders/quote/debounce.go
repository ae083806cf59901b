package quote

import (
	"sync"
	"time"
)

const DefaultDebounce = 1500 * time.Millisecond

// Debouncer runs the last scheduled call once input has been quiet for the
// delay. Every call is stamped with a token; a result is only current while
// its token is still the latest one issued.
//
// Cancelling only clears the pending timer. Calls that already fired run to
// completion and are filtered with IsLatest.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	latest  uint64
	stopped bool
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Trigger replaces any pending call with fn and returns the token fn will
// receive.
func (d *Debouncer) Trigger(fn func(token uint64)) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return 0
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	d.latest++
	token := d.latest
	d.timer = time.AfterFunc(d.delay, func() {
		fn(token)
	})
	return token
}

// Invalidate bumps the token without scheduling anything, so results still in
// flight are discarded.
func (d *Debouncer) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.latest++
}

func (d *Debouncer) IsLatest(token uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return token != 0 && token == d.latest
}

func (d *Debouncer) Latest() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latest
}

func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
