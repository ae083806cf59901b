package flow

import "sync"

const MaxConcurrentCalls = 8

// Limiter bounds how many backend calls run at once.
type Limiter struct {
	slots chan struct{}
}

func NewLimiter(n int) *Limiter {
	if n <= 0 {
		n = MaxConcurrentCalls
	}
	return &Limiter{slots: make(chan struct{}, n)}
}

// Run executes fn once a slot is free. The slot is released even if fn
// panics; the panic is passed on to the caller.
func (l *Limiter) Run(fn func()) {
	l.slots <- struct{}{}
	defer func() { <-l.slots }()
	fn()
}

// Go runs every fn concurrently under the limit and waits for all of them.
func (l *Limiter) Go(fns ...func()) {
	var wg sync.WaitGroup
	wg.Add(len(fns))
	for _, fn := range fns {
		go func() {
			defer wg.Done()
			l.Run(fn)
		}()
	}
	wg.Wait()
}
