package pacer

import (
	"sync"
	"time"
)

// TickSource delivers refresh ticks to subscribers. The returned cancel
// function unsubscribes; after it returns fn is not called again.
type TickSource interface {
	Subscribe(fn func(now time.Time)) (cancel func())
}

type subscriber struct {
	id uint64
	fn func(time.Time)
}

// Signal is a TickSource driven by the host: whatever owns the display
// refresh callback calls Emit once per refresh.
type Signal struct {
	mu     sync.Mutex
	emitMu sync.Mutex
	subs   []subscriber
	nextID uint64
}

func NewSignal() *Signal {
	return &Signal{}
}

// Subscribe registers fn. Cancel waits for an Emit in progress to finish.
func (s *Signal) Subscribe(fn func(now time.Time)) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return sync.OnceFunc(func() {
		s.mu.Lock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		// Barrier: an Emit that copied the old list has finished.
		s.emitMu.Lock()
		s.emitMu.Unlock()
	})
}

// Emit delivers now to every subscriber in subscription order.
// Subscribers must not cancel themselves from inside the callback.
func (s *Signal) Emit(now time.Time) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	subs := s.subs
	s.mu.Unlock()
	for _, sub := range subs {
		sub.fn(now)
	}
}

// Ticker is a TickSource backed by time.Ticker, for hosts without a
// display refresh callback.
type Ticker struct {
	interval time.Duration
}

// NewTicker creates a source ticking every interval.
func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &Ticker{interval: interval}
}

// Subscribe starts a goroutine delivering ticks to fn. Cancel stops it and
// waits for a callback in progress to return.
func (t *Ticker) Subscribe(fn func(now time.Time)) func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		tk := time.NewTicker(t.interval)
		defer tk.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-tk.C:
				select {
				case <-stop:
					return
				default:
				}
				fn(now)
			}
		}
	}()
	return sync.OnceFunc(func() {
		close(stop)
		<-done
	})
}
