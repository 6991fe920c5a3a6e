package lifecycle

import (
	"sync"
	"time"
)

// DefaultExpiry is how long snapshot messages stay in the chat.
const DefaultExpiry = 180 * time.Second

// Handle identifies a sent chat message.
type Handle struct {
	ChatID    int64
	MessageID int
}

type expiry struct {
	timer *time.Timer
}

// Scheduler runs onExpire for a message once its delay elapses, unless the
// message is cancelled first. Each handle has at most one pending expiry.
type Scheduler struct {
	delay    time.Duration
	onExpire func(Handle)

	mu      sync.Mutex
	pending map[Handle]*expiry
	stopped bool
}

func NewScheduler(delay time.Duration, onExpire func(Handle)) *Scheduler {
	if delay <= 0 {
		delay = DefaultExpiry
	}
	return &Scheduler{
		delay:    delay,
		onExpire: onExpire,
		pending:  make(map[Handle]*expiry),
	}
}

func (s *Scheduler) Delay() time.Duration { return s.delay }

// Schedule arms the expiry for h. Scheduling a handle again restarts its delay.
func (s *Scheduler) Schedule(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if old, ok := s.pending[h]; ok {
		old.timer.Stop()
	}
	e := &expiry{}
	s.pending[h] = e
	e.timer = time.AfterFunc(s.delay, func() {
		s.fire(h, e)
	})
}

func (s *Scheduler) fire(h Handle, e *expiry) {
	s.mu.Lock()
	current, ok := s.pending[h]
	if !ok || current != e {
		// cancelled or rescheduled after the timer went off
		s.mu.Unlock()
		return
	}
	delete(s.pending, h)
	s.mu.Unlock()

	if s.onExpire != nil {
		s.onExpire(h)
	}
}

// Cancel drops the pending expiry for h. It reports whether one existed.
func (s *Scheduler) Cancel(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.pending[h]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.pending, h)
	return true
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels every pending expiry. Later Schedule calls are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for h, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, h)
	}
}
