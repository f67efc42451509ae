package service

import (
	"context"
	"sync"
)

// Saver coalesces flush requests: while one flush is in flight, further
// requests queue instead of issuing concurrent writes; when the
// in-flight flush completes, exactly one follow-up flush covers the
// whole queue, and every queued caller observes that follow-up's
// outcome. The flush function must capture the current full state when
// invoked, not when Save was called — that is what makes coalescing
// safe.
type Saver struct {
	mu       sync.Mutex
	inFlight bool
	waiters  []chan error
	flush    func(ctx context.Context) error
}

func NewSaver(flush func(ctx context.Context) error) *Saver {
	return &Saver{flush: flush}
}

// Save flushes now, or queues behind the in-flight flush and returns
// the trailing flush's outcome.
func (s *Saver) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		ch := make(chan error, 1)
		s.waiters = append(s.waiters, ch)
		s.mu.Unlock()

		select {
		case err := <-ch:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.inFlight = true
	s.mu.Unlock()

	err := s.flush(ctx)
	s.drain(ctx)
	return err
}

// drain issues one trailing flush per accumulated batch of waiters
// until the queue is empty, then clears the in-flight flag.
func (s *Saver) drain(ctx context.Context) {
	for {
		s.mu.Lock()
		if len(s.waiters) == 0 {
			s.inFlight = false
			s.mu.Unlock()
			return
		}
		batch := s.waiters
		s.waiters = nil
		s.mu.Unlock()

		err := s.flush(ctx)
		for _, ch := range batch {
			ch <- err
		}
	}
}
