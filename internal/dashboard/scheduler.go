package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSchedulerRunning is returned when Start is called on a running scheduler
var ErrSchedulerRunning = errors.New("scheduler already running")

// Scheduler calls fire at a fixed interval until stopped. Ticks do not wait
// for previous work to finish.
type Scheduler struct {
	interval time.Duration
	fire     func()

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a stopped scheduler
func NewScheduler(interval time.Duration, fire func()) *Scheduler {
	return &Scheduler{interval: interval, fire: fire}
}

// Start arms the ticker. It stops on its own when ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return errors.New("refresh interval must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return ErrSchedulerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)
	return nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.fire()
		case <-ctx.Done():
			return
		}
	}
}

// Stop disarms the ticker and waits for the tick goroutine to exit.
// It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
