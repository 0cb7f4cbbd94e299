package player

import (
	"sync"
	"time"
)

// sampler is a cancellable repeating task with a single owned handle. The
// controller holds at most one live sampler at a time, so rapid state
// flapping can never leave two loops running. Stopping is idempotent and
// does not wait for an in-flight tick: a tick already running finishes its
// read, but no further tick is ever scheduled.
type sampler struct {
	interval time.Duration
	tick     func()
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newSampler(interval time.Duration) *sampler {
	return &sampler{
		interval: interval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// start launches the sampling loop. tick must be set first.
func (s *sampler) start() {
	go s.run()
}

func (s *sampler) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// stop cancels the loop. Safe to call more than once.
func (s *sampler) stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}
