package player

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSamplerTicks(t *testing.T) {
	var ticks atomic.Int64
	fired := make(chan struct{}, 16)

	s := newSampler(5 * time.Millisecond)
	s.tick = func() {
		ticks.Add(1)
		select {
		case fired <- struct{}{}:
		default:
		}
	}
	s.start()
	defer s.stop()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("sampler never ticked")
	}
}

func TestSamplerStopEndsLoop(t *testing.T) {
	var ticks atomic.Int64

	s := newSampler(5 * time.Millisecond)
	s.tick = func() { ticks.Add(1) }
	s.start()

	s.stop()
	s.stop() // idempotent

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("sampler loop did not exit after stop")
	}

	n := ticks.Load()
	time.Sleep(25 * time.Millisecond)
	if got := ticks.Load(); got != n {
		t.Fatalf("sampler ticked after stop: %d -> %d", n, got)
	}
}
