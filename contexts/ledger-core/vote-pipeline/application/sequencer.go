package application

import (
	"context"
	"sync"

	domainerrors "votary/contexts/ledger-core/vote-pipeline/domain/errors"
)

type sequencerJob struct {
	ctx  context.Context
	run  func(context.Context) error
	done chan error
}

// Sequencer serializes submissions sharing a sequencing domain. Work is
// admitted in arrival order and each unit runs to completion (success or
// failure) before the next one starts its critical section, so no two
// submissions interleave their resolve/authorize/build phases.
type Sequencer struct {
	mu     sync.RWMutex
	jobs   chan sequencerJob
	closed bool
}

func NewSequencer(depth int) *Sequencer {
	if depth <= 0 {
		depth = 64
	}
	s := &Sequencer{jobs: make(chan sequencerJob, depth)}
	go s.loop()
	return s
}

func (s *Sequencer) loop() {
	for job := range s.jobs {
		// A caller that gave up before its turn is dequeued without running.
		if err := job.ctx.Err(); err != nil {
			job.done <- err
			continue
		}
		job.done <- job.run(job.ctx)
	}
}

// Do enqueues fn and blocks until it has fully run, returning its error to
// the original caller. Enqueue order is completion order.
func (s *Sequencer) Do(ctx context.Context, fn func(context.Context) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return domainerrors.ErrSubmissionQueueStall
	}
	done := make(chan error, 1)
	select {
	case s.jobs <- sequencerJob{ctx: ctx, run: fn, done: done}:
		s.mu.RUnlock()
	case <-ctx.Done():
		s.mu.RUnlock()
		return ctx.Err()
	}
	return <-done
}

// Close stops admission. Jobs already queued still run.
func (s *Sequencer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.jobs)
	}
}
