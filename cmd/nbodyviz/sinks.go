package main

import (
	"sync"

	"github.com/quillaja/nbody2d/physics"
)

/*

frame output workers

*/

// pool feeds frames to a sink on worker goroutines, off the simulation loop.
type pool struct {
	ch      chan physics.Frame
	wg      sync.WaitGroup
	errOnce sync.Once
	err     error
	failed  chan struct{}
}

// start workers goroutines feeding frames to s. A sink that isn't safe for
// concurrent use must get exactly one worker.
func start(s physics.Observer, workers, buffer int) *pool {
	p := &pool{
		ch:     make(chan physics.Frame, buffer),
		failed: make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.wg.Done()
			for f := range p.ch {
				select {
				case <-p.failed:
					continue // drain without writing once the sink is broken
				default:
				}
				if err := s.Observe(f); err != nil {
					p.fail(err)
				}
			}
		}()
	}
	return p
}

func (p *pool) fail(err error) {
	p.errOnce.Do(func() {
		p.err = err
		close(p.failed)
	})
}

// Observe hands a copy of f to the workers. It returns the first worker
// error, if any, so the run stops once a sink is broken.
func (p *pool) Observe(f physics.Frame) error {
	f.Universe = f.Universe.Clone()
	select {
	case <-p.failed:
		return p.err
	case p.ch <- f:
		return nil
	}
}

// close waits for queued frames to drain and returns the first worker error.
func (p *pool) close() error {
	close(p.ch)
	p.wg.Wait()
	return p.err
}

// every passes only every n-th step on to obs.
func every(n int, obs physics.Observer) physics.Observer {
	return physics.ObserverFunc(func(f physics.Frame) error {
		if f.Step%n != 0 {
			return nil
		}
		return obs.Observe(f)
	})
}
