// Package parallel runs jobs on a fixed set of worker goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// WorkerFunc and WaitFunc are the shapes commands receive the pool as, so a
// command can be handed either a real pool or an inline runner.
type (
	WorkerFunc func(func())
	WaitFunc   func()
)

type Pool struct {
	wg      sync.WaitGroup
	work    chan func()
	workers int
	stop    func()
}

// Start launches numWorkers workers, GOMAXPROCS when numWorkers < 1. A
// single worker runs jobs inline on the caller's goroutine.
func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	pool := &Pool{
		workers: numWorkers,
		stop:    func() {},
	}
	if numWorkers == 1 {
		return pool
	}

	pool.work = make(chan func(), numWorkers)
	for range numWorkers {
		pool.wg.Go(func() {
			for f := range pool.work {
				f()
			}
		})
	}
	pool.stop = sync.OnceFunc(func() { close(pool.work) })

	return pool
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return p.workers
}

// Do queues f, blocking while every worker is busy and the queue is full.
// Do must not be called after Wait.
func (p *Pool) Do(f func()) {
	if p.work == nil {
		f()
		return
	}
	p.work <- f
}

// Wait stops accepting work and blocks until every queued job has run.
func (p *Pool) Wait() {
	p.stop()
	p.wg.Wait()
}
