package worker

import (
	"sync"
)

type job func()

// Pool runs fire-and-forget jobs on a fixed set of goroutines.
type Pool struct {
	wg   sync.WaitGroup
	jobs chan job
}

func NewPool(n int) *Pool {
	p := &Pool{jobs: make(chan job, 256)}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				j()
			}
		}()
	}
	return p
}

// Submit enqueues a job. It blocks only if the buffer is full.
func (p *Pool) Submit(f func()) { p.jobs <- f }

// Stop drains the queue and waits for in-flight jobs.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}
