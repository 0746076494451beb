package worker

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolRunsAllJobs(t *testing.T) {
	p := NewPool(4)

	var done int64
	for i := 0; i < 100; i++ {
		p.Submit(func() { atomic.AddInt64(&done, 1) })
	}
	p.Stop()

	assert.Equal(t, int64(100), atomic.LoadInt64(&done))
}

func TestPoolStopWaitsForInflight(t *testing.T) {
	p := NewPool(1)

	var finished atomic.Bool
	p.Submit(func() { finished.Store(true) })
	p.Stop()

	assert.True(t, finished.Load())
}
