package depot

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// workers is the process-wide pool parallel jobs run on: GOMAXPROCS
// goroutines reading one channel, started on first use.
var workers scheduler

type scheduler struct {
	once sync.Once
	work chan func()
}

func (s *scheduler) start() {
	n := runtime.GOMAXPROCS(0)
	s.work = make(chan func(), 4*n)
	for range n {
		go func() {
			for fn := range s.work {
				fn()
			}
		}()
	}
}

// submit hands fn to the pool. When the queue is full fn runs on the caller.
func (s *scheduler) submit(fn func()) {
	s.once.Do(s.start)
	select {
	case s.work <- fn:
	default:
		fn()
	}
}

// barrier counts outstanding chunks. It starts at one for the submitting
// caller, who releases it after the last submission and then waits. There
// is no cancellation: submitted chunks always run to completion.
type barrier struct {
	pending  atomic.Int64
	done     chan struct{}
	mu       sync.Mutex
	firstErr error
}

func newBarrier() *barrier {
	b := &barrier{done: make(chan struct{})}
	b.pending.Store(1)
	return b
}

// run submits one chunk.
func (b *barrier) run(chunk func() error) {
	b.pending.Add(1)
	workers.submit(func() {
		defer b.release()
		if err := chunk(); err != nil {
			b.mu.Lock()
			if b.firstErr == nil {
				b.firstErr = err
			}
			b.mu.Unlock()
		}
	})
}

func (b *barrier) release() {
	if b.pending.Add(-1) == 0 {
		close(b.done)
	}
}

// wait releases the caller's count and blocks until every chunk is done.
// While blocked it runs queued chunks of any job, so a job started from
// inside a chunk finishes even when every worker is busy.
func (b *barrier) wait() error {
	workers.once.Do(workers.start)
	b.release()
	for {
		select {
		case <-b.done:
			b.mu.Lock()
			defer b.mu.Unlock()
			return b.firstErr
		case fn := <-workers.work:
			fn()
		}
	}
}
