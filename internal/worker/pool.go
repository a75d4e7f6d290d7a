package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Job is one unit of webhook work. The id is used for dead-letter logging.
type Job struct {
	ID  string
	Run func(ctx context.Context) error
}

// Pool runs webhook jobs on a fixed number of goroutines behind a bounded
// queue. Submission never blocks the accepting HTTP handler: when the queue
// is full the job is dropped and dead-lettered to the log.
type Pool struct {
	jobs    chan Job
	log     zerolog.Logger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool creates a Pool with the given worker count and queue size. timeout
// bounds the execution of a single job.
func NewPool(workers, queueSize int, timeout time.Duration, log zerolog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	p := &Pool{
		jobs:    make(chan Job, queueSize),
		log:     log.With().Str("component", "worker").Logger(),
		timeout: timeout,
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

// Submit enqueues a job. Returns false when the queue is full or the pool is
// stopped; the drop is logged as a dead letter.
func (p *Pool) Submit(job Job) bool {
	select {
	case <-p.ctx.Done():
		p.deadLetter(job, "pool stopped")
		return false
	default:
	}

	select {
	case p.jobs <- job:
		return true
	default:
		p.deadLetter(job, "queue full")
		return false
	}
}

// Stop drains in-flight jobs and shuts the workers down. Queued jobs that
// have not started yet are dead-lettered.
func (p *Pool) Stop() {
	p.cancel()
	close(p.jobs)
	p.wg.Wait()
}

func (p *Pool) run() {
	defer p.wg.Done()
	for job := range p.jobs {
		select {
		case <-p.ctx.Done():
			p.deadLetter(job, "pool stopped")
			continue
		default:
		}
		p.execute(job)
	}
}

func (p *Pool) execute(job Job) {
	ctx := context.Background()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := job.Run(ctx); err != nil {
		p.log.Error().Err(err).Str("job", job.ID).Msg("webhook job failed")
	}
}

func (p *Pool) deadLetter(job Job, reason string) {
	p.log.Error().Str("job", job.ID).Str("reason", reason).Msg("webhook job dropped")
}
