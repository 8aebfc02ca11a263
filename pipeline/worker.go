package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/wavfx/effectchain"
)

// ErrSuperseded is reported for a preview replaced by a newer one before
// it finished.
var ErrSuperseded = errors.New("preview superseded")

// Job is one request for the Worker.
type Job struct {
	Op     Op
	Source string
	Chain  effectchain.Chain
}

// Outcome is the result of a Job.
type Outcome struct {
	Job    Job
	Result Result
	Err    error
}

// Worker runs jobs one at a time in submission order and delivers outcomes
// on a channel. Submitting a preview supersedes every pending or running
// preview.
type Worker struct {
	p       *Processor
	preview atomic.Uint64
	results chan Outcome
	wg      sync.WaitGroup

	mu     sync.Mutex
	turn   chan struct{} // closed once the last submitted job is done
	closed bool
}

// NewWorker creates a worker around p. buffer sizes the outcome channel.
func NewWorker(p *Processor, buffer int) *Worker {
	turn := make(chan struct{})
	close(turn)

	return &Worker{
		p:       p,
		results: make(chan Outcome, buffer),
		turn:    turn,
	}
}

// Results returns the outcome channel. It is closed by Close.
func (w *Worker) Results() <-chan Outcome {
	return w.results
}

// Submit queues job behind every job submitted before it. Cancelling ctx
// abandons the wait or discards the result; a running chain is not
// interrupted. Submit after Close panics.
func (w *Worker) Submit(ctx context.Context, job Job) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		panic("pipeline: Submit on closed Worker")
	}

	var gen uint64
	if job.Op == OpPreview {
		gen = w.preview.Add(1)
	}

	prev, done := w.turn, make(chan struct{})
	w.turn = done
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		defer close(done)

		select {
		case <-prev:
		case <-ctx.Done():
			w.results <- Outcome{Job: job, Err: ctx.Err()}
			// Later jobs still start only after the earlier ones.
			<-prev

			return
		}

		w.results <- w.run(ctx, job, gen)
	}()
}

func (w *Worker) run(ctx context.Context, job Job, gen uint64) Outcome {
	out := Outcome{Job: job}

	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	if w.stale(job, gen) {
		out.Err = ErrSuperseded
		return out
	}

	switch job.Op {
	case OpPreview:
		out.Result, out.Err = w.p.Preview(ctx, job.Source, job.Chain)
	case OpApply:
		out.Result, out.Err = w.p.Apply(ctx, job.Source, job.Chain)
	default:
		out.Err = errors.New("pipeline: unsupported job " + job.Op.String())
	}

	if out.Err != nil {
		return out
	}

	if job.Op == OpPreview && (w.stale(job, gen) || ctx.Err() != nil) {
		removeQuietly(out.Result.Path)

		out.Result = Result{}
		out.Err = ErrSuperseded

		if ctx.Err() != nil {
			out.Err = ctx.Err()
		}
	}

	return out
}

func (w *Worker) stale(job Job, gen uint64) bool {
	return job.Op == OpPreview && w.preview.Load() != gen
}

// Close waits for submitted jobs and closes the results channel. Outcomes
// must be drained for Close to return.
func (w *Worker) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}

	w.closed = true
	w.mu.Unlock()

	w.wg.Wait()
	close(w.results)
}
