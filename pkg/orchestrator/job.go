package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Job runs one generation in the background and reports through an event
// channel. Stop is honoured at the next chunk boundary.
type Job struct {
	ID string

	orch     *Orchestrator
	req      GenerationRequest
	infinite bool
	ctx      context.Context
	cancel   context.CancelFunc
	events   chan JobEvent

	stopRequested atomic.Bool
	done          chan struct{}
	once          sync.Once

	mu      sync.Mutex
	samples []float32
	err     error
}

// StartJob starts req in a new goroutine. With infinite false the request is
// generated in a single call of req.TotalSecs.
func (o *Orchestrator) StartJob(ctx context.Context, req GenerationRequest, infinite bool) *Job {
	jCtx, jCancel := context.WithCancel(ctx)

	j := &Job{
		ID:       "job_" + uuid.NewString(),
		orch:     o,
		req:      req,
		infinite: infinite,
		ctx:      jCtx,
		cancel:   jCancel,
		events:   make(chan JobEvent, 256),
		done:     make(chan struct{}),
	}

	go j.run()
	return j
}

func (j *Job) run() {
	defer close(j.done)
	defer close(j.events)
	defer j.cancel()

	j.emit(JobStarted, j.req)

	onProgress := func(elapsed, total float64) bool {
		j.emit(ChunkProgress, Progress{Elapsed: elapsed, Total: total})
		return j.stopRequested.Load()
	}

	var (
		samples []float32
		err     error
	)
	if j.infinite {
		samples, err = j.orch.GenerateInfinite(j.ctx, j.req, onProgress)
	} else {
		samples, err = j.orch.Generate(j.ctx, j.req.Prompt, j.req.TotalSecs, onProgress)
	}

	j.mu.Lock()
	j.samples = samples
	j.err = err
	j.mu.Unlock()

	switch {
	case err != nil:
		j.emit(ErrorEvent, err.Error())
	case j.stopRequested.Load():
		j.emit(JobStopped, len(samples))
	default:
		j.emit(JobCompleted, len(samples))
	}
}

// Stop asks the job to finish after the chunk in progress. The audio composed
// up to that point becomes the result.
func (j *Job) Stop() {
	j.once.Do(func() {
		j.orch.logger.Info("job stop requested", "jobID", j.ID)
		j.stopRequested.Store(true)
	})
}

// Cancel aborts the job through its context. Unlike Stop this surfaces as a
// generation failure if a chunk is in flight.
func (j *Job) Cancel() {
	j.cancel()
}

// Events returns the event channel. It is closed when the job finishes.
// Progress is cumulative, so a reader that falls behind loses nothing but
// intermediate updates.
func (j *Job) Events() <-chan JobEvent {
	return j.events
}

// Done is closed once the result is available.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes or ctx is done.
func (j *Job) Wait(ctx context.Context) ([]float32, error) {
	select {
	case <-j.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.samples, j.err
}

// emit drops the event when the buffer is full so a job nobody listens to
// still finishes. Wait is the authoritative way to obtain the result.
func (j *Job) emit(eventType EventType, data interface{}) {
	event := JobEvent{
		Type:  eventType,
		JobID: j.ID,
		Data:  data,
	}

	select {
	case j.events <- event:
	default:
		j.orch.logger.Warn("job event dropped", "jobID", j.ID, "type", eventType)
	}
}
