// Package fanout implements the Bounded Fan-out Executor (C3): the
// "sliding-window pool" that runs N tasks with at most K in flight,
// preserving input order in the result and never leaking a concurrency slot
// on task failure or panic. The acquire-before-work /
// release-in-defer semaphore pattern is lifted directly from
// orchestration/executor.go's step-execution loop
// (`e.semaphore <- struct{}{}` before work, `<-e.semaphore` released first
// in a deferred cleanup so a panic can't leak a slot), generalized here with
// Go generics instead of the teacher's fixed StepResult type.
package fanout

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gomind-research/procmind/internal/logging"
	"github.com/gomind-research/procmind/internal/telemetry"
)

// Job is spec.md §3's FanoutJob<T,R>: an ordered sequence of inputs, a task
// mapping each input to a result, and a concurrency cap.
type Job[T, R any] struct {
	Inputs      []T
	Task        func(context.Context, T) R
	MaxInFlight int
}

// Run executes task over inputs with at most maxInFlight concurrent
// invocations and returns results in input order: result[i] corresponds to
// inputs[i] regardless of completion order. A panic inside task is
// recovered and, when onPanic is non-nil, converted to a result via
// onPanic; a nil inputs slice returns a nil result slice immediately.
//
// Required properties (all hold by construction):
//   - order preservation: results[i] is always written to index i
//   - no slot leak: the semaphore is released in a defer, which runs after
//     the recovering defer even when the task panics
//   - no unbounded queue growth: at most maxInFlight goroutines hold the
//     semaphore at once; the rest block on the channel send, not a buffer
//   - completion: Run returns only after every input has produced a result
//   - failure isolation: one task's panic never aborts another's goroutine
func Run[T, R any](ctx context.Context, inputs []T, maxInFlight int, task func(context.Context, T) R, onPanic func(recovered any) R) []R {
	if len(inputs) == 0 {
		return nil
	}
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	if maxInFlight > len(inputs) {
		maxInFlight = len(inputs)
	}

	results := make([]R, len(inputs))
	semaphore := make(chan struct{}, maxInFlight)

	var wg sync.WaitGroup
	wg.Add(len(inputs))

	for i, in := range inputs {
		semaphore <- struct{}{}

		go func(idx int, input T) {
			defer wg.Done()
			defer func() { <-semaphore }()
			defer func() {
				if r := recover(); r != nil && onPanic != nil {
					results[idx] = onPanic(r)
				}
			}()
			results[idx] = task(ctx, input)
		}(i, in)
	}

	wg.Wait()
	return results
}

// RunJob is a thin convenience wrapper around Run taking a Job value
// directly, matching spec.md §3's FanoutJob shape verbatim.
func RunJob[T, R any](ctx context.Context, job Job[T, R], onPanic func(recovered any) R) []R {
	return Run(ctx, job.Inputs, job.MaxInFlight, job.Task, onPanic)
}

// PanicToError is a common onPanic handler for tasks whose result type is
// (or embeds) an error; callers that need a typed R should wrap this.
func PanicToError(r any) error {
	return fmt.Errorf("fanout task panicked: %v", r)
}

// RunTraced behaves exactly like Run, but additionally assigns this job a
// correlation ID and, when tel is non-nil, wraps the whole job in a span
// named "fanout."+jobName — the "span per fan-out job" this package's
// adapters wire in (BaseClient.Do already spans the individual HTTP calls
// inside each task; this is the span one level up, around the job as a
// whole). Passing a nil tel or nil logger is safe: tel simply skips span
// creation and logger defaults to logging.NoOp().
func RunTraced[T, R any](ctx context.Context, tel *telemetry.Provider, logger logging.Logger, jobName string, inputs []T, maxInFlight int, task func(context.Context, T) R, onPanic func(recovered any) R) []R {
	if logger == nil {
		logger = logging.NoOp()
	}
	logger = logger.With("fanout")

	jobID := uuid.NewString()
	fields := logging.Fields{"job_id": jobID, "job": jobName, "inputs": len(inputs), "max_in_flight": maxInFlight}

	if tel != nil {
		var span telemetry.Span
		ctx, span = tel.StartSpan(ctx, "fanout."+jobName)
		span.SetAttribute("job_id", jobID)
		span.SetAttribute("input_count", len(inputs))
		span.SetAttribute("max_in_flight", maxInFlight)
		defer span.End()
	}

	logger.Debug("fan-out job starting", fields)
	results := Run(ctx, inputs, maxInFlight, task, onPanic)
	logger.Debug("fan-out job completed", fields)
	return results
}
