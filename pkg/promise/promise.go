package promise

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrEmptyJoin is returned when a join is built from zero tasks
var ErrEmptyJoin = errors.New("join requires at least one task")

// Status is the terminal state of a joined task
type Status int

const (
	Failed Status = iota
	Successful
)

func (s Status) String() string {
	if s == Successful {
		return "successful"
	}
	return "failed"
}

// Outcome is the terminal result of one task
type Outcome struct {
	Status Status
	Data   []byte
	Err    error
}

// Task is one unit of asynchronous work. A returned error, a panic, or
// exceeding the per-task timeout all produce a Failed outcome.
type Task func(ctx context.Context) ([]byte, error)

// Results holds every task outcome, addressable by dispatch index
type Results struct {
	outcomes []Outcome
}

// NewResults builds Results from outcomes already in dispatch order
func NewResults(outcomes ...Outcome) Results {
	return Results{outcomes: outcomes}
}

// Len returns the number of joined tasks
func (r Results) Len() int {
	return len(r.outcomes)
}

// At returns the outcome at index i. Out-of-range indices report Failed.
func (r Results) At(i int) Outcome {
	if i < 0 || i >= len(r.outcomes) {
		return Outcome{Status: Failed, Err: fmt.Errorf("no outcome at index %d", i)}
	}
	return r.outcomes[i]
}

// Continuation runs once after every joined task is terminal
type Continuation[T any] func(results Results) (T, error)

// Joint is the logical AND of a set of tasks
type Joint struct {
	tasks       []Task
	taskTimeout time.Duration
}

// All joins tasks into one operation that completes when all of them do
func All(tasks ...Task) (*Joint, error) {
	if len(tasks) == 0 {
		return nil, ErrEmptyJoin
	}
	return &Joint{tasks: tasks}, nil
}

// And adds another task to the join
func (j *Joint) And(task Task) *Joint {
	j.tasks = append(j.tasks, task)
	return j
}

// WithTaskTimeout bounds every task individually. Zero means no bound.
func (j *Joint) WithTaskTimeout(d time.Duration) *Joint {
	j.taskTimeout = d
	return j
}

// Len returns the number of joined tasks
func (j *Joint) Len() int {
	return len(j.tasks)
}

// Then schedules every task and registers cont to run exactly once after all of
// them are terminal. It returns immediately. Tasks are detached from ctx
// cancellation: once scheduled they run to completion.
func Then[T any](ctx context.Context, j *Joint, cont Continuation[T]) *Handle[T] {
	h := newHandle[T]()
	detached := context.WithoutCancel(ctx)

	go func() {
		outcomes := make([]Outcome, len(j.tasks))

		var g errgroup.Group
		for i, task := range j.tasks {
			g.Go(func() error {
				outcomes[i] = j.run(detached, task)
				return nil
			})
		}
		_ = g.Wait()

		h.resolve(runContinuation(cont, Results{outcomes: outcomes}))
	}()

	return h
}

func (j *Joint) run(ctx context.Context, task Task) Outcome {
	if j.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.taskTimeout)
		defer cancel()
	}

	// buffered so a task that outlives its timeout can still finish and exit
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("task panicked: %v", r)}
			}
		}()
		data, err := task(ctx)
		done <- result{data: data, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return Outcome{Status: Failed, Err: res.err}
		}
		return Outcome{Status: Successful, Data: res.data}
	case <-ctx.Done():
		return Outcome{Status: Failed, Err: ctx.Err()}
	}
}

func runContinuation[T any](cont Continuation[T], results Results) (res settled[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = settled[T]{err: fmt.Errorf("continuation panicked: %v", r)}
		}
	}()
	v, err := cont(results)
	return settled[T]{value: v, err: err}
}
