// Package runner wires one scheduling run end to end: it takes or generates a
// workload, measures the input order, reorders it and measures the result.
// The CLI and the TUI both drive runs through here so journaling and metrics
// stay in one place.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/smf/internal/logbook"
	"github.com/kingrea/smf/internal/makespan"
	"github.com/kingrea/smf/internal/metrics"
	"github.com/kingrea/smf/internal/scheduler"
	"github.com/kingrea/smf/internal/txn"
	"github.com/kingrea/smf/internal/workload"
)

// ErrNoWorkload is returned when a request carries neither a workload nor
// generator parameters.
var ErrNoWorkload = errors.New("runner: request needs a workload or generator parameters")

// Request describes one run.
type Request struct {
	// Workload is scheduled as given when non-nil, even if empty.
	Workload txn.Workload
	// Generate builds a random workload when Workload is nil.
	Generate *workload.Params
	// KeySpace bounds the keys a supplied workload may use. Zero accepts the
	// full domain.
	KeySpace int
	// SampleSize is passed to the scheduler; zero means the default.
	SampleSize int
	// Seed drives generation and scheduling. Zero picks one.
	Seed uint64
	// Layers asks for the per-layer trace of the reordered schedule.
	Layers bool
}

// Result is everything a renderer or report needs about a run.
type Result struct {
	RunID      string
	Seed       uint64
	SampleSize int
	KeySpace   int

	Base           txn.Schedule
	BaseMakespan   int
	SerialMakespan int

	Plan      scheduler.Plan
	Optimized txn.Schedule
	Makespan  int
	Layers    [][]makespan.Placement

	StartedAt time.Time
	Elapsed   time.Duration
}

// StepCosts returns the cost of every placement after the first.
func (r Result) StepCosts() []int {
	if len(r.Plan.Steps) <= 1 {
		return nil
	}
	costs := make([]int, 0, len(r.Plan.Steps)-1)
	for _, step := range r.Plan.Steps[1:] {
		costs = append(costs, step.Cost)
	}
	return costs
}

// Runner executes requests. It is safe for concurrent use as long as the
// logbook and recorder are.
type Runner struct {
	logbook *logbook.Logbook
	metrics *metrics.Recorder
	clock   func() time.Time
	seeds   func() uint64
}

// Option customizes a Runner.
type Option func(*Runner)

// WithLogbook journals every run.
func WithLogbook(lb *logbook.Logbook) Option {
	return func(r *Runner) {
		r.logbook = lb
	}
}

// WithMetrics records every run.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(r *Runner) {
		r.metrics = rec
	}
}

// WithClock overrides time.Now for tests.
func WithClock(clock func() time.Time) Option {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithSeedSource overrides how seeds are picked when a request has none.
func WithSeedSource(seeds func() uint64) Option {
	return func(r *Runner) {
		if seeds != nil {
			r.seeds = seeds
		}
	}
}

// New builds a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{clock: time.Now}
	r.seeds = func() uint64 { return uint64(r.clock().UnixNano()) }
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Run executes req.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	res, err := r.run(req)
	if err != nil {
		r.metrics.Failed()
		r.logbook.Error("run rejected: %v", err)
		return Result{}, err
	}
	r.metrics.Observe(metrics.Sample{
		BaseMakespan:      res.BaseMakespan,
		OptimizedMakespan: res.Makespan,
		SerialMakespan:    res.SerialMakespan,
		Transactions:      len(res.Optimized),
		StepCosts:         res.StepCosts(),
	})
	r.logbook.Info("run %s: %d transactions, sample %d, seed %d, makespan %d -> %d (serial %d) in %s",
		res.RunID, len(res.Optimized), res.SampleSize, res.Seed,
		res.BaseMakespan, res.Makespan, res.SerialMakespan, res.Elapsed)
	return res, nil
}

func (r *Runner) run(req Request) (Result, error) {
	started := r.clock()
	sampleSize := req.SampleSize
	if sampleSize == 0 {
		sampleSize = scheduler.DefaultSampleSize
	}
	seed := req.Seed
	if seed == 0 {
		seed = r.seeds()
	}

	w, keySpace, err := resolveWorkload(req, seed)
	if err != nil {
		return Result{}, err
	}
	sched, err := scheduler.New(
		scheduler.WithSampleSize(sampleSize),
		scheduler.WithSeed(seed+1),
	)
	if err != nil {
		return Result{}, err
	}

	base := w.AsSchedule()
	plan := sched.Plan(w)
	res := Result{
		RunID:          uuid.NewString(),
		Seed:           seed,
		SampleSize:     sampleSize,
		KeySpace:       keySpace,
		Base:           base,
		BaseMakespan:   makespan.Compute(base),
		SerialMakespan: workload.SerialMakespan(w),
		Plan:           plan,
		Optimized:      plan.Order,
		Makespan:       makespan.Compute(plan.Order),
		StartedAt:      started,
	}
	if req.Layers {
		res.Layers = makespan.Layers(plan.Order)
	}
	res.Elapsed = r.clock().Sub(started)
	return res, nil
}

func resolveWorkload(req Request, seed uint64) (txn.Workload, int, error) {
	if req.Workload != nil {
		if err := workload.Validate(req.Workload, req.KeySpace); err != nil {
			return nil, 0, err
		}
		keySpace := req.KeySpace
		if keySpace <= 0 {
			keySpace = txn.MaxKeySpace
		}
		return req.Workload, keySpace, nil
	}
	if req.Generate == nil {
		return nil, 0, ErrNoWorkload
	}
	w, err := workload.Generate(scheduler.NewRand(seed), *req.Generate)
	if err != nil {
		return nil, 0, fmt.Errorf("runner: %w", err)
	}
	return w, req.Generate.KeySpace, nil
}
