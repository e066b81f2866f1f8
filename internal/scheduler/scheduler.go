package scheduler

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/kingrea/smf/internal/txn"
)

// DefaultSampleSize is the candidate pool size used per step when none is set.
const DefaultSampleSize = 5

// ErrInvalidSampleSize is returned when the sample size is not positive.
var ErrInvalidSampleSize = errors.New("scheduler: sample size must be a positive integer")

// Rand is the randomness the scheduler consumes. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// Scheduler runs the sampled greedy reorder. A Scheduler owns its random
// source and must not be shared between goroutines.
type Scheduler struct {
	sampleSize int
	rand       Rand
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithSampleSize sets how many unscheduled transactions are scored per step.
func WithSampleSize(n int) Option {
	return func(s *Scheduler) {
		s.sampleSize = n
	}
}

// WithRand injects the random source.
func WithRand(r Rand) Option {
	return func(s *Scheduler) {
		if r != nil {
			s.rand = r
		}
	}
}

// WithSeed uses a PCG source seeded with seed.
func WithSeed(seed uint64) Option {
	return WithRand(NewRand(seed))
}

// NewRand returns a seeded PCG-backed generator.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// New builds a Scheduler. The sample size is checked here so a bad value is
// rejected before any work happens.
func New(opts ...Option) (*Scheduler, error) {
	s := &Scheduler{sampleSize: DefaultSampleSize}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.sampleSize <= 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidSampleSize, s.sampleSize)
	}
	if s.rand == nil {
		s.rand = NewRand(uint64(time.Now().UnixNano()))
	}
	return s, nil
}

// SampleSize returns the configured sample size.
func (s *Scheduler) SampleSize() int {
	return s.sampleSize
}

// Schedule orders w using sampleSize candidates per step. It is the single
// call most callers need.
func Schedule(w txn.Workload, sampleSize int, r Rand) (txn.Schedule, error) {
	s, err := New(WithSampleSize(sampleSize), WithRand(r))
	if err != nil {
		return nil, err
	}
	return s.Schedule(w), nil
}

// Step describes one placement decision.
type Step struct {
	// Chosen is the id placed at this position.
	Chosen int
	// Cost is the chosen transaction's conflict cost against its predecessor.
	// The first step has no predecessor and costs 0.
	Cost int
	// Sampled lists candidate ids in the order they were scored. The first
	// step holds only the uniformly picked transaction.
	Sampled []int
}

// Plan is the ordering plus the decisions that produced it.
type Plan struct {
	Order txn.Schedule
	Steps []Step
}

// Schedule returns the ordering only.
func (s *Scheduler) Schedule(w txn.Workload) txn.Schedule {
	return s.Plan(w).Order
}

// Plan orders w and records every step.
func (s *Scheduler) Plan(w txn.Workload) Plan {
	plan := Plan{Order: make(txn.Schedule, 0, len(w))}
	if len(w) == 0 {
		return plan
	}
	unscheduled := newPool(w)

	first := unscheduled.take(s.rand.IntN(unscheduled.Len()))
	plan.Order = append(plan.Order, first)
	plan.Steps = append(plan.Steps, Step{Chosen: first.ID, Sampled: []int{first.ID}})

	for unscheduled.Len() > 0 {
		last := plan.Order[len(plan.Order)-1]
		writes := last.WriteKeys()

		sample := sampleIndices(s.rand, unscheduled.Len(), s.sampleSize)
		step := Step{Sampled: make([]int, 0, len(sample))}
		best, bestCost := -1, math.MaxInt
		for _, idx := range sample {
			candidate := unscheduled.at(idx)
			step.Sampled = append(step.Sampled, candidate.ID)
			cost := ConflictCost(candidate, writes)
			// Ties keep the earlier candidate.
			if cost < bestCost {
				best, bestCost = idx, cost
			}
		}

		chosen := unscheduled.take(best)
		step.Chosen, step.Cost = chosen.ID, bestCost
		plan.Order = append(plan.Order, chosen)
		plan.Steps = append(plan.Steps, step)
	}
	return plan
}

// ConflictCost counts the operations of candidate whose key is written by the
// predecessor. Reads and writes of the candidate count alike; the
// predecessor's reads are ignored.
func ConflictCost(candidate txn.Transaction, predecessorWrites txn.KeySet) int {
	if predecessorWrites.Empty() {
		return 0
	}
	cost := 0
	for _, op := range candidate.Operations {
		if predecessorWrites.Has(op.Key) {
			cost++
		}
	}
	return cost
}

// CostAgainst is ConflictCost with the predecessor given as a transaction.
func CostAgainst(candidate, predecessor txn.Transaction) int {
	return ConflictCost(candidate, predecessor.WriteKeys())
}
