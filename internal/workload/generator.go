// internal/workload/generator.go
//
// Random workloads for trying the scheduler out. Nothing in the core depends
// on this package: any well-formed workload works, this one just happens to be
// convenient.

package workload

import (
	"errors"
	"fmt"

	"github.com/kingrea/smf/internal/txn"
)

// ErrInvalidParams is wrapped by every generator parameter error.
var ErrInvalidParams = errors.New("workload: invalid generator parameters")

// Rand is the randomness the generator consumes.
type Rand interface {
	IntN(n int) int
}

// Params sizes a generated workload.
type Params struct {
	Transactions int
	// MinOperations and MaxOperations bound the half-open range [Min, Max) the
	// per-transaction operation count is drawn from. Min == Max yields exactly
	// Min operations.
	MinOperations int
	MaxOperations int
	// KeySpace is how many keys of the domain operations may touch.
	KeySpace int
}

// Validate checks the parameters the way input prompts do: every count must
// be a positive whole number.
func (p Params) Validate() error {
	switch {
	case p.Transactions <= 0:
		return fmt.Errorf("%w: transactions must be > 0 (got %d)", ErrInvalidParams, p.Transactions)
	case p.MinOperations <= 0:
		return fmt.Errorf("%w: minimum operations must be > 0 (got %d)", ErrInvalidParams, p.MinOperations)
	case p.MaxOperations <= 0:
		return fmt.Errorf("%w: maximum operations must be > 0 (got %d)", ErrInvalidParams, p.MaxOperations)
	case p.MinOperations > p.MaxOperations:
		return fmt.Errorf("%w: minimum operations %d exceeds maximum %d", ErrInvalidParams, p.MinOperations, p.MaxOperations)
	case p.KeySpace <= 0 || p.KeySpace > txn.MaxKeySpace:
		return fmt.Errorf("%w: key space must be within 1..%d (got %d)", ErrInvalidParams, txn.MaxKeySpace, p.KeySpace)
	}
	return nil
}

// Generate builds a workload with ids 0..Transactions-1.
func Generate(r Rand, p Params) (txn.Workload, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidParams)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	w := make(txn.Workload, p.Transactions)
	for i := range w {
		w[i] = txn.Transaction{ID: i, Operations: generateOperations(r, p)}
	}
	return w, nil
}

func generateOperations(r Rand, p Params) []txn.Operation {
	count := p.MinOperations
	if span := p.MaxOperations - p.MinOperations; span > 0 {
		count += r.IntN(span)
	}
	ops := make([]txn.Operation, count)
	for i := range ops {
		ops[i] = txn.Operation{
			Type: txn.OperationType(r.IntN(2)),
			Key:  txn.Key(r.IntN(p.KeySpace)),
		}
	}
	return ops
}

// SerialMakespan is the layer count of running every operation one after
// another, the upper bound any schedule stays within.
func SerialMakespan(w txn.Workload) int {
	return txn.Schedule(w).TotalOperations()
}
