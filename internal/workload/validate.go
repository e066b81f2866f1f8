package workload

import (
	"errors"
	"fmt"

	"github.com/kingrea/smf/internal/txn"
)

var (
	// ErrDuplicateID marks a workload where two transactions share an id.
	ErrDuplicateID = errors.New("workload: duplicate transaction id")
	// ErrKeyOutOfRange marks an operation on a key outside the key space.
	ErrKeyOutOfRange = errors.New("workload: key outside key space")
)

// Validate rejects workloads the scheduler and simulator assume never occur.
// keySpace <= 0 checks against the full domain.
func Validate(w txn.Workload, keySpace int) error {
	if keySpace <= 0 || keySpace > txn.MaxKeySpace {
		keySpace = txn.MaxKeySpace
	}
	seen := make(map[int]struct{}, len(w))
	for i, t := range w {
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: T%d at position %d", ErrDuplicateID, t.ID, i)
		}
		seen[t.ID] = struct{}{}
		for j, op := range t.Operations {
			if int(op.Key) >= keySpace {
				return fmt.Errorf("%w: T%d operation %d uses %s, key space is %d", ErrKeyOutOfRange, t.ID, j, op.Key.Name(), keySpace)
			}
		}
	}
	return nil
}
