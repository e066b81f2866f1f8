// internal/txn/types.go
//
// The workload model shared by the scheduler and the makespan simulator.
// Everything here is read-only once built: components reorder transactions
// but never touch the operations inside them.

package txn

import (
	"fmt"
	"strings"
)

// MaxKeySpace is the size of the full key domain (A..Z).
const MaxKeySpace = 26

// DefaultKeySpace is the number of keys used when nothing else is configured.
const DefaultKeySpace = 5

// Key names one addressable slot of shared state.
type Key uint8

// KeyFromIndex returns the key at position i of the domain.
func KeyFromIndex(i int) (Key, error) {
	if i < 0 || i >= MaxKeySpace {
		return 0, fmt.Errorf("txn: key index %d outside 0..%d", i, MaxKeySpace-1)
	}
	return Key(i), nil
}

// ParseKey accepts a single letter in either case.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if len(s) != 1 {
		return 0, fmt.Errorf("txn: invalid key %q", s)
	}
	c := s[0]
	switch {
	case c >= 'a' && c <= 'z':
		return Key(c - 'a'), nil
	case c >= 'A' && c <= 'Z':
		return Key(c - 'A'), nil
	}
	return 0, fmt.Errorf("txn: invalid key %q", s)
}

// Name is the upper-case letter for the key.
func (k Key) Name() string {
	if int(k) >= MaxKeySpace {
		return fmt.Sprintf("K%d", k)
	}
	return string(rune('A' + k))
}

// String renders the key the way operations print it (lower case).
func (k Key) String() string {
	return strings.ToLower(k.Name())
}

// Keys lists the first n keys of the domain.
func Keys(n int) []Key {
	if n <= 0 {
		return nil
	}
	if n > MaxKeySpace {
		n = MaxKeySpace
	}
	keys := make([]Key, n)
	for i := range keys {
		keys[i] = Key(i)
	}
	return keys
}

// OperationType tags an access as a read or a write.
type OperationType uint8

const (
	Read OperationType = iota
	Write
)

// Symbol is the one-letter prefix used in the text form.
func (t OperationType) Symbol() string {
	if t == Write {
		return "w"
	}
	return "r"
}

func (t OperationType) String() string {
	if t == Write {
		return "write"
	}
	return "read"
}

// Operation is a single access to one key.
type Operation struct {
	Type OperationType
	Key  Key
}

// R builds a read of k.
func R(k Key) Operation { return Operation{Type: Read, Key: k} }

// W builds a write of k.
func W(k Key) Operation { return Operation{Type: Write, Key: k} }

func (op Operation) String() string {
	return op.Type.Symbol() + "(" + op.Key.String() + ")"
}

// ParseOperation reads the text form produced by String, e.g. "r(a)" or "W(B)".
func ParseOperation(s string) (Operation, error) {
	raw := strings.TrimSpace(s)
	if len(raw) < 4 || raw[1] != '(' || raw[len(raw)-1] != ')' {
		return Operation{}, fmt.Errorf("txn: invalid operation %q", s)
	}
	var op Operation
	switch raw[0] {
	case 'r', 'R':
		op.Type = Read
	case 'w', 'W':
		op.Type = Write
	default:
		return Operation{}, fmt.Errorf("txn: invalid operation type in %q", s)
	}
	key, err := ParseKey(raw[2 : len(raw)-1])
	if err != nil {
		return Operation{}, fmt.Errorf("txn: operation %q: %w", s, err)
	}
	op.Key = key
	return op, nil
}

// Transaction is an ordered run of operations. Operations execute strictly in
// slice order.
type Transaction struct {
	ID         int
	Operations []Operation
}

// New builds a transaction from its operations.
func New(id int, ops ...Operation) Transaction {
	return Transaction{ID: id, Operations: ops}
}

// Len is the number of operations.
func (t Transaction) Len() int {
	return len(t.Operations)
}

// WriteKeys returns the set of keys this transaction writes.
func (t Transaction) WriteKeys() KeySet {
	var set KeySet
	for _, op := range t.Operations {
		if op.Type == Write {
			set = set.Add(op.Key)
		}
	}
	return set
}

// Label is the short "T<id>" form.
func (t Transaction) Label() string {
	return fmt.Sprintf("T%d", t.ID)
}

func (t Transaction) String() string {
	parts := make([]string, len(t.Operations))
	for i, op := range t.Operations {
		parts[i] = op.String()
	}
	return t.Label() + "(" + strings.Join(parts, " -> ") + ")"
}

// Workload is the unordered set of transactions handed to the scheduler.
type Workload []Transaction

// Schedule is one ordering of a workload.
type Schedule []Transaction

// IDs returns transaction ids in order.
func (s Schedule) IDs() []int {
	ids := make([]int, len(s))
	for i, t := range s {
		ids[i] = t.ID
	}
	return ids
}

// TotalOperations sums operation counts.
func (s Schedule) TotalOperations() int {
	total := 0
	for _, t := range s {
		total += t.Len()
	}
	return total
}

// AsSchedule returns the workload in its input order.
func (w Workload) AsSchedule() Schedule {
	out := make(Schedule, len(w))
	copy(out, w)
	return out
}

// IDs returns transaction ids in input order.
func (w Workload) IDs() []int {
	return Schedule(w).IDs()
}

// KeySet is a small bitset of keys.
type KeySet uint32

// Add returns the set with k included.
func (s KeySet) Add(k Key) KeySet {
	return s | 1<<k
}

// Has reports whether k is in the set.
func (s KeySet) Has(k Key) bool {
	return s&(1<<k) != 0
}

// Empty reports whether no key is set.
func (s KeySet) Empty() bool {
	return s == 0
}
