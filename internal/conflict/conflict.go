// Package conflict holds the single rule deciding which operations may share a
// parallel layer: reads of the same key coexist, anything involving a write on
// a shared key does not.
package conflict

import "github.com/kingrea/smf/internal/txn"

// Layer records, per key, the access already placed in the current layer.
// Once a write is placed its key admits nothing else, so a single type per key
// is enough.
type Layer map[txn.Key]txn.OperationType

// NewLayer returns an empty layer.
func NewLayer() Layer {
	return Layer{}
}

// CanCoexist reports whether op may join layer.
func CanCoexist(op txn.Operation, layer Layer) bool {
	existing, ok := layer[op.Key]
	if !ok {
		return true
	}
	return existing == txn.Read && op.Type == txn.Read
}

// Admit places op in the layer when CanCoexist allows it.
func (l Layer) Admit(op txn.Operation) bool {
	if !CanCoexist(op, l) {
		return false
	}
	l[op.Key] = op.Type
	return true
}

// Reset clears the layer for reuse.
func (l Layer) Reset() {
	for k := range l {
		delete(l, k)
	}
}
