package scheduler

import (
	"github.com/tidwall/btree"

	"github.com/kingrea/smf/internal/txn"
)

// pool holds the unscheduled transactions keyed by their input position, so
// duplicate ids in a malformed workload still come out exactly once. The
// B-tree gives positional lookup and removal without shifting a slice.
type pool struct {
	items *btree.Map[int, txn.Transaction]
}

func newPool(w txn.Workload) *pool {
	items := btree.NewMap[int, txn.Transaction](32)
	for i, t := range w {
		items.Set(i, t)
	}
	return &pool{items: items}
}

func (p *pool) Len() int {
	return p.items.Len()
}

func (p *pool) at(idx int) txn.Transaction {
	_, t, ok := p.items.GetAt(idx)
	if !ok {
		panic("scheduler: pool index out of range")
	}
	return t
}

func (p *pool) take(idx int) txn.Transaction {
	_, t, ok := p.items.DeleteAt(idx)
	if !ok {
		panic("scheduler: pool index out of range")
	}
	return t
}

// sampleIndices draws min(k, n) distinct indices from [0, n) in uniformly
// random order. It runs a partial Fisher-Yates shuffle over a virtual
// identity array, touching only the positions it swaps.
func sampleIndices(r Rand, n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	swapped := make(map[int]int, k)
	lookup := func(i int) int {
		if v, ok := swapped[i]; ok {
			return v
		}
		return i
	}
	out := make([]int, k)
	for i := 0; i < k; i++ {
		j := i + r.IntN(n-i)
		out[i] = lookup(j)
		swapped[j] = lookup(i)
	}
	return out
}
