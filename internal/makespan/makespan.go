// Package makespan replays an ordered schedule layer by layer and counts how
// many synchronous layers are needed to drain every transaction.
package makespan

import (
	"github.com/kingrea/smf/internal/conflict"
	"github.com/kingrea/smf/internal/txn"
)

// Placement is one operation executed in a layer.
type Placement struct {
	TransactionID int
	// Index is the operation's position inside its transaction.
	Index     int
	Operation txn.Operation
}

// Compute returns the number of layers needed to run schedule.
func Compute(schedule txn.Schedule) int {
	return simulate(schedule, nil)
}

// Layers returns the placements of every layer in execution order.
func Layers(schedule txn.Schedule) [][]Placement {
	var layers [][]Placement
	simulate(schedule, func(layer int, p Placement) {
		for len(layers) <= layer {
			layers = append(layers, nil)
		}
		layers[layer] = append(layers[layer], p)
	})
	return layers
}

// simulate walks the schedule with one cursor per transaction. On every pass
// each transaction offers only its head operation; a rejected head keeps the
// cursor in place so later operations of that transaction wait too.
func simulate(schedule txn.Schedule, visit func(layer int, p Placement)) int {
	cursors := make([]int, len(schedule))
	remaining := schedule.TotalOperations()
	layer := conflict.NewLayer()
	layers := 0
	for remaining > 0 {
		layer.Reset()
		for i, t := range schedule {
			pos := cursors[i]
			if pos >= len(t.Operations) {
				continue
			}
			op := t.Operations[pos]
			if !layer.Admit(op) {
				continue
			}
			if visit != nil {
				visit(layers, Placement{TransactionID: t.ID, Index: pos, Operation: op})
			}
			cursors[i]++
			remaining--
		}
		layers++
	}
	return layers
}
