package workload

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/smf/internal/txn"
)

// File models a workload YAML document:
//
//	key_space: 3
//	transactions:
//	  - id: 0
//	    ops: [w(a), r(b)]
type File struct {
	KeySpace     int               `yaml:"key_space,omitempty"`
	Transactions []TransactionSpec `yaml:"transactions"`
}

// TransactionSpec is one transaction entry of a workload file.
type TransactionSpec struct {
	ID  int    `yaml:"id"`
	Ops OpList `yaml:"ops"`
}

// Loaded is a decoded and validated workload together with its key space.
type Loaded struct {
	Workload txn.Workload
	KeySpace int
}

// Load reads and validates the workload file at path.
func Load(path string) (Loaded, error) {
	f, err := os.Open(path)
	if err != nil {
		return Loaded{}, fmt.Errorf("workload: open %s: %w", path, err)
	}
	defer f.Close()
	loaded, err := Decode(f)
	if err != nil {
		return Loaded{}, fmt.Errorf("workload: %s: %w", path, err)
	}
	return loaded, nil
}

// Decode parses a workload document. Without key_space the document's key
// space is the smallest one covering every key it uses.
func Decode(r io.Reader) (Loaded, error) {
	var doc File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return Loaded{Workload: txn.Workload{}, KeySpace: txn.DefaultKeySpace}, nil
		}
		return Loaded{}, fmt.Errorf("parse: %w", err)
	}

	w := make(txn.Workload, 0, len(doc.Transactions))
	highest := -1
	for i, entry := range doc.Transactions {
		ops := make([]txn.Operation, 0, len(entry.Ops))
		for j, raw := range entry.Ops {
			op, err := txn.ParseOperation(raw)
			if err != nil {
				return Loaded{}, fmt.Errorf("transactions[%d].ops[%d]: %w", i, j, err)
			}
			highest = max(highest, int(op.Key))
			ops = append(ops, op)
		}
		w = append(w, txn.Transaction{ID: entry.ID, Operations: ops})
	}

	keySpace := doc.KeySpace
	if keySpace == 0 {
		keySpace = max(highest+1, txn.DefaultKeySpace)
	}
	if keySpace < 0 || keySpace > txn.MaxKeySpace {
		return Loaded{}, fmt.Errorf("key_space must be within 1..%d (got %d)", txn.MaxKeySpace, keySpace)
	}
	if err := Validate(w, keySpace); err != nil {
		return Loaded{}, err
	}
	return Loaded{Workload: w, KeySpace: keySpace}, nil
}

// Encode writes w in the format Decode reads.
func Encode(out io.Writer, w txn.Workload, keySpace int) error {
	doc := File{KeySpace: keySpace, Transactions: make([]TransactionSpec, len(w))}
	for i, t := range w {
		ops := make(OpList, len(t.Operations))
		for j, op := range t.Operations {
			ops[j] = op.String()
		}
		doc.Transactions[i] = TransactionSpec{ID: t.ID, Ops: ops}
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("workload: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("workload: encode: %w", err)
	}
	return nil
}

// Save writes w to path.
func Save(path string, w txn.Workload, keySpace int) error {
	var buf bytes.Buffer
	if err := Encode(&buf, w, keySpace); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("workload: write %s: %w", path, err)
	}
	return nil
}

// OpList is a transaction's operations in text form. It encodes in flow
// style so each transaction stays on one line.
type OpList []string

// MarshalYAML implements yaml.Marshaler.
func (l OpList) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, op := range l {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: op})
	}
	return node, nil
}
