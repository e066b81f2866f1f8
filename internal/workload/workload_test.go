package workload

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kingrea/smf/internal/scheduler"
	"github.com/kingrea/smf/internal/txn"
)

func TestGenerateRespectsParams(t *testing.T) {
	p := Params{Transactions: 50, MinOperations: 2, MaxOperations: 6, KeySpace: 3}
	w, err := Generate(scheduler.NewRand(1), p)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(w) != p.Transactions {
		t.Fatalf("len = %d, want %d", len(w), p.Transactions)
	}
	for i, tx := range w {
		if tx.ID != i {
			t.Fatalf("transaction %d has id %d", i, tx.ID)
		}
		if tx.Len() < p.MinOperations || tx.Len() >= p.MaxOperations {
			t.Fatalf("T%d has %d operations, want [%d,%d)", tx.ID, tx.Len(), p.MinOperations, p.MaxOperations)
		}
	}
	if err := Validate(w, p.KeySpace); err != nil {
		t.Fatalf("generated workload invalid: %v", err)
	}
}

func TestGenerateEqualBounds(t *testing.T) {
	w, err := Generate(scheduler.NewRand(2), Params{Transactions: 10, MinOperations: 3, MaxOperations: 3, KeySpace: 5})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, tx := range w {
		if tx.Len() != 3 {
			t.Fatalf("T%d has %d operations, want 3", tx.ID, tx.Len())
		}
	}
	if got := SerialMakespan(w); got != 30 {
		t.Fatalf("serial makespan = %d, want 30", got)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	p := Params{Transactions: 20, MinOperations: 1, MaxOperations: 8, KeySpace: 4}
	a, err := Generate(scheduler.NewRand(99), p)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := Generate(scheduler.NewRand(99), p)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different workloads")
	}
}

func TestGenerateRejectsBadParams(t *testing.T) {
	cases := []Params{
		{Transactions: 0, MinOperations: 1, MaxOperations: 2, KeySpace: 5},
		{Transactions: 1, MinOperations: 0, MaxOperations: 2, KeySpace: 5},
		{Transactions: 1, MinOperations: 1, MaxOperations: 0, KeySpace: 5},
		{Transactions: 1, MinOperations: 4, MaxOperations: 2, KeySpace: 5},
		{Transactions: 1, MinOperations: 1, MaxOperations: 2, KeySpace: 0},
		{Transactions: 1, MinOperations: 1, MaxOperations: 2, KeySpace: txn.MaxKeySpace + 1},
	}
	for _, p := range cases {
		if _, err := Generate(scheduler.NewRand(1), p); !errors.Is(err, ErrInvalidParams) {
			t.Fatalf("params %+v: expected ErrInvalidParams, got %v", p, err)
		}
	}
}

func TestValidate(t *testing.T) {
	dup := txn.Workload{txn.New(1, txn.R(0)), txn.New(1, txn.W(0))}
	if err := Validate(dup, 5); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	outside := txn.Workload{txn.New(0, txn.W(4))}
	if err := Validate(outside, 3); !errors.Is(err, ErrKeyOutOfRange) {
		t.Fatalf("expected ErrKeyOutOfRange, got %v", err)
	}
	if err := Validate(outside, 0); err != nil {
		t.Fatalf("full domain should accept key E: %v", err)
	}
	if err := Validate(nil, 5); err != nil {
		t.Fatalf("empty workload: %v", err)
	}
}

func TestDecodeWorkload(t *testing.T) {
	doc := strings.TrimSpace(`
key_space: 3
transactions:
  - id: 0
    ops: [w(a), r(b)]
  - id: 7
    ops: [R(C)]
  - id: 2
    ops: []
`)
	loaded, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if loaded.KeySpace != 3 {
		t.Fatalf("key space = %d, want 3", loaded.KeySpace)
	}
	want := txn.Workload{
		txn.New(0, txn.W(0), txn.R(1)),
		txn.New(7, txn.R(2)),
		{ID: 2, Operations: []txn.Operation{}},
	}
	if !reflect.DeepEqual(loaded.Workload, want) {
		t.Fatalf("workload = %+v", loaded.Workload)
	}
}

func TestDecodeInfersKeySpace(t *testing.T) {
	loaded, err := Decode(strings.NewReader("transactions:\n  - id: 0\n    ops: [w(h)]\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if loaded.KeySpace != 8 {
		t.Fatalf("key space = %d, want 8", loaded.KeySpace)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"bad op":        "transactions:\n  - id: 0\n    ops: [x(a)]\n",
		"duplicate":     "transactions:\n  - id: 0\n    ops: [r(a)]\n  - id: 0\n    ops: [r(b)]\n",
		"outside space": "key_space: 1\ntransactions:\n  - id: 0\n    ops: [r(b)]\n",
		"unknown field": "transactoins: []\n",
		"huge space":    "key_space: 40\ntransactions: []\n",
	}
	for name, doc := range cases {
		if _, err := Decode(strings.NewReader(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestSaveThenLoad(t *testing.T) {
	w, err := Generate(scheduler.NewRand(4), Params{Transactions: 6, MinOperations: 1, MaxOperations: 5, KeySpace: 4})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	path := filepath.Join(t.TempDir(), "workload.yaml")
	if err := Save(path, w, 4); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Contains(data, []byte("ops: [")) {
		t.Fatalf("expected flow-style ops, got:\n%s", data)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded.Workload, w) {
		t.Fatalf("loaded workload differs from saved one")
	}
}
