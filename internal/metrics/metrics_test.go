package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveUpdatesCollectors(t *testing.T) {
	rec := New()
	rec.Observe(Sample{BaseMakespan: 9, OptimizedMakespan: 6, SerialMakespan: 20, Transactions: 5, StepCosts: []int{0, 1, 2, 0}})
	rec.Observe(Sample{BaseMakespan: 4, OptimizedMakespan: 4, SerialMakespan: 8, Transactions: 2})
	rec.Failed()

	if got := testutil.ToFloat64(rec.runs); got != 2 {
		t.Fatalf("runs_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(rec.failures); got != 1 {
		t.Fatalf("run_failures_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.improvedTotal); got != 1 {
		t.Fatalf("runs_improved_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.lastMakespan.WithLabelValues("optimized")); got != 4 {
		t.Fatalf("last optimized makespan = %v, want 4", got)
	}
	if got := testutil.ToFloat64(rec.transactions); got != 2 {
		t.Fatalf("last_transactions = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(rec.stepCost); got != 1 {
		t.Fatalf("step cost histogram series = %d, want 1", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	rec := New()
	rec.Observe(Sample{BaseMakespan: 3, OptimizedMakespan: 2, SerialMakespan: 5, Transactions: 3})
	path := filepath.Join(t.TempDir(), "metrics", "smf.prom")
	if err := rec.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"smf_runs_total 1",
		`smf_last_makespan_layers{schedule="optimized"} 2`,
		`smf_makespan_layers_count{schedule="base"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("textfile missing %q:\n%s", want, text)
		}
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	rec.Observe(Sample{})
	rec.Failed()
}
