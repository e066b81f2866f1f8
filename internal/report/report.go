// Package report writes a machine-readable record of a scheduling run.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/smf/internal/runner"
)

// Report is the YAML document written for a run.
type Report struct {
	RunID      string    `yaml:"run_id"`
	StartedAt  time.Time `yaml:"started_at"`
	ElapsedMS  float64   `yaml:"elapsed_ms"`
	Seed       uint64    `yaml:"seed"`
	SampleSize int       `yaml:"sample_size"`
	KeySpace   int       `yaml:"key_space"`

	Transactions int `yaml:"transactions"`
	Operations   int `yaml:"operations"`

	Base      Schedule `yaml:"base"`
	Optimized Schedule `yaml:"optimized"`
	Serial    int      `yaml:"serial_makespan"`

	Steps []Step `yaml:"steps,omitempty"`
}

// Schedule summarizes one order.
type Schedule struct {
	Order    []int `yaml:"order,flow"`
	Makespan int   `yaml:"makespan"`
}

// Step records one scheduler decision.
type Step struct {
	Chosen  int   `yaml:"chosen"`
	Cost    int   `yaml:"cost"`
	Sampled []int `yaml:"sampled,flow,omitempty"`
}

// FromResult builds the report for res.
func FromResult(res runner.Result) Report {
	rep := Report{
		RunID:        res.RunID,
		StartedAt:    res.StartedAt.UTC(),
		ElapsedMS:    float64(res.Elapsed) / float64(time.Millisecond),
		Seed:         res.Seed,
		SampleSize:   res.SampleSize,
		KeySpace:     res.KeySpace,
		Transactions: len(res.Optimized),
		Operations:   res.Optimized.TotalOperations(),
		Base:         Schedule{Order: res.Base.IDs(), Makespan: res.BaseMakespan},
		Optimized:    Schedule{Order: res.Optimized.IDs(), Makespan: res.Makespan},
		Serial:       res.SerialMakespan,
	}
	for _, step := range res.Plan.Steps {
		rep.Steps = append(rep.Steps, Step{Chosen: step.Chosen, Cost: step.Cost, Sampled: step.Sampled})
	}
	return rep
}

// Encode writes res as YAML.
func Encode(w io.Writer, res runner.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(FromResult(res)); err != nil {
		return fmt.Errorf("report: encode: %w", err)
	}
	return enc.Close()
}

// Write saves the report for res at path, creating parent directories.
func Write(path string, res runner.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: ensure dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	if err := Encode(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read loads a report written by Write.
func Read(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("report: read %s: %w", path, err)
	}
	var rep Report
	if err := yaml.Unmarshal(data, &rep); err != nil {
		return Report{}, fmt.Errorf("report: parse %s: %w", path, err)
	}
	return rep, nil
}
