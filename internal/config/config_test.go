package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/smf/internal/workload"
)

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	t.Setenv(ConfigEnv, "")
	c, err := NewConfig(projectDir, "")
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.Project.Scheduler.SampleSize != 5 {
		t.Fatalf("expected default sample size 5, got %d", c.Project.Scheduler.SampleSize)
	}
	if c.Path != filepath.Join(projectDir, SMFDir, "config.yaml") {
		t.Fatalf("unexpected config path %s", c.Path)
	}
}

func TestInitDirWritesParsableDefaults(t *testing.T) {
	projectDir := t.TempDir()
	t.Setenv(ConfigEnv, "")
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(projectDir, SMFDir, "logs")); err != nil {
		t.Fatalf("logs dir missing: %v", err)
	}
	c, err := NewConfig(projectDir, "")
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if c.Project != DefaultProjectConfig() {
		t.Fatalf("default YAML and DefaultProjectConfig disagree:\n%+v\n%+v", c.Project, DefaultProjectConfig())
	}
	// A second init must not clobber edits.
	path := filepath.Join(projectDir, SMFDir, "config.yaml")
	if err := os.WriteFile(path, []byte("scheduler:\n  sample_size: 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("second init: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "sample_size: 9") {
		t.Fatalf("InitDir overwrote existing config")
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	configYAML := strings.TrimSpace(`
version: 1
scheduler:
  sample_size: 3
  seed: 42
workload:
  file: workloads/bank.yaml
output:
  color: false
  layers: true
  report_file: out/report.yaml
`)
	path := filepath.Join(projectDir, "smf.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(projectDir, "smf.yaml")
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Project.Scheduler.SampleSize != 3 || c.Project.Scheduler.Seed != 42 {
		t.Fatalf("unexpected scheduler section %+v", c.Project.Scheduler)
	}
	if c.Project.Workload.File != filepath.Join(projectDir, "workloads", "bank.yaml") {
		t.Fatalf("expected workload file to be resolved, got %s", c.Project.Workload.File)
	}
	if c.Project.Output.Color || !c.Project.Output.Layers {
		t.Fatalf("unexpected output section %+v", c.Project.Output)
	}
	if !strings.HasPrefix(c.Project.Output.ReportFile, projectDir) {
		t.Fatalf("expected report path to be absolute, got %s", c.Project.Output.ReportFile)
	}
	// Unset workload keys keep their defaults.
	if c.Project.Workload.Transactions != 10 {
		t.Fatalf("expected default transactions, got %d", c.Project.Workload.Transactions)
	}
}

func TestConfigEnvOverridesPath(t *testing.T) {
	projectDir := t.TempDir()
	path := filepath.Join(projectDir, "elsewhere.yaml")
	if err := os.WriteFile(path, []byte("scheduler:\n  sample_size: 7\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigEnv, path)
	c, err := NewConfig(projectDir, "")
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if c.Project.Scheduler.SampleSize != 7 {
		t.Fatalf("expected env config to load, sample size %d", c.Project.Scheduler.SampleSize)
	}
}

func TestLoadProjectConfigValidation(t *testing.T) {
	cases := map[string]string{
		"zero sample":   "scheduler:\n  sample_size: 0\n",
		"negative":      "scheduler:\n  sample_size: -2\n",
		"min over max":  "workload:\n  min_operations: 9\n  max_operations: 3\n",
		"no txns":       "workload:\n  transactions: 0\n",
		"bad version":   "version: -1\n",
		"bad key space": "workload:\n  key_space: 30\n",
		"not yaml":      "scheduler: [",
	}
	for name, body := range cases {
		projectDir := t.TempDir()
		path := filepath.Join(projectDir, "config.yaml")
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewConfig(projectDir, path); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestValidateWrapsGeneratorErrors(t *testing.T) {
	pc := DefaultProjectConfig()
	pc.Workload.MinOperations = 0
	if err := pc.Validate(); !errors.Is(err, workload.ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
	pc.Workload.File = "/tmp/w.yaml"
	if err := pc.Validate(); err != nil {
		t.Fatalf("workload file skips generator checks: %v", err)
	}
}
