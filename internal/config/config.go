// internal/config/config.go
//
// This package handles configuration and the .smf directory structure.
// Every project that runs smf gets a .smf/ folder in its root holding the
// project config and the run journal.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/smf/internal/scheduler"
	"github.com/kingrea/smf/internal/txn"
	"github.com/kingrea/smf/internal/workload"
)

const (
	// SMFDir is the name of the directory we create in each project
	SMFDir = ".smf"

	// ConfigEnv overrides the config file location.
	ConfigEnv = "SMF_CONFIG"
)

const defaultProjectConfigYAML = `# smf project configuration
version: 1

# Greedy reorder settings. sample_size is how many unscheduled transactions
# are scored per step. seed 0 picks a fresh seed every run.
scheduler:
  sample_size: 5
  seed: 0

# Random workload used when no workload file is given. Operation counts are
# drawn from [min_operations, max_operations).
workload:
  transactions: 10
  min_operations: 2
  max_operations: 6
  key_space: 5
  # file: workloads/example.yaml

output:
  color: true
  layers: false
  # report_file: reports/last.yaml
  # metrics_file: metrics/smf.prom
`

// SchedulerConfig captures the reorder settings.
type SchedulerConfig struct {
	SampleSize int    `yaml:"sample_size"`
	Seed       uint64 `yaml:"seed"`
}

// WorkloadConfig sizes the generated workload or points at a file.
type WorkloadConfig struct {
	Transactions  int    `yaml:"transactions"`
	MinOperations int    `yaml:"min_operations"`
	MaxOperations int    `yaml:"max_operations"`
	KeySpace      int    `yaml:"key_space"`
	File          string `yaml:"file,omitempty"`
}

// OutputConfig controls rendering and written artifacts.
type OutputConfig struct {
	Color       bool   `yaml:"color"`
	Layers      bool   `yaml:"layers"`
	ReportFile  string `yaml:"report_file,omitempty"`
	MetricsFile string `yaml:"metrics_file,omitempty"`
}

// ProjectConfig models .smf/config.yaml.
type ProjectConfig struct {
	Version   int             `yaml:"version"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Workload  WorkloadConfig  `yaml:"workload"`
	Output    OutputConfig    `yaml:"output"`
}

// Config holds the runtime configuration for smf.
type Config struct {
	// ProjectDir is the directory smf was run from
	ProjectDir string

	// SMFProjectDir is ProjectDir/.smf
	SMFProjectDir string

	// Path is the config file that was read (it may not exist).
	Path string

	Project ProjectConfig
}

// InitDir creates the .smf directory structure in the given project directory.
//
// Structure created:
// .smf/
// ├── config.yaml
// └── logs/         <- run journal
func InitDir(projectDir string) error {
	smfDir := filepath.Join(projectDir, SMFDir)
	if err := os.MkdirAll(filepath.Join(smfDir, "logs"), 0o755); err != nil {
		return fmt.Errorf("config: ensure %s: %w", smfDir, err)
	}
	return ensureProjectConfig(filepath.Join(smfDir, "config.yaml"))
}

// NewConfig creates a new Config populated with project settings. path may be
// empty, in which case $SMF_CONFIG and then .smf/config.yaml are used.
func NewConfig(projectDir, path string) (*Config, error) {
	cfg := &Config{
		ProjectDir:    projectDir,
		SMFProjectDir: filepath.Join(projectDir, SMFDir),
		Project:       DefaultProjectConfig(),
	}
	switch {
	case strings.TrimSpace(path) != "":
		cfg.Path = resolvePath(projectDir, path)
	case strings.TrimSpace(os.Getenv(ConfigEnv)) != "":
		cfg.Path = resolvePath(projectDir, os.Getenv(ConfigEnv))
	default:
		cfg.Path = filepath.Join(cfg.SMFProjectDir, "config.yaml")
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.SMFProjectDir, "logs")
}

// LogbookPath returns the run journal location.
func (c *Config) LogbookPath() string {
	return filepath.Join(c.LogsDir(), "runs.log")
}

// GeneratorParams converts the workload section into generator parameters.
func (c *Config) GeneratorParams() workload.Params {
	return c.Project.Workload.Params()
}

// Params converts the section into generator parameters.
func (w WorkloadConfig) Params() workload.Params {
	return workload.Params{
		Transactions:  w.Transactions,
		MinOperations: w.MinOperations,
		MaxOperations: w.MaxOperations,
		KeySpace:      w.KeySpace,
	}
}

func (c *Config) loadProjectConfig() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", c.Path, err)
	}

	parsed := DefaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", c.Path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

// DefaultProjectConfig mirrors defaultProjectConfigYAML.
func DefaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Scheduler: SchedulerConfig{
			SampleSize: scheduler.DefaultSampleSize,
		},
		Workload: WorkloadConfig{
			Transactions:  10,
			MinOperations: 2,
			MaxOperations: 6,
			KeySpace:      txn.DefaultKeySpace,
		},
		Output: OutputConfig{Color: true},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Workload.KeySpace == 0 {
		pc.Workload.KeySpace = txn.DefaultKeySpace
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Workload.File = resolvePath(base, pc.Workload.File)
	pc.Output.ReportFile = resolvePath(base, pc.Output.ReportFile)
	pc.Output.MetricsFile = resolvePath(base, pc.Output.MetricsFile)
}

// Validate reports the first invalid setting. Values are never clamped.
func (pc *ProjectConfig) Validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Scheduler.SampleSize <= 0 {
		return fmt.Errorf("scheduler.sample_size must be a positive integer (got %d)", pc.Scheduler.SampleSize)
	}
	if pc.Workload.File != "" {
		return nil
	}
	return pc.Workload.Params().Validate()
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}
