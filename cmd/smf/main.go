// cmd/smf/main.go
//
// Entry point for the smf CLI. It reorders a transaction workload with
// Shortest Makespan First and prints both schedules.
//
// Flow:
// 1. Make sure .smf/ exists and load its config
// 2. Apply command line overrides
// 3. Either launch the interactive wizard (-i) or run once and print

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/smf/internal/config"
	"github.com/kingrea/smf/internal/logbook"
	"github.com/kingrea/smf/internal/metrics"
	"github.com/kingrea/smf/internal/render"
	"github.com/kingrea/smf/internal/report"
	"github.com/kingrea/smf/internal/runner"
	"github.com/kingrea/smf/internal/tui"
	"github.com/kingrea/smf/internal/txn"
	"github.com/kingrea/smf/internal/workload"
)

type options struct {
	projectDir   string
	configFile   string
	workloadFile string
	saveWorkload string
	transactions int
	minOps       int
	maxOps       int
	keys         int
	sample       int
	seed         uint64
	layers       bool
	noColor      bool
	reportFile   string
	metricsFile  string
	interactive  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.projectDir, "project", "", "path to the project directory (defaults to cwd)")
	flag.StringVar(&opts.configFile, "config", "", "config file (defaults to $"+config.ConfigEnv+" or .smf/config.yaml)")
	flag.StringVar(&opts.workloadFile, "workload", "", "YAML workload to schedule instead of generating one")
	flag.StringVar(&opts.saveWorkload, "save-workload", "", "write the scheduled workload as YAML")
	flag.IntVar(&opts.transactions, "transactions", 0, "number of generated transactions")
	flag.IntVar(&opts.minOps, "min-ops", 0, "minimum operations per generated transaction")
	flag.IntVar(&opts.maxOps, "max-ops", 0, "maximum operations per generated transaction (exclusive unless equal to -min-ops)")
	flag.IntVar(&opts.keys, "keys", 0, "number of keys generated operations may touch")
	flag.IntVar(&opts.sample, "sample", 0, "candidates sampled per scheduling step")
	flag.Uint64Var(&opts.seed, "seed", 0, "random seed (0 picks one)")
	flag.BoolVar(&opts.layers, "layers", false, "print the layer view of the reordered schedule")
	flag.BoolVar(&opts.noColor, "no-color", false, "disable ANSI colors")
	flag.StringVar(&opts.reportFile, "report", "", "write a YAML run report")
	flag.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format")
	flag.BoolVar(&opts.interactive, "i", false, "launch the interactive wizard")
	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := loadConfig(opts.projectDir, opts.configFile)
	if err := applyFlags(cfg, opts, set); err != nil {
		die("%v", err)
	}

	book, err := logbook.New(cfg.LogbookPath())
	if err != nil {
		die("open logbook: %v", err)
	}
	rec := metrics.New()
	run := runner.New(runner.WithLogbook(book), runner.WithMetrics(rec))

	if opts.interactive {
		app := tui.NewApp(cfg, tui.WithLogbook(book), tui.WithRunner(run))
		p := tea.NewProgram(app, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			die("run TUI: %v", err)
		}
		writeMetrics(rec, cfg.Project.Output.MetricsFile)
		return
	}

	req, err := buildRequest(cfg)
	if err != nil {
		die("%v", err)
	}
	res, err := run.Run(context.Background(), req)
	if err != nil {
		writeMetrics(rec, cfg.Project.Output.MetricsFile)
		die("schedule: %v", err)
	}

	r := render.New(render.Options{Color: cfg.Project.Output.Color})
	fmt.Println(r.Summary(res))

	if path := opts.saveWorkload; path != "" {
		if err := workload.Save(path, txn.Workload(res.Base), res.KeySpace); err != nil {
			die("%v", err)
		}
	}
	if path := cfg.Project.Output.ReportFile; path != "" {
		if err := report.Write(path, res); err != nil {
			die("%v", err)
		}
	}
	writeMetrics(rec, cfg.Project.Output.MetricsFile)
}

func loadConfig(projectDir, configFile string) *config.Config {
	project := projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
	}
	absoluteProject, err := filepath.Abs(project)
	if err != nil {
		die("resolve project dir: %v", err)
	}
	if err := config.InitDir(absoluteProject); err != nil {
		die("init %s: %v", config.SMFDir, err)
	}
	cfg, err := config.NewConfig(absoluteProject, configFile)
	if err != nil {
		die("load config: %v", err)
	}
	return cfg
}

// applyFlags copies explicitly set flags over the loaded config and
// revalidates it.
func applyFlags(cfg *config.Config, opts options, set map[string]bool) error {
	pc := &cfg.Project
	if set["workload"] {
		pc.Workload.File = absPath(opts.workloadFile)
	}
	if set["transactions"] {
		pc.Workload.Transactions = opts.transactions
	}
	if set["min-ops"] {
		pc.Workload.MinOperations = opts.minOps
	}
	if set["max-ops"] {
		pc.Workload.MaxOperations = opts.maxOps
	}
	if set["keys"] {
		pc.Workload.KeySpace = opts.keys
	}
	if set["sample"] {
		pc.Scheduler.SampleSize = opts.sample
	}
	if set["seed"] {
		pc.Scheduler.Seed = opts.seed
	}
	if set["layers"] {
		pc.Output.Layers = opts.layers
	}
	if opts.noColor {
		pc.Output.Color = false
	}
	if set["report"] {
		pc.Output.ReportFile = absPath(opts.reportFile)
	}
	if set["metrics-file"] {
		pc.Output.MetricsFile = absPath(opts.metricsFile)
	}
	if opts.interactive {
		// The wizard always generates and asks for its own sizes.
		pc.Workload.File = ""
		return nil
	}
	if err := pc.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func buildRequest(cfg *config.Config) (runner.Request, error) {
	pc := cfg.Project
	req := runner.Request{
		SampleSize: pc.Scheduler.SampleSize,
		Seed:       pc.Scheduler.Seed,
		Layers:     pc.Output.Layers,
	}
	if path := strings.TrimSpace(pc.Workload.File); path != "" {
		loaded, err := workload.Load(path)
		if err != nil {
			return runner.Request{}, err
		}
		req.Workload = loaded.Workload
		req.KeySpace = loaded.KeySpace
		return req, nil
	}
	params := cfg.GeneratorParams()
	req.Generate = &params
	return req, nil
}

func writeMetrics(rec *metrics.Recorder, path string) {
	if path == "" {
		return
	}
	if err := rec.WriteTextfile(path); err != nil {
		die("write metrics: %v", err)
	}
}

func absPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "smf: "+format+"\n", args...)
	os.Exit(1)
}
