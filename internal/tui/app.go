// internal/tui/app.go
//
// Interactive front end for smf. It uses bubbletea, which follows The Elm
// Architecture:
//
// 1. Model: the wizard state (which prompt we are on, the generated workload)
// 2. Update: keys move the wizard forward, run results arrive as messages
// 3. View: renders the current prompt plus any schedules produced so far
//
// The wizard asks for the workload size, shows the base schedule, asks for
// the sampling count and then shows the SMF schedule.

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/smf/internal/config"
	"github.com/kingrea/smf/internal/logbook"
	"github.com/kingrea/smf/internal/makespan"
	"github.com/kingrea/smf/internal/render"
	"github.com/kingrea/smf/internal/runner"
	"github.com/kingrea/smf/internal/scheduler"
	"github.com/kingrea/smf/internal/txn"
	"github.com/kingrea/smf/internal/workload"
)

// appState represents which prompt we're on
type appState int

const (
	stateTransactions appState = iota // number of transactions
	stateMinOps                       // minimum operations per transaction
	stateMaxOps                       // maximum operations per transaction
	stateSample                       // base schedule shown, sampling count prompt
	stateRunning                      // scheduler run in flight
	stateResult                       // both schedules shown
)

const invalidNumberMsg = "Please use only positive whole numbers larger than zero!"

const introText = `Hi! You will be able to test the Shortest Makespan First algorithm.
But first, we need to know some parameters.`

const sampleText = `Please provide a sampling count.
This will be used as the amount of transactions taken into consideration for the next step in the schedule.
Leave it empty to use the default value (%d).`

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithRunner overrides the runner used to reorder the workload.
func WithRunner(r *runner.Runner) AppOption {
	return func(a *App) {
		if r != nil {
			a.runner = r
		}
	}
}

// WithLogbook attaches the run journal shown under the wizard.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = lb
	}
}

// WithSeedSource controls the seed used for each generated workload.
func WithSeedSource(seeds func() uint64) AppOption {
	return func(a *App) {
		if seeds != nil {
			a.seeds = seeds
		}
	}
}

type runFinishedMsg struct {
	result runner.Result
	err    error
}

// App is the wizard model.
type App struct {
	state   appState
	runner  *runner.Runner
	logbook *logbook.Logbook
	seeds   func() uint64

	keySpace       int
	defaultSample  int
	layers         bool
	color          bool
	configuredSeed uint64
	input          textinput.Model
	warning        string
	err            error
	params         workload.Params
	seed           uint64
	base           txn.Workload
	baseMakespan   int
	result         *runner.Result
	width          int
	height         int
}

// NewApp builds the wizard from the loaded configuration.
func NewApp(cfg *config.Config, opts ...AppOption) *App {
	project := config.DefaultProjectConfig()
	if cfg != nil {
		project = cfg.Project
	}
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 9
	input.Focus()

	app := &App{
		state:          stateTransactions,
		runner:         runner.New(),
		seeds:          func() uint64 { return uint64(time.Now().UnixNano()) },
		keySpace:       project.Workload.KeySpace,
		defaultSample:  project.Scheduler.SampleSize,
		layers:         project.Output.Layers,
		color:          project.Output.Color,
		configuredSeed: project.Scheduler.Seed,
		input:          input,
	}
	if app.keySpace <= 0 {
		app.keySpace = txn.DefaultKeySpace
	}
	if app.defaultSample <= 0 {
		app.defaultSample = scheduler.DefaultSampleSize
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case runFinishedMsg:
		return a.handleRunFinished(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return a, tea.Quit
		}
		if a.state == stateResult {
			switch msg.String() {
			case "q":
				return a, tea.Quit
			case "r":
				a.restart()
			}
			return a, nil
		}
		if a.state == stateRunning {
			return a, nil
		}
		if msg.Type == tea.KeyEnter {
			return a.submit()
		}
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) submit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(a.input.Value())
	a.warning = ""
	a.err = nil

	if a.state == stateSample {
		n := a.defaultSample
		if value != "" {
			parsed, ok := parsePositive(value)
			if !ok {
				return a.reject(invalidNumberMsg)
			}
			n = parsed
		}
		a.state = stateRunning
		a.input.SetValue("")
		return a, a.startRun(n)
	}

	n, ok := parsePositive(value)
	if !ok {
		return a.reject(invalidNumberMsg)
	}
	switch a.state {
	case stateTransactions:
		a.params.Transactions = n
		a.state = stateMinOps
	case stateMinOps:
		a.params.MinOperations = n
		a.state = stateMaxOps
	case stateMaxOps:
		if n < a.params.MinOperations {
			return a.reject(fmt.Sprintf("The maximum must be at least the minimum (%d)!", a.params.MinOperations))
		}
		a.params.MaxOperations = n
		if err := a.generate(); err != nil {
			a.err = err
			return a, nil
		}
		a.state = stateSample
	}
	a.input.SetValue("")
	return a, nil
}

func (a *App) reject(warning string) (tea.Model, tea.Cmd) {
	a.warning = warning
	a.input.SetValue("")
	return a, nil
}

func (a *App) generate() error {
	a.params.KeySpace = a.keySpace
	a.seed = a.configuredSeed
	if a.seed == 0 {
		a.seed = a.seeds()
	}
	w, err := workload.Generate(scheduler.NewRand(a.seed), a.params)
	if err != nil {
		a.logError("generate workload: %v", err)
		return err
	}
	a.base = w
	a.baseMakespan = makespan.Compute(w.AsSchedule())
	a.logInfo("Generated %d transactions (%d-%d ops, seed %d), base makespan %d",
		a.params.Transactions, a.params.MinOperations, a.params.MaxOperations, a.seed, a.baseMakespan)
	return nil
}

func (a *App) startRun(sampleSize int) tea.Cmd {
	req := runner.Request{
		Workload:   a.base,
		KeySpace:   a.keySpace,
		SampleSize: sampleSize,
		Seed:       a.seed,
		Layers:     a.layers,
	}
	r := a.runner
	return func() tea.Msg {
		res, err := r.Run(context.Background(), req)
		return runFinishedMsg{result: res, err: err}
	}
}

func (a *App) handleRunFinished(msg runFinishedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.err = msg.err
		a.state = stateSample
		return a, nil
	}
	res := msg.result
	a.result = &res
	a.state = stateResult
	return a, nil
}

func (a *App) restart() {
	a.state = stateTransactions
	a.params = workload.Params{}
	a.base = nil
	a.baseMakespan = 0
	a.result = nil
	a.warning = ""
	a.err = nil
	a.input.SetValue("")
}

func parsePositive(value string) (int, bool) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// View renders the current state.
func (a *App) View() string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("⬡ SHORTEST MAKESPAN FIRST")

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(40, a.width-4)).
		Render(a.renderBody())

	sections := []string{header, box}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.footerText())
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) renderer() *render.Renderer {
	return render.New(render.Options{Color: a.color, Width: max(0, a.width-8)})
}

func (a *App) renderBody() string {
	r := a.renderer()
	var lines []string
	switch a.state {
	case stateTransactions:
		lines = append(lines, introText, "", "Please provide the number of transactions you want to test with:")
	case stateMinOps:
		lines = append(lines, "Please provide the number of MINIMUM operations per transaction:")
	case stateMaxOps:
		lines = append(lines, "Please provide the number of MAXIMUM operations per transaction:")
	default:
		lines = append(lines, "Here is your base schedule:", r.Linear(a.base.AsSchedule()), "",
			r.Makespan("Makespan", a.baseMakespan), "")
	}

	switch a.state {
	case stateSample:
		lines = append(lines, fmt.Sprintf(sampleText, a.defaultSample))
	case stateRunning:
		lines = append(lines, "Scheduling...")
	case stateResult:
		res := a.result
		lines = append(lines,
			fmt.Sprintf("Here is your SMF (Shortest Makespan First) optimized schedule (sample %d):", res.SampleSize),
			r.Linear(res.Optimized), "",
			r.Makespan("Makespan", res.Makespan))
		if len(res.Layers) > 0 {
			lines = append(lines, "", r.Layers(res.Layers))
		}
	}

	if a.state != stateRunning && a.state != stateResult {
		lines = append(lines, a.input.View())
	}
	if a.warning != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Render(a.warning))
	}
	if a.err != nil {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Render("Error: "+a.err.Error()))
	}
	return strings.Join(lines, "\n")
}

func (a *App) footerText() string {
	if a.state == stateResult {
		return "r: run again · q: quit"
	}
	return "enter: submit · esc: quit"
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, _ := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s", fileName))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}
