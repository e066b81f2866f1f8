// internal/render/render.go
//
// Console rendering for schedules. The linear view prints transactions in
// schedule order with ids in green and the arrows between transactions in
// blue. The layered view shows which operations the simulator ran together.

package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/smf/internal/makespan"
	"github.com/kingrea/smf/internal/runner"
	"github.com/kingrea/smf/internal/txn"
)

var (
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	arrowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	writeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	readStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
)

// Options controls output.
type Options struct {
	// Color enables ANSI styling. Plain output is byte-stable for tests and
	// pipes.
	Color bool
	// Width wraps long schedules; zero disables wrapping.
	Width int
}

// Renderer turns schedules and results into text.
type Renderer struct {
	opts Options
}

// New returns a Renderer.
func New(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.opts.Color {
		return text
	}
	return s.Render(text)
}

func (r *Renderer) wrap(text string) string {
	if r.opts.Width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(r.opts.Width).Render(text)
}

// Operation renders one operation.
func (r *Renderer) Operation(op txn.Operation) string {
	if op.Type == txn.Write {
		return r.style(writeStyle, op.String())
	}
	return r.style(readStyle, op.String())
}

// Transaction renders T<id>(op -> op).
func (r *Renderer) Transaction(t txn.Transaction) string {
	ops := make([]string, len(t.Operations))
	for i, op := range t.Operations {
		ops[i] = r.Operation(op)
	}
	return r.style(idStyle, t.Label()+"(") + strings.Join(ops, " -> ") + r.style(idStyle, ")")
}

// Linear renders the schedule as one chain.
func (r *Renderer) Linear(s txn.Schedule) string {
	if len(s) == 0 {
		return r.style(dimStyle, "(empty schedule)")
	}
	parts := make([]string, len(s))
	for i, t := range s {
		parts[i] = r.Transaction(t)
	}
	return r.wrap(strings.Join(parts, r.style(arrowStyle, " -> ")))
}

// Layers renders one line per simulator layer.
func (r *Renderer) Layers(layers [][]makespan.Placement) string {
	if len(layers) == 0 {
		return r.style(dimStyle, "(no layers)")
	}
	width := len(fmt.Sprintf("%d", len(layers)))
	lines := make([]string, len(layers))
	for i, layer := range layers {
		cells := make([]string, len(layer))
		for j, p := range layer {
			cells[j] = r.style(idStyle, fmt.Sprintf("T%d", p.TransactionID)) + ":" + r.Operation(p.Operation)
		}
		label := fmt.Sprintf("L%-*d", width, i+1)
		lines[i] = r.style(dimStyle, label) + "  " + strings.Join(cells, "  ")
	}
	return strings.Join(lines, "\n")
}

// Makespan renders a labelled makespan value.
func (r *Renderer) Makespan(label string, value int) string {
	return r.style(dimStyle, label+": ") + r.style(valueStyle, fmt.Sprintf("%d", value))
}

// Summary renders a full run: the base schedule, the reordered schedule and
// their makespans, plus the layer view when the result carries one.
func (r *Renderer) Summary(res runner.Result) string {
	sections := []string{
		r.style(headerStyle, "Base schedule"),
		r.Linear(res.Base),
		r.Makespan("Makespan", res.BaseMakespan) + "  " + r.Makespan("Serial", res.SerialMakespan),
		"",
		r.style(headerStyle, fmt.Sprintf("SMF schedule (sample %d, seed %d)", res.SampleSize, res.Seed)),
		r.Linear(res.Optimized),
		r.Makespan("Makespan", res.Makespan),
	}
	if len(res.Layers) > 0 {
		sections = append(sections, "", r.style(headerStyle, "Layers"), r.Layers(res.Layers))
	}
	return strings.Join(sections, "\n")
}
