// Package ui renders analyses for the terminal with lipgloss.
package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/papapumpkin/sextant/internal/analyzer"
	"github.com/papapumpkin/sextant/internal/dag"
	"github.com/papapumpkin/sextant/internal/scoring"
)

// Printer writes reports to out and diagnostics to errOut.
type Printer struct {
	out    io.Writer
	errOut io.Writer
}

// New returns a Printer writing reports to stdout and diagnostics to stderr.
func New() *Printer {
	return &Printer{out: os.Stdout, errOut: os.Stderr}
}

// NewWriter returns a Printer over explicit writers.
func NewWriter(out, errOut io.Writer) *Printer {
	return &Printer{out: out, errOut: errOut}
}

func (p *Printer) Error(msg string) {
	fmt.Fprintln(p.errOut, styleError.Render("error: ")+msg)
}

func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.errOut, styleMuted.Render(msg))
}

func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.errOut, styleOK.Render(iconOK+" ")+msg)
}

// Analysis prints the ranked table followed by cycles, plan and
// normalization errors when present.
func (p *Printer) Analysis(res analyzer.Result) {
	fmt.Fprintln(p.out, styleHeading.Render(fmt.Sprintf("Ranked tasks (strategy=%s)", res.Strategy)))
	fmt.Fprintln(p.out, RenderRanked(res.Tasks))
	if len(res.Cycles) > 0 {
		fmt.Fprintln(p.out, RenderCycles(res.Cycles))
	}
	if res.Plan != nil {
		fmt.Fprintln(p.out, RenderPlan(res.Plan))
	}
	if len(res.Errors) > 0 {
		fmt.Fprintln(p.errOut, RenderErrors(res.Errors))
	}
}

// Suggestions prints one card per suggestion.
func (p *Printer) Suggestions(items []analyzer.Suggestion) {
	fmt.Fprintln(p.out, RenderSuggestions(items))
}

// ValidateResult reports the outcome of normalizing a batch without scoring.
func (p *Printer) ValidateResult(source string, kept int, errs []string) {
	if len(errs) == 0 {
		fmt.Fprintf(p.errOut, "%s %s: %d task(s), no errors\n", styleOK.Render(iconOK), source, kept)
		return
	}
	fmt.Fprintf(p.errOut, "%s %s: %d task(s) kept, %d problem(s)\n", styleWarn.Render(iconWarn), source, kept, len(errs))
	fmt.Fprintln(p.errOut, RenderErrors(errs))
}

// Strategies prints the weight table of every built-in strategy.
func (p *Printer) Strategies() {
	fmt.Fprintln(p.out, RenderStrategies())
}

// RenderRanked renders scored tasks as a table in the given order.
func RenderRanked(tasks []scoring.ScoredTask) string {
	if len(tasks) == 0 {
		return styleMuted.Render("(no tasks)")
	}
	bands := make([]string, len(tasks))
	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		bands[i] = string(analyzer.BandOf(t.Score))
		due := "-"
		if t.DueDate != nil {
			due = *t.DueDate
		}
		flag := ""
		if t.Circular() {
			flag = iconCycle
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			t.ID,
			t.Title,
			strconv.FormatFloat(t.Score, 'f', 2, 64),
			bands[i],
			due,
			strconv.FormatFloat(t.EstimatedHours, 'f', -1, 64),
			strconv.Itoa(t.Importance),
			strings.Join(t.Dependencies, ","),
			flag,
		}
	}

	const scoreCol, bandCol = 3, 4
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("#", "ID", "TITLE", "SCORE", "BAND", "DUE", "HOURS", "IMP", "DEPS", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleCell.Inherit(styleHeading)
			}
			if col == scoreCol || col == bandCol {
				return styleCell.Inherit(bandStyles[bands[row]])
			}
			return styleCell.Inherit(styleText)
		})
	return tbl.String()
}

// RenderCycles lists dependency cycles as arrows.
func RenderCycles(cycles []dag.Cycle) string {
	var b strings.Builder
	b.WriteString(styleError.Render(fmt.Sprintf("%s %d dependency cycle(s)", iconCycle, len(cycles))))
	for _, c := range cycles {
		b.WriteString("\n  ")
		b.WriteString(strings.Join(c, arrowDepends))
	}
	return b.String()
}

// RenderSuggestions renders each suggestion as a bordered card.
func RenderSuggestions(items []analyzer.Suggestion) string {
	if len(items) == 0 {
		return styleMuted.Render("(nothing to suggest)")
	}
	cards := make([]string, len(items))
	for i, s := range items {
		band := string(analyzer.BandOf(s.Score))
		head := fmt.Sprintf("%s %d. %s", iconSuggest, i+1, s.Title)
		score := bandStyles[band].Render(fmt.Sprintf("%.2f (%s)", s.Score, band))
		lines := []string{
			styleHeading.Render(head),
			"score " + score,
			styleText.Render(s.Why),
		}
		if s.Circular() {
			lines = append(lines, styleWarn.Render(iconCycle+" part of a dependency cycle"))
		}
		cards[i] = styleCard.Render(strings.Join(lines, "\n"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

// RenderPlan renders the execution order and independent tracks.
func RenderPlan(plan *analyzer.Plan) string {
	var b strings.Builder
	b.WriteString(styleHeading.Render("Execution plan"))
	if plan.Cyclic {
		b.WriteString("\n  ")
		b.WriteString(styleWarn.Render("no complete order: the batch contains cycles"))
	} else {
		b.WriteString("\n  order: ")
		b.WriteString(strings.Join(plan.Order, arrowDepends))
	}
	b.WriteString(fmt.Sprintf("\n  tracks: %d", len(plan.Tracks)))
	for _, tr := range plan.Tracks {
		b.WriteString(fmt.Sprintf("\n    Track %d: %s", tr.ID, strings.Join(tr.NodeIDs, arrowDepends)))
	}
	return b.String()
}

// RenderErrors lists normalization messages.
func RenderErrors(errs []string) string {
	var b strings.Builder
	b.WriteString(styleWarn.Render(fmt.Sprintf("%s %d input problem(s)", iconWarn, len(errs))))
	for _, e := range errs {
		b.WriteString("\n  ")
		b.WriteString(styleMuted.Render(iconFailed + " " + e))
	}
	return b.String()
}

// RenderStrategies renders the weight vector of each built-in strategy.
func RenderStrategies() string {
	rows := make([][]string, 0, len(scoring.Strategies()))
	for _, s := range scoring.Strategies() {
		w := scoring.WeightsFor(s, nil)
		rows = append(rows, []string{
			string(s),
			strconv.FormatFloat(w.Urgency, 'f', 2, 64),
			strconv.FormatFloat(w.Importance, 'f', 2, 64),
			strconv.FormatFloat(w.Effort, 'f', 2, 64),
			strconv.FormatFloat(w.Dependency, 'f', 2, 64),
			strconv.FormatFloat(w.Sum(), 'f', 2, 64),
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("STRATEGY", "URGENCY", "IMPORTANCE", "EFFORT", "DEPENDENCY", "TOTAL").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleCell.Inherit(styleHeading)
			}
			return styleCell
		}).
		String()
}
