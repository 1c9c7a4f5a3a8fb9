package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/joshharrison/netplanner/internal/engine"
	"github.com/joshharrison/netplanner/internal/ui"
)

// Options controls number formatting and chart sizes.
type Options struct {
	Unit       string // time unit label, e.g. "days"
	Precision  int    // decimal places for times and floats
	GanttWidth int    // columns used for the project span in Gantt charts
}

// Reporter renders a computation result for the terminal.
type Reporter struct {
	Result *engine.Result
	Opts   Options
}

// New creates a new Reporter.
func New(res *engine.Result, opts Options) *Reporter {
	if opts.Unit == "" {
		opts.Unit = "days"
	}
	if opts.GanttWidth <= 0 {
		opts.GanttWidth = 60
	}
	return &Reporter{Result: res, Opts: opts}
}

func (r *Reporter) num(v float64) string {
	return fmt.Sprintf("%.*f", r.Opts.Precision, v)
}

// PrintSummary writes the headline figures: method, project duration and
// the critical paths.
func (r *Reporter) PrintSummary(w io.Writer) {
	res := r.Result
	fmt.Fprintf(w, "🎯 %s\n", ui.BoldCyan("Project Schedule"))
	fmt.Fprintln(w, ui.Cyan("════════════════"))

	if !res.OK() {
		fmt.Fprintf(w, "Status:    %s\n", ui.Outcome(false))
		return
	}

	critical := len(res.CriticalIDs())
	fmt.Fprintf(w, "Method:    %s\n", ui.Bold(strings.ToUpper(res.Method)))
	fmt.Fprintf(w, "Duration:  %s %s\n", ui.Bold(r.num(res.ProjectDuration)), r.Opts.Unit)
	fmt.Fprintf(w, "Activities: %d (%d critical)\n", len(res.Activities), critical)
	if res.Network != nil && len(res.Network.Events) > 0 {
		fmt.Fprintf(w, "Network:   %d events, %d arcs (%d dummy)\n",
			len(res.Network.Events), len(res.Network.Arcs), res.Network.Dummies())
	}
	fmt.Fprintln(w)
}

// PrintSchedule writes the computed activity table in input order.
func (r *Reporter) PrintSchedule(w io.Writer) {
	res := r.Result
	if !res.OK() || len(res.Activities) == 0 {
		return
	}

	cols := []string{"ES", "EF", "LS", "LF", "TF", "FF"}
	width := len(r.num(res.ProjectDuration))
	if width < 6 {
		width = 6
	}

	header := fmt.Sprintf("    %-8s %-24s %*s", "ID", "Name", width, "Dur")
	for _, c := range cols {
		header += fmt.Sprintf(" %*s", width, c)
	}
	fmt.Fprintln(w, ui.Dim(header))

	for _, a := range res.Activities {
		name := a.Name
		if len(name) > 24 {
			name = name[:21] + "..."
		}
		fmt.Fprintf(w, "  %s %s %-24s %*s", ui.CriticalMark(a.IsCritical),
			ui.BoldMagenta(fmt.Sprintf("%-8s", a.ID)), name, width, r.num(a.ExpectedDuration))
		for _, v := range []float64{a.ES, a.EF, a.LS, a.LF} {
			fmt.Fprintf(w, " %*s", width, r.num(v))
		}
		fmt.Fprintf(w, " %s", ui.Float(fmt.Sprintf("%*s", width, r.num(a.TotalFloat)), a.TotalFloat, res.ProjectDuration))
		fmt.Fprintf(w, " %*s\n", width, r.num(a.FreeFloat))
	}
	fmt.Fprintln(w)
}

// PrintCriticalPaths lists every enumerated critical path.
func (r *Reporter) PrintCriticalPaths(w io.Writer) {
	res := r.Result
	if !res.OK() || len(res.CriticalPaths) == 0 {
		return
	}
	fmt.Fprintf(w, "⚡ %s\n", ui.BoldYellow(fmt.Sprintf("Critical paths (%d)", len(res.CriticalPaths))))
	for i, p := range res.CriticalPaths {
		line := fmt.Sprintf("  %d. %s  %s", i+1, ui.BoldYellow(strings.Join(p.IDs, " → ")),
			ui.Dim(fmt.Sprintf("(%s %s", r.num(p.Duration), r.Opts.Unit)))
		if res.Method == engine.MethodPERT {
			line += ui.Dim(fmt.Sprintf(", variance %s", r.num(p.Variance)))
		}
		fmt.Fprintln(w, line+ui.Dim(")"))
	}
	fmt.Fprintln(w)
}

// PrintDistribution writes the PERT completion estimate. deadline is
// optional; confidence selects the quantile reported.
func (r *Reporter) PrintDistribution(w io.Writer, deadline *float64, confidence float64) error {
	d := r.Result.Distribution
	if !r.Result.OK() || d == nil {
		return nil
	}
	fmt.Fprintf(w, "📈 %s\n", ui.BoldCyan("Completion estimate"))
	fmt.Fprintf(w, "  Mean:       %s %s\n", r.num(d.Mean), r.Opts.Unit)
	fmt.Fprintf(w, "  Std dev:    %s %s (variance %s)\n", r.num(d.StdDev), r.Opts.Unit, r.num(d.Variance))
	if deadline != nil {
		fmt.Fprintf(w, "  P(finish ≤ %s): %s\n", r.num(*deadline), ui.Bold(fmt.Sprintf("%.1f%%", 100*d.Probability(*deadline))))
	}
	if confidence > 0 {
		q, err := d.Quantile(confidence)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %.0f%% confidence: %s %s\n", 100*confidence, ui.Bold(r.num(q)), r.Opts.Unit)
	}
	fmt.Fprintln(w)
	return nil
}

// PrintIssues writes errors and warnings. It returns true when there were
// errors.
func (r *Reporter) PrintIssues(w io.Writer) bool {
	res := r.Result
	for _, e := range res.Errors {
		fmt.Fprintf(w, "%s %s\n", ui.Red("✗"), e)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "%s %s\n", ui.Yellow("!"), warn)
	}
	if len(res.Errors)+len(res.Warnings) > 0 {
		fmt.Fprintln(w)
	}
	return len(res.Errors) > 0
}

// JSON returns the machine-readable result.
func (r *Reporter) JSON() ([]byte, error) {
	return json.MarshalIndent(r.Result, "", "  ")
}
