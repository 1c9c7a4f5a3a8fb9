package reporter

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/joshharrison/netplanner/internal/cpm"
	"github.com/joshharrison/netplanner/internal/ui"
)

// PrintWaves writes activities grouped by earliest start, with each
// activity's successors beneath it.
func (r *Reporter) PrintWaves(w io.Writer) {
	res := r.Result
	if !res.OK() {
		return
	}
	fmt.Fprintf(w, "🔗 %s\n", ui.BoldCyan("Activity Network"))
	fmt.Fprintln(w, ui.Cyan("════════════════"))
	fmt.Fprintln(w)

	succs := make(map[string][]string)
	for _, a := range res.Activities {
		for _, p := range a.Predecessors {
			succs[p] = append(succs[p], a.ID)
		}
	}
	names := make(map[string]string, len(res.Activities))
	for _, a := range res.Activities {
		names[a.ID] = a.Name
	}

	for _, wave := range res.Waves {
		fmt.Fprintf(w, "%s Wave %d @ %s %s\n", ui.Cyan("──"), wave.Index+1, r.num(wave.ES), ui.Cyan("──────────────────────────────"))
		for _, id := range wave.ActivityIDs {
			a, _ := res.Activity(id)
			fmt.Fprintf(w, "  %s %s %s\n", ui.CriticalMark(a.IsCritical), ui.ActivityTag(id), names[id])
			for _, next := range succs[id] {
				fmt.Fprintf(w, "      %s %s\n", ui.Dim("└──→"), ui.Magenta(next))
			}
		}
		fmt.Fprintln(w)
	}
}

// PrintGantt writes an ASCII Gantt chart. Bars run from ES to EF; total float
// is drawn as dots up to LF. Zero-duration activities are drawn as a diamond.
func (r *Reporter) PrintGantt(w io.Writer) {
	res := r.Result
	if !res.OK() || len(res.Activities) == 0 {
		return
	}
	width := r.Opts.GanttWidth
	span := res.ProjectDuration
	col := func(t float64) int {
		if span <= 0 {
			return 0
		}
		c := int(math.Round(t / span * float64(width)))
		return min(max(c, 0), width)
	}

	label := 0
	for _, a := range res.Activities {
		label = max(label, len(a.ID))
	}

	fmt.Fprintf(w, "%s  0%s%s %s\n", strings.Repeat(" ", label), strings.Repeat(" ", max(width-len(r.num(span)), 1)), r.num(span), r.Opts.Unit)
	for _, a := range res.Activities {
		start, end, late := col(a.ES), col(a.EF), col(a.LF)
		var bar string
		switch {
		case a.ExpectedDuration == 0:
			bar = strings.Repeat(" ", start) + "◆"
		default:
			if end == start {
				end = start + 1
			}
			fill := strings.Repeat("█", end-start)
			if a.IsCritical {
				fill = ui.BoldRed(fill)
			} else {
				fill = ui.Cyan(fill)
			}
			bar = strings.Repeat(" ", start) + fill
			if late > end {
				bar += ui.Dim(strings.Repeat("·", late-end))
			}
		}
		fmt.Fprintf(w, "%-*s |%s\n", label, a.ID, bar)
	}
	fmt.Fprintln(w)
}

// WriteDOT writes the activity-on-node graph in Graphviz format. Critical
// activities and the tight edges between them are highlighted.
func (r *Reporter) WriteDOT(w io.Writer) error {
	res := r.Result
	if !res.OK() {
		return fmt.Errorf("no schedule to draw: %s", strings.Join(res.Errors, "; "))
	}

	var b strings.Builder
	b.WriteString("digraph netplanner {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=rounded];\n\n")

	for _, a := range res.Activities {
		label := fmt.Sprintf("%s\\n%s\\nES %s  EF %s\\nLS %s  LF %s", escapeDOT(a.ID), escapeDOT(a.Name),
			r.num(a.ES), r.num(a.EF), r.num(a.LS), r.num(a.LF))
		attrs := fmt.Sprintf(`label="%s"`, label)
		if a.IsCritical {
			attrs += `, style="rounded,bold", color=red`
		}
		fmt.Fprintf(&b, "  %q [%s];\n", a.ID, attrs)
	}
	b.WriteString("\n")

	tol := res.Tolerance
	if tol <= 0 {
		tol = cpm.Tolerance(0, res.ProjectDuration)
	}
	for _, to := range res.Activities {
		seen := make(map[string]bool, len(to.Predecessors))
		for _, from := range to.Predecessors {
			if seen[from] {
				continue
			}
			seen[from] = true
			f, ok := res.Activity(from)
			style := ""
			if ok && f.IsCritical && to.IsCritical && math.Abs(f.EF-to.ES) < tol {
				style = ` [color=red, penwidth=2]`
			}
			fmt.Fprintf(&b, "  %q -> %q%s;\n", from, to.ID, style)
		}
	}

	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteAOADOT writes the activity-on-arc network in Graphviz format. Dummy
// arcs are dashed; critical events and arcs are red.
func (r *Reporter) WriteAOADOT(w io.Writer) error {
	res := r.Result
	if !res.OK() || res.Network == nil {
		return fmt.Errorf("no network to draw: %s", strings.Join(res.Errors, "; "))
	}

	var b strings.Builder
	b.WriteString("digraph aoa {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=circle];\n\n")

	for _, e := range res.Network.Events {
		attrs := fmt.Sprintf(`label="%d\n%s | %s"`, e.Number, r.num(e.Early), r.num(e.Late))
		if e.Critical {
			attrs += ", color=red"
		}
		fmt.Fprintf(&b, "  %d [%s];\n", e.Number, attrs)
	}
	b.WriteString("\n")

	for _, a := range res.Network.Arcs {
		var attrs []string
		if a.Dummy {
			attrs = append(attrs, "style=dashed")
		} else {
			attrs = append(attrs, fmt.Sprintf(`label="%s (%s)"`, escapeDOT(a.Activity), r.num(a.Duration)))
		}
		if a.Critical {
			attrs = append(attrs, "color=red", "penwidth=2")
		}
		fmt.Fprintf(&b, "  %d -> %d [%s];\n", a.Tail, a.Head, strings.Join(attrs, ", "))
	}

	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeDOT(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
