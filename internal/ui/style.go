package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Magenta     = color.New(color.FgMagenta).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
)

// PrintBanner renders the colored netplanner banner.
func PrintBanner(w io.Writer) {
	frame := color.New(color.FgCyan)
	events := color.New(color.FgYellow)
	brand := color.New(color.Bold, color.FgMagenta)
	tag := color.New(color.Faint)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +--------------------------------+")
	events.Fprintln(w, "   |  (1)--A-->(2)--C-->(4)--E-->(5)|")
	events.Fprintln(w, "   |    \\--B-->(3)--D--/           |")
	brand.Fprintln(w, "   |   N E T P L A N N E R          |")
	frame.Fprintln(w, "   +--------------------------------+")
	tag.Fprintln(w, "   Critical path & PERT scheduling")
	fmt.Fprintln(w)
}

// activityColors is a palette of distinct bold colors for differentiating activities.
var activityColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// activityColorIndex hashes an activity ID to a palette index.
func activityColorIndex(id string) int {
	var h uint32
	for _, c := range id {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(activityColors)))
}

// ActivityTag returns a colored [id] tag. The same ID always gets the same color.
func ActivityTag(id string) string {
	c := activityColors[activityColorIndex(id)]
	return Dim("[") + c(id) + Dim("]")
}

// CriticalMark returns the marker printed beside critical activities.
func CriticalMark(critical bool) string {
	if critical {
		return BoldYellow("⚡")
	}
	return " "
}

// Float returns a colored float value: zero (critical) in red, small in
// yellow, the rest in green.
func Float(text string, value, projectDuration float64) string {
	switch {
	case value == 0:
		return BoldRed(text)
	case projectDuration > 0 && value/projectDuration < 0.1:
		return Yellow(text)
	default:
		return Green(text)
	}
}

// Outcome returns a colored status word for a computation.
func Outcome(ok bool) string {
	if ok {
		return Green("ok")
	}
	return BoldRed("failed")
}
