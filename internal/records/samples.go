package records

import (
	"fmt"
	"sort"

	"github.com/joshharrison/netplanner/internal/activity"
)

var samples = map[string]func() []activity.Activity{
	// Three-point estimates; expected durations 2, 3, 3, 4, 3.
	"pert": func() []activity.Activity {
		tp := func(o, m, p float64) *activity.ThreePoint {
			return &activity.ThreePoint{Optimistic: o, MostLikely: m, Pessimistic: p}
		}
		return []activity.Activity{
			{ID: "A", Name: "Task A", Estimate: tp(1, 2, 3)},
			{ID: "B", Name: "Task B", Estimate: tp(2, 3, 4)},
			{ID: "C", Name: "Task C", Estimate: tp(1, 2, 9), Predecessors: []string{"A"}},
			{ID: "D", Name: "Task D", Estimate: tp(2, 4, 6), Predecessors: []string{"A", "B"}},
			{ID: "E", Name: "Task E", Estimate: tp(1, 3, 5), Predecessors: []string{"C", "D"}},
		}
	},
	"cpm": func() []activity.Activity {
		return []activity.Activity{
			{ID: "A", Name: "Task A", Duration: 2},
			{ID: "B", Name: "Task B", Duration: 3},
			{ID: "C", Name: "Task C", Duration: 3, Predecessors: []string{"A"}},
			{ID: "D", Name: "Task D", Duration: 4, Predecessors: []string{"A", "B"}},
			{ID: "E", Name: "Task E", Duration: 3, Predecessors: []string{"C", "D"}},
		}
	},
}

// Sample returns a fresh copy of a built-in sample project.
func Sample(name string) ([]activity.Activity, error) {
	build, ok := samples[name]
	if !ok {
		return nil, fmt.Errorf("unknown sample %q (available: %v)", name, SampleNames())
	}
	return build(), nil
}

// SampleNames lists the built-in samples.
func SampleNames() []string {
	names := make([]string, 0, len(samples))
	for name := range samples {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
