// Package pert converts three-point estimates into expected durations and
// variances, and aggregates critical path variance into a project duration
// distribution.
package pert

import (
	"fmt"
	"math"
	"sort"

	"github.com/joshharrison/netplanner/internal/activity"
)

// Policy controls how suspicious duration data is treated.
type Policy string

const (
	// PolicyNormalize clamps negative values to zero and sorts out-of-order
	// three-point estimates, reporting each change as a warning.
	PolicyNormalize Policy = "normalize"
	// PolicyStrict rejects the same conditions as errors.
	PolicyStrict Policy = "strict"
)

// Estimate is the scheduling duration derived for one activity.
type Estimate struct {
	Expected float64 `json:"expected"`
	Variance float64 `json:"variance"`
}

// Issue is a problem found while normalising an activity's duration data.
type Issue struct {
	Activity string
	Msg      string
	Fatal    bool
}

func (i Issue) String() string {
	return i.Msg
}

// EstimateOf returns the expected duration and variance for a. For a CPM
// activity the expected duration is its single duration and the variance is 0.
func EstimateOf(a activity.Activity) Estimate {
	if a.Estimate == nil {
		return Estimate{Expected: a.Duration}
	}
	o, m, p := a.Estimate.Optimistic, a.Estimate.MostLikely, a.Estimate.Pessimistic
	spread := (p - o) / 6
	return Estimate{
		Expected: (o + 4*m + p) / 6,
		Variance: spread * spread,
	}
}

// Normalize returns a copy of a with its duration data checked against the
// policy. The caller's record is never modified.
func Normalize(a activity.Activity, policy Policy) (activity.Activity, []Issue) {
	out := a.Clone()
	var issues []Issue
	strict := policy == PolicyStrict

	fix := func(field string, v *float64) {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			issues = append(issues, Issue{
				Activity: a.ID,
				Msg:      fmt.Sprintf("activity %q: %s must be a finite number", a.ID, field),
				Fatal:    true,
			})
			return
		}
		if *v >= 0 {
			return
		}
		if strict {
			issues = append(issues, Issue{
				Activity: a.ID,
				Msg:      fmt.Sprintf("activity %q: %s %g is negative", a.ID, field, *v),
				Fatal:    true,
			})
			return
		}
		issues = append(issues, Issue{
			Activity: a.ID,
			Msg:      fmt.Sprintf("activity %q: negative %s %g clamped to 0", a.ID, field, *v),
		})
		*v = 0
	}

	if out.Estimate == nil {
		fix("duration", &out.Duration)
		return out, issues
	}

	est := out.Estimate
	fix("optimistic estimate", &est.Optimistic)
	fix("most likely estimate", &est.MostLikely)
	fix("pessimistic estimate", &est.Pessimistic)
	if hasFatal(issues) {
		return out, issues
	}

	if est.Optimistic <= est.MostLikely && est.MostLikely <= est.Pessimistic {
		return out, issues
	}
	if strict {
		issues = append(issues, Issue{
			Activity: a.ID,
			Msg: fmt.Sprintf("activity %q: estimates must satisfy optimistic <= most likely <= pessimistic (got %g, %g, %g)",
				a.ID, est.Optimistic, est.MostLikely, est.Pessimistic),
			Fatal: true,
		})
		return out, issues
	}
	vals := []float64{est.Optimistic, est.MostLikely, est.Pessimistic}
	sort.Float64s(vals)
	issues = append(issues, Issue{
		Activity: a.ID,
		Msg: fmt.Sprintf("activity %q: estimates %g, %g, %g are out of order; reordered to %g, %g, %g",
			a.ID, est.Optimistic, est.MostLikely, est.Pessimistic, vals[0], vals[1], vals[2]),
	})
	est.Optimistic, est.MostLikely, est.Pessimistic = vals[0], vals[1], vals[2]
	return out, issues
}

func hasFatal(issues []Issue) bool {
	for _, i := range issues {
		if i.Fatal {
			return true
		}
	}
	return false
}
