// Package engine runs a complete schedule computation for one activity list:
// normalisation, graph validation, PERT estimation, the CPM passes, critical
// path enumeration and the AOA network.
//
// Compute is pure. It keeps no state between calls and never modifies the
// caller's activities, so concurrent calls need no locking.
package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/joshharrison/netplanner/internal/activity"
	"github.com/joshharrison/netplanner/internal/aoa"
	"github.com/joshharrison/netplanner/internal/cpm"
	"github.com/joshharrison/netplanner/internal/graph"
	"github.com/joshharrison/netplanner/internal/pert"
)

const (
	MethodCPM  = "cpm"
	MethodPERT = "pert"
)

// Options tunes a computation. Zero values select the defaults.
type Options struct {
	Epsilon  float64
	Policy   pert.Policy
	MaxPaths int
}

// Compute schedules the given activities. Domain problems never produce a Go
// error: they are reported in Result.Errors and Result.Warnings. A result with
// errors carries no schedule data.
func Compute(activities []activity.Activity, opts Options) *Result {
	res := newResult(MethodCPM)
	if activity.AnyPERT(activities) {
		res.Method = MethodPERT
	}

	if len(activities) == 0 {
		res.Warnings = append(res.Warnings, "activity set is empty")
		res.Network = &aoa.Network{}
		return res
	}

	policy := opts.Policy
	switch policy {
	case "":
		policy = pert.PolicyNormalize
	case pert.PolicyNormalize, pert.PolicyStrict:
	default:
		res.Errors = append(res.Errors, fmt.Sprintf("unknown duration policy %q", policy))
		return res
	}

	normalized := make([]activity.Activity, len(activities))
	for i, a := range activities {
		out, issues := pert.Normalize(a, policy)
		normalized[i] = out
		for _, issue := range issues {
			if issue.Fatal {
				res.Errors = append(res.Errors, issue.Msg)
			} else {
				res.Warnings = append(res.Warnings, issue.Msg)
			}
		}
	}

	g, err := graph.Build(normalized)
	if err != nil {
		var verrs graph.ValidationErrors
		if errors.As(err, &verrs) {
			res.Errors = append(res.Errors, verrs.Messages()...)
		} else {
			res.Errors = append(res.Errors, err.Error())
		}
	}
	if len(res.Errors) > 0 {
		res.Warnings = []string{}
		return res
	}
	res.Warnings = append(res.Warnings, g.Warnings...)

	// The first record owns an id, so index estimates the same way.
	estimates := make(map[string]pert.Estimate, len(normalized))
	durations := make(map[string]float64, len(normalized))
	for _, a := range normalized {
		if _, ok := estimates[a.ID]; ok {
			continue
		}
		est := pert.EstimateOf(a)
		if !finite(est.Expected) || !finite(est.Variance) {
			res.Errors = append(res.Errors, fmt.Sprintf("activity %q: estimate overflows float64", a.ID))
			continue
		}
		estimates[a.ID] = est
		durations[a.ID] = est.Expected
	}
	if len(res.Errors) > 0 {
		res.Warnings = []string{}
		return res
	}

	analysis, err := cpm.Analyze(g, durations, cpm.Options{Epsilon: opts.Epsilon, MaxPaths: opts.MaxPaths})
	if err != nil {
		return res.fail(err)
	}
	if !finite(analysis.ProjectDuration) {
		return res.overflow("project duration")
	}
	if analysis.Truncated {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"critical path enumeration stopped after %d paths", len(analysis.CriticalPaths)))
	}

	res.ProjectDuration = analysis.ProjectDuration
	res.Tolerance = analysis.Tolerance
	res.Waves = analysis.Waves
	res.Activities = make([]ComputedActivity, 0, len(normalized))
	for _, a := range normalized {
		s := analysis.Schedules[a.ID]
		est := estimates[a.ID]
		res.Activities = append(res.Activities, ComputedActivity{
			Activity:         a,
			ExpectedDuration: est.Expected,
			Variance:         est.Variance,
			ES:               s.ES,
			EF:               s.EF,
			LS:               s.LS,
			LF:               s.LF,
			TotalFloat:       s.TotalFloat,
			FreeFloat:        s.FreeFloat,
			IsCritical:       s.IsCritical,
			Wave:             s.Wave,
		})
	}

	res.CriticalPaths = make([]CriticalPath, 0, len(analysis.CriticalPaths))
	variances := make([]float64, 0, len(analysis.CriticalPaths))
	for _, ids := range analysis.CriticalPaths {
		cp := CriticalPath{IDs: ids}
		for _, id := range ids {
			cp.Duration += estimates[id].Expected
			cp.Variance += estimates[id].Variance
		}
		if !finite(cp.Duration) || !finite(cp.Variance) {
			return res.overflow("critical path " + fmt.Sprint(ids))
		}
		res.CriticalPaths = append(res.CriticalPaths, cp)
		variances = append(variances, cp.Variance)
	}
	if res.Method == MethodPERT {
		res.Distribution = pert.NewDistribution(res.ProjectDuration, variances)
	}

	res.Network, err = aoa.Derive(g, analysis.Schedules, analysis.Tolerance)
	if err != nil {
		return res.fail(err)
	}
	return res
}

func newResult(method string) *Result {
	return &Result{
		Method:        method,
		Activities:    []ComputedActivity{},
		CriticalPaths: []CriticalPath{},
		Waves:         []cpm.Wave{},
		Errors:        []string{},
		Warnings:      []string{},
	}
}

// fail turns an internal contract violation into an error-only result.
func (r *Result) fail(err error) *Result {
	out := newResult(r.Method)
	out.Errors = append(out.Errors, fmt.Sprintf("internal error: %v", err))
	return out
}

// overflow reports schedule values that do not fit in a float64.
func (r *Result) overflow(what string) *Result {
	out := newResult(r.Method)
	out.Errors = append(out.Errors, fmt.Sprintf("schedule overflows float64: %s is not finite", what))
	return out
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
