package engine

import (
	"github.com/joshharrison/netplanner/internal/activity"
	"github.com/joshharrison/netplanner/internal/aoa"
	"github.com/joshharrison/netplanner/internal/cpm"
	"github.com/joshharrison/netplanner/internal/pert"
)

// ComputedActivity is an input activity with its schedule attached.
type ComputedActivity struct {
	activity.Activity
	ExpectedDuration float64 `json:"expected_duration"`
	Variance         float64 `json:"variance"`
	ES               float64 `json:"es"`
	EF               float64 `json:"ef"`
	LS               float64 `json:"ls"`
	LF               float64 `json:"lf"`
	TotalFloat       float64 `json:"total_float"`
	FreeFloat        float64 `json:"free_float"`
	IsCritical       bool    `json:"critical"`
	Wave             int     `json:"wave"`
}

// CriticalPath is one chain of critical activities from a start activity to
// an end activity.
type CriticalPath struct {
	IDs      []string `json:"ids"`
	Duration float64  `json:"duration"`
	Variance float64  `json:"variance"`
}

// Result is everything a presentation layer needs from one computation.
// When Errors is non-empty every other field except Method is empty and must
// be treated as absent.
type Result struct {
	Method          string             `json:"method"`
	Activities      []ComputedActivity `json:"activities"`
	ProjectDuration float64            `json:"project_duration"`
	Tolerance       float64            `json:"tolerance"` // absolute tolerance used for float and criticality tests
	CriticalPaths   []CriticalPath     `json:"critical_paths"`
	Distribution    *pert.Distribution `json:"distribution,omitempty"`
	Network         *aoa.Network       `json:"network,omitempty"`
	Waves           []cpm.Wave         `json:"waves"`
	Errors          []string           `json:"errors"`
	Warnings        []string           `json:"warnings"`
}

// OK reports whether the computation produced a usable schedule.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

// Activity returns the computed activity with the given id.
func (r *Result) Activity(id string) (ComputedActivity, bool) {
	for _, a := range r.Activities {
		if a.ID == id {
			return a, true
		}
	}
	return ComputedActivity{}, false
}

// CriticalIDs returns the ids of critical activities in input order.
func (r *Result) CriticalIDs() []string {
	var ids []string
	for _, a := range r.Activities {
		if a.IsCritical {
			ids = append(ids, a.ID)
		}
	}
	return ids
}
