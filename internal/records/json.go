package records

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/joshharrison/netplanner/internal/activity"
)

// ParseJSON reads activities from a JSON array or from an object with an
// "activities" array. Estimates may be nested under "estimate" or given as
// top-level optimistic / mostLikely / pessimistic fields; predecessors may be
// an array or a ';' separated string.
func ParseJSON(data []byte) (*ImportReport, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrParse)
	}
	root := gjson.ParseBytes(data)
	if root.IsObject() {
		root = root.Get("activities")
	}
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: expected an array of activities or an object with an \"activities\" array", ErrParse)
	}

	report := newReport()
	for i, item := range root.Array() {
		a, err := jsonActivity(item)
		if err != nil {
			report.skip(i+1, "%v", err)
			continue
		}
		report.Activities = append(report.Activities, a)
	}
	return report, nil
}

func jsonActivity(item gjson.Result) (activity.Activity, error) {
	var a activity.Activity
	if !item.IsObject() {
		return a, fmt.Errorf("expected an object, got %s", item.Type)
	}

	id := item.Get("id")
	if !id.Exists() || id.String() == "" {
		return a, fmt.Errorf("missing activity id")
	}
	a.ID = id.String()
	a.Name = item.Get("name").String()

	preds := item.Get("predecessors")
	switch {
	case preds.IsArray():
		for _, p := range preds.Array() {
			if s := p.String(); s != "" {
				a.Predecessors = append(a.Predecessors, s)
			}
		}
	case preds.Type == gjson.String:
		a.Predecessors = splitPredecessors(preds.String())
	case preds.Exists() && preds.Type != gjson.Null:
		return a, fmt.Errorf("activity %q: predecessors must be an array or a string", a.ID)
	}

	est := item
	if nested := item.Get("estimate"); nested.IsObject() {
		est = nested
	}
	fields := []gjson.Result{
		est.Get("optimistic"),
		first(est, "mostLikely", "most_likely"),
		est.Get("pessimistic"),
	}
	var (
		vals    [3]float64
		present int
	)
	for i, f := range fields {
		if !f.Exists() || f.Type == gjson.Null {
			continue
		}
		v, err := number(a.ID, f)
		if err != nil {
			return a, err
		}
		vals[i] = v
		present++
	}

	if d := item.Get("duration"); d.Exists() && d.Type != gjson.Null {
		v, err := number(a.ID, d)
		if err != nil {
			return a, err
		}
		a.Duration = v
	} else if present == 0 {
		return a, fmt.Errorf("activity %q has no duration", a.ID)
	}

	switch present {
	case 0:
	case 3:
		a.Estimate = &activity.ThreePoint{Optimistic: vals[0], MostLikely: vals[1], Pessimistic: vals[2]}
	default:
		return a, fmt.Errorf("activity %q has an incomplete three-point estimate", a.ID)
	}
	return a, nil
}

func first(obj gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if r := obj.Get(k); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func number(id string, r gjson.Result) (float64, error) {
	if r.Type != gjson.Number {
		return 0, fmt.Errorf("activity %q: %s is not a number", id, r.Raw)
	}
	return r.Float(), nil
}

