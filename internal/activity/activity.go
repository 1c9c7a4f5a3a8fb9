package activity

// ThreePoint is a PERT optimistic / most likely / pessimistic estimate.
type ThreePoint struct {
	Optimistic  float64 `json:"optimistic" yaml:"optimistic"`
	MostLikely  float64 `json:"mostLikely" yaml:"most_likely"`
	Pessimistic float64 `json:"pessimistic" yaml:"pessimistic"`
}

// Activity is a single unit of project work as supplied by the caller.
// Duration is used for CPM; when Estimate is set the activity is scheduled
// with its PERT expected duration instead.
type Activity struct {
	ID           string      `json:"id" yaml:"id"`
	Name         string      `json:"name" yaml:"name"`
	Predecessors []string    `json:"predecessors" yaml:"predecessors"`
	Duration     float64     `json:"duration" yaml:"duration"`
	Estimate     *ThreePoint `json:"estimate,omitempty" yaml:"estimate,omitempty"`
}

// IsPERT reports whether the activity carries a three-point estimate.
func (a Activity) IsPERT() bool {
	return a.Estimate != nil
}

// Clone returns a deep copy so callers' slices are never shared.
func (a Activity) Clone() Activity {
	out := a
	if a.Predecessors != nil {
		out.Predecessors = append([]string(nil), a.Predecessors...)
	}
	if a.Estimate != nil {
		est := *a.Estimate
		out.Estimate = &est
	}
	return out
}

// CloneAll deep-copies a list of activities.
func CloneAll(in []Activity) []Activity {
	if in == nil {
		return nil
	}
	out := make([]Activity, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// AnyPERT reports whether any activity in the list uses a three-point estimate.
func AnyPERT(in []Activity) bool {
	for i := range in {
		if in[i].IsPERT() {
			return true
		}
	}
	return false
}
