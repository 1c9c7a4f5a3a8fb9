package cpm

// Epsilon is the relative tolerance used for float and criticality
// comparisons. The absolute tolerance is Epsilon * max(1, project duration).
const Epsilon = 1e-9

// DefaultMaxPaths caps critical path enumeration. A negative MaxPaths
// disables the cap.
const DefaultMaxPaths = 1000

// Result holds the complete critical path analysis.
type Result struct {
	Schedules       map[string]*Schedule
	TopoOrder       []string
	ProjectDuration float64
	CriticalPaths   [][]string // each ordered from a start activity to an end activity
	Truncated       bool       // enumeration stopped at MaxPaths
	Waves           []Wave     // activities grouped by earliest start
	Tolerance       float64
}

// Schedule holds the scheduling info for a single activity.
type Schedule struct {
	ActivityID string
	Duration   float64
	ES, EF     float64 // earliest start/finish
	LS, LF     float64 // latest start/finish
	TotalFloat float64
	FreeFloat  float64
	IsCritical bool
	Wave       int
}

// Wave represents a group of activities that share an earliest start.
type Wave struct {
	Index       int      `json:"index"`
	ES          float64  `json:"es"`
	ActivityIDs []string `json:"activity_ids"`
	IsCritical  bool     `json:"is_critical"` // true if the wave holds a critical activity
}

// Options tunes the analysis. Zero values select the defaults.
type Options struct {
	Epsilon  float64
	MaxPaths int
}

func (o Options) withDefaults() Options {
	if o.Epsilon <= 0 {
		o.Epsilon = Epsilon
	}
	if o.MaxPaths == 0 {
		o.MaxPaths = DefaultMaxPaths
	}
	return o
}
