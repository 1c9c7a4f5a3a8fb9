package records

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/joshharrison/netplanner/internal/activity"
)

// yamlActivity mirrors activity.Activity with optional numbers so missing
// durations can be told apart from zero.
type yamlActivity struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Predecessors []string `yaml:"predecessors"`
	Duration     *float64 `yaml:"duration"`
	Estimate     *struct {
		Optimistic  *float64 `yaml:"optimistic"`
		MostLikely  *float64 `yaml:"most_likely"`
		Pessimistic *float64 `yaml:"pessimistic"`
	} `yaml:"estimate"`
}

// ParseYAML reads activities from a YAML list or from a document with an
// "activities" list:
//
//	activities:
//	  - id: A
//	    name: Design
//	    estimate: {optimistic: 1, most_likely: 2, pessimistic: 3}
//	  - id: B
//	    duration: 4
//	    predecessors: [A]
func ParseYAML(data []byte) (*ImportReport, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	report := newReport()
	if len(doc.Content) == 0 {
		return report, nil
	}

	list := doc.Content[0]
	if list.Kind == yaml.MappingNode {
		list = mappingValue(list, "activities")
	}
	if list == nil || list.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: expected a list of activities or an \"activities\" key", ErrParse)
	}

	for _, item := range list.Content {
		var ya yamlActivity
		if err := item.Decode(&ya); err != nil {
			report.skip(item.Line, "%v", err)
			continue
		}
		a, err := ya.activity()
		if err != nil {
			report.skip(item.Line, "%v", err)
			continue
		}
		report.Activities = append(report.Activities, a)
	}
	return report, nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func (ya yamlActivity) activity() (activity.Activity, error) {
	a := activity.Activity{ID: ya.ID, Name: ya.Name}
	if len(ya.Predecessors) > 0 {
		a.Predecessors = ya.Predecessors
	}
	if a.ID == "" {
		return a, fmt.Errorf("missing activity id")
	}
	if ya.Duration != nil {
		a.Duration = *ya.Duration
	}
	if e := ya.Estimate; e != nil {
		if e.Optimistic == nil || e.MostLikely == nil || e.Pessimistic == nil {
			return a, fmt.Errorf("activity %q has an incomplete three-point estimate", a.ID)
		}
		a.Estimate = &activity.ThreePoint{Optimistic: *e.Optimistic, MostLikely: *e.MostLikely, Pessimistic: *e.Pessimistic}
		return a, nil
	}
	if ya.Duration == nil {
		return a, fmt.Errorf("activity %q has no duration", a.ID)
	}
	return a, nil
}

// MarshalYAML renders an activity list as a YAML project document.
func MarshalYAML(acts []activity.Activity) ([]byte, error) {
	return yaml.Marshal(struct {
		Activities []activity.Activity `yaml:"activities"`
	}{acts})
}
