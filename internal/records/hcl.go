package records

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/joshharrison/netplanner/internal/activity"
)

// hclProjectFile is the top-level structure of an HCL project file:
//
//	activity "A" {
//	  name        = "Design"
//	  optimistic  = 1
//	  most_likely = 2
//	  pessimistic = 3
//	}
//
//	activity "B" {
//	  duration     = 4
//	  predecessors = ["A"]
//	}
type hclProjectFile struct {
	Name       string         `hcl:"name,optional"`
	Activities []*hclActivity `hcl:"activity,block"`
}

type hclActivity struct {
	ID           string   `hcl:"id,label"`
	Name         string   `hcl:"name,optional"`
	Duration     *float64 `hcl:"duration,optional"`
	Optimistic   *float64 `hcl:"optimistic,optional"`
	MostLikely   *float64 `hcl:"most_likely,optional"`
	Pessimistic  *float64 `hcl:"pessimistic,optional"`
	Predecessors []string `hcl:"predecessors,optional"`
}

// ParseHCL reads activity blocks from an HCL project file. filename is used
// in diagnostics only.
func ParseHCL(data []byte, filename string) (*ImportReport, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to parse HCL file %s: %v", ErrParse, filename, diags)
	}

	var parsed hclProjectFile
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to decode HCL file %s: %v", ErrParse, filename, diags)
	}

	// Block positions for row errors.
	var lines []int
	if body, ok := file.Body.(*hclsyntax.Body); ok {
		for _, b := range body.Blocks {
			if b.Type == "activity" {
				lines = append(lines, b.DefRange().Start.Line)
			}
		}
	}

	report := newReport()
	for i, ha := range parsed.Activities {
		line := i + 1
		if i < len(lines) {
			line = lines[i]
		}
		a, err := ha.activity()
		if err != nil {
			report.skip(line, "%v", err)
			continue
		}
		report.Activities = append(report.Activities, a)
	}
	return report, nil
}

func (ha *hclActivity) activity() (activity.Activity, error) {
	a := activity.Activity{ID: ha.ID, Name: ha.Name}
	if len(ha.Predecessors) > 0 {
		a.Predecessors = ha.Predecessors
	}
	if a.ID == "" {
		return a, fmt.Errorf("missing activity id")
	}
	if ha.Duration != nil {
		a.Duration = *ha.Duration
	}

	set := 0
	for _, v := range []*float64{ha.Optimistic, ha.MostLikely, ha.Pessimistic} {
		if v != nil {
			set++
		}
	}
	switch set {
	case 3:
		a.Estimate = &activity.ThreePoint{Optimistic: *ha.Optimistic, MostLikely: *ha.MostLikely, Pessimistic: *ha.Pessimistic}
	case 0:
		if ha.Duration == nil {
			return a, fmt.Errorf("activity %q has no duration", a.ID)
		}
	default:
		return a, fmt.Errorf("activity %q has an incomplete three-point estimate", a.ID)
	}
	return a, nil
}
