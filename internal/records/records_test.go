package records

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshharrison/netplanner/internal/activity"
	"github.com/joshharrison/netplanner/internal/engine"
	"github.com/joshharrison/netplanner/internal/pert"
)

func TestParseCSV_PositionalThreePoint(t *testing.T) {
	report, err := ParseCSV(strings.NewReader("col1,col2,col3\nC,Task C,1,2,9,A\n"))
	require.NoError(t, err)
	require.Len(t, report.Activities, 1)
	assert.Zero(t, report.Skipped)

	c := report.Activities[0]
	assert.Equal(t, "C", c.ID)
	assert.Equal(t, "Task C", c.Name)
	assert.Equal(t, []string{"A"}, c.Predecessors)
	require.NotNil(t, c.Estimate)
	assert.Equal(t, activity.ThreePoint{Optimistic: 1, MostLikely: 2, Pessimistic: 9}, *c.Estimate)
	assert.Equal(t, 3.0, pert.EstimateOf(c).Expected)
}

func TestParseCSV_PositionalDuration(t *testing.T) {
	input := "x,y,z\nA,Design,3\nB,Build,4.5,A;C\nC,Check,1,\n"
	report, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, report.Activities, 3)

	b := report.Activities[1]
	assert.Equal(t, 4.5, b.Duration)
	assert.Nil(t, b.Estimate)
	assert.Equal(t, []string{"A", "C"}, b.Predecessors)
	assert.Nil(t, report.Activities[2].Predecessors)
}

func TestParseCSV_HeaderMapping(t *testing.T) {
	input := "Predecessors,Duration,Task,ID\n,2,Design,A\nA,3,Build,B\n"
	report, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	want := []activity.Activity{
		{ID: "A", Name: "Design", Duration: 2},
		{ID: "B", Name: "Build", Duration: 3, Predecessors: []string{"A"}},
	}
	if diff := cmp.Diff(want, report.Activities); diff != "" {
		t.Errorf("activities mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCSV_SkipsMalformedRows(t *testing.T) {
	input := strings.Join([]string{
		"id,name,duration,optimistic,most_likely,pessimistic,predecessors",
		"A,Design,2,,,,",
		"B,Build,abc,,,,A",
		",Nameless,1,,,,",
		"C,Partial,,1,2,,A",
		"D,Nothing,,,,,A",
		"",
		"E,Ship,1,,,,A",
	}, "\n")

	report, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	ids := make([]string, 0, len(report.Activities))
	for _, a := range report.Activities {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"A", "E"}, ids)
	assert.Equal(t, 4, report.Skipped)

	lines := make([]int, 0, len(report.Errors))
	for _, e := range report.Errors {
		lines = append(lines, e.Line)
	}
	assert.Equal(t, []int{3, 4, 5, 6}, lines)
	assert.Contains(t, report.Errors[0].Msg, "not a number")
	assert.Contains(t, report.Errors[1].Msg, "missing activity id")
	assert.Contains(t, report.Errors[2].Msg, "incomplete three-point estimate")
	assert.Contains(t, report.Errors[3].Msg, "no duration")
	assert.Equal(t, "line 3: "+report.Errors[0].Msg, report.Messages()[0])
}

func TestParseCSV_TooFewFields(t *testing.T) {
	report, err := ParseCSV(strings.NewReader("h\nA,B\n"))
	require.NoError(t, err)
	assert.Empty(t, report.Activities)
	assert.Equal(t, 1, report.Skipped)
}

func TestParseCSV_Empty(t *testing.T) {
	report, err := ParseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, report.Activities)
	assert.Zero(t, report.Skipped)
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	for _, name := range SampleNames() {
		t.Run(name, func(t *testing.T) {
			acts, err := Sample(name)
			require.NoError(t, err)
			res := engine.Compute(acts, engine.Options{})
			require.True(t, res.OK())

			var buf bytes.Buffer
			require.NoError(t, WriteCSV(&buf, res))

			header, _, _ := strings.Cut(buf.String(), "\n")
			assert.Equal(t, strings.Join(ExportColumns, ","), header)

			report, err := ParseCSV(&buf)
			require.NoError(t, err)
			assert.Zero(t, report.Skipped)
			if diff := cmp.Diff(acts, report.Activities); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteCSV_ComputedFields(t *testing.T) {
	acts, _ := Sample("cpm")
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, engine.Compute(acts, engine.Options{})))

	rows := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, rows, 6)
	assert.Equal(t, "A,Task A,2,,,,,2,0,0,2,1,3,1,0,false", rows[1])
	assert.Equal(t, "D,Task D,4,,,,A;B,4,0,3,7,3,7,0,0,true", rows[4])
}

func TestWriteCSV_RejectsFailedResult(t *testing.T) {
	res := engine.Compute([]activity.Activity{{ID: "A", Duration: 1, Predecessors: []string{"A"}}}, engine.Options{})
	err := WriteCSV(&bytes.Buffer{}, res)
	assert.Error(t, err)
}

func TestWriteActivities(t *testing.T) {
	acts, _ := Sample("pert")
	var buf bytes.Buffer
	require.NoError(t, WriteActivities(&buf, acts))

	report, err := ParseCSV(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(acts, report.Activities); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJSON(t *testing.T) {
	input := `{"activities": [
		{"id": "A", "name": "Design", "estimate": {"optimistic": 1, "most_likely": 2, "pessimistic": 3}},
		{"id": "B", "name": "Build", "optimistic": 2, "mostLikely": 3, "pessimistic": 4, "predecessors": "A"},
		{"id": "C", "duration": 5, "predecessors": ["A", "B"]},
		{"name": "no id", "duration": 1},
		{"id": "D", "duration": "soon"},
		{"id": "E", "optimistic": 1}
	]}`

	report, err := ParseJSON([]byte(input))
	require.NoError(t, err)
	require.Len(t, report.Activities, 3)
	assert.Equal(t, 3, report.Skipped)
	assert.Equal(t, []int{4, 5, 6}, []int{report.Errors[0].Line, report.Errors[1].Line, report.Errors[2].Line})

	assert.Equal(t, activity.ThreePoint{Optimistic: 1, MostLikely: 2, Pessimistic: 3}, *report.Activities[0].Estimate)
	assert.Equal(t, 3.0, report.Activities[1].Estimate.MostLikely)
	assert.Equal(t, []string{"A"}, report.Activities[1].Predecessors)
	assert.Equal(t, 5.0, report.Activities[2].Duration)
	assert.Equal(t, []string{"A", "B"}, report.Activities[2].Predecessors)
}

func TestParseJSON_BareArray(t *testing.T) {
	report, err := ParseJSON([]byte(`[{"id": 1, "duration": 2}]`))
	require.NoError(t, err)
	require.Len(t, report.Activities, 1)
	assert.Equal(t, "1", report.Activities[0].ID)
}

func TestParseJSON_Invalid(t *testing.T) {
	_, err := ParseJSON([]byte(`{"activities": [`))
	assert.True(t, errors.Is(err, ErrParse))

	_, err = ParseJSON([]byte(`{"tasks": []}`))
	assert.True(t, errors.Is(err, ErrParse))
}

func TestParseYAML(t *testing.T) {
	input := `activities:
  - id: A
    name: Design
    estimate: {optimistic: 1, most_likely: 2, pessimistic: 3}
  - id: B
    duration: 4
    predecessors: [A]
  - id: C
    predecessors: [B]
`
	report, err := ParseYAML([]byte(input))
	require.NoError(t, err)
	require.Len(t, report.Activities, 2)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 8, report.Errors[0].Line)
	assert.Contains(t, report.Errors[0].Msg, "no duration")

	assert.Equal(t, 2.0, report.Activities[0].Estimate.MostLikely)
	assert.Equal(t, []string{"A"}, report.Activities[1].Predecessors)
}

func TestYAML_RoundTrip(t *testing.T) {
	acts, _ := Sample("pert")
	data, err := MarshalYAML(acts)
	require.NoError(t, err)

	report, err := ParseYAML(data)
	require.NoError(t, err)
	if diff := cmp.Diff(acts, report.Activities); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseHCL(t *testing.T) {
	input := `
activity "A" {
  name        = "Design"
  optimistic  = 1
  most_likely = 2
  pessimistic = 3
}

activity "B" {
  duration     = 4
  predecessors = ["A"]
}

activity "C" {
  optimistic = 1
}
`
	report, err := ParseHCL([]byte(input), "project.hcl")
	require.NoError(t, err)
	require.Len(t, report.Activities, 2)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 14, report.Errors[0].Line)

	want := []activity.Activity{
		{ID: "A", Name: "Design", Estimate: &activity.ThreePoint{Optimistic: 1, MostLikely: 2, Pessimistic: 3}},
		{ID: "B", Duration: 4, Predecessors: []string{"A"}},
	}
	if diff := cmp.Diff(want, report.Activities); diff != "" {
		t.Errorf("activities mismatch (-want +got):\n%s", diff)
	}
}

func TestParseHCL_Invalid(t *testing.T) {
	_, err := ParseHCL([]byte(`activity "A" {`), "broken.hcl")
	assert.True(t, errors.Is(err, ErrParse))

	_, err = ParseHCL([]byte(`activity "A" { colour = "red" }`), "unknown.hcl")
	assert.True(t, errors.Is(err, ErrParse))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name,duration\nA,Design,2\n"), 0o644))

	report, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, report.Activities, 1)

	_, err = LoadFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	_, err = Parse([]byte("x"), "project.xlsx")
	assert.True(t, errors.Is(err, ErrParse))
}

func TestSample(t *testing.T) {
	assert.Equal(t, []string{"cpm", "pert"}, SampleNames())

	a, err := Sample("pert")
	require.NoError(t, err)
	a[0].ID = "changed"
	b, _ := Sample("pert")
	assert.Equal(t, "A", b[0].ID, "samples are fresh copies")

	_, err = Sample("nope")
	assert.Error(t, err)
}
