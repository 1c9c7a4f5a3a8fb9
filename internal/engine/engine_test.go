package engine

import (
	"encoding/json"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshharrison/netplanner/internal/activity"
	"github.com/joshharrison/netplanner/internal/pert"
)

func cpmProject() []activity.Activity {
	return []activity.Activity{
		{ID: "A", Name: "Task A", Duration: 2},
		{ID: "B", Name: "Task B", Duration: 3},
		{ID: "C", Name: "Task C", Duration: 3, Predecessors: []string{"A"}},
		{ID: "D", Name: "Task D", Duration: 4, Predecessors: []string{"A", "B"}},
		{ID: "E", Name: "Task E", Duration: 3, Predecessors: []string{"C", "D"}},
	}
}

func pertProject() []activity.Activity {
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
}

func TestCompute_CPMScenario(t *testing.T) {
	res := Compute(cpmProject(), Options{})
	require.True(t, res.OK(), "errors: %v", res.Errors)

	assert.Equal(t, MethodCPM, res.Method)
	assert.Equal(t, 10.0, res.ProjectDuration)
	assert.Nil(t, res.Distribution)
	assert.Equal(t, []string{"B", "D", "E"}, res.CriticalIDs())
	require.Len(t, res.CriticalPaths, 1)
	assert.Equal(t, CriticalPath{IDs: []string{"B", "D", "E"}, Duration: 10}, res.CriticalPaths[0])

	ids := make([]string, len(res.Activities))
	for i, a := range res.Activities {
		ids[i] = a.ID
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, ids, "activities keep input order")

	a, _ := res.Activity("A")
	assert.Equal(t, 1.0, a.TotalFloat)
	assert.Equal(t, 0.0, a.FreeFloat)
	c, _ := res.Activity("C")
	assert.Equal(t, 2.0, c.TotalFloat)
	assert.Equal(t, 2.0, c.FreeFloat)

	require.NotNil(t, res.Network)
	assert.Len(t, res.Network.Events, 5)
	assert.Empty(t, res.Warnings)
}

func TestCompute_PERTSample(t *testing.T) {
	res := Compute(pertProject(), Options{})
	require.True(t, res.OK(), "errors: %v", res.Errors)

	assert.Equal(t, MethodPERT, res.Method)
	assert.Equal(t, 10.0, res.ProjectDuration)

	c, ok := res.Activity("C")
	require.True(t, ok)
	assert.Equal(t, 3.0, c.ExpectedDuration)
	assert.InDelta(t, 16.0/9, c.Variance, 1e-12)

	require.Len(t, res.CriticalPaths, 1)
	assert.Equal(t, []string{"B", "D", "E"}, res.CriticalPaths[0].IDs)
	assert.InDelta(t, 1.0, res.CriticalPaths[0].Variance, 1e-12)

	require.NotNil(t, res.Distribution)
	assert.InDelta(t, 1.0, res.Distribution.StdDev, 1e-12)
	assert.InDelta(t, 0.5, res.Distribution.Probability(10), 1e-12)
	assert.Equal(t, 0, res.Distribution.PathIndex)
}

func TestCompute_StructuralErrorsOnly(t *testing.T) {
	res := Compute([]activity.Activity{
		{ID: "A", Duration: 1, Predecessors: []string{"A"}},
		{ID: "B", Duration: 1, Predecessors: []string{"ghost"}},
		{ID: "B", Duration: 1},
		{ID: "C", Duration: -1, Predecessors: []string{"B", "B"}},
	}, Options{})

	assert.False(t, res.OK())
	assert.Len(t, res.Errors, 3)
	assert.Empty(t, res.Warnings, "warnings are dropped when the result has errors")
	assert.Empty(t, res.Activities)
	assert.Empty(t, res.CriticalPaths)
	assert.Nil(t, res.Network)
	assert.Zero(t, res.ProjectDuration)
}

func TestCompute_Cycle(t *testing.T) {
	res := Compute([]activity.Activity{
		{ID: "A", Duration: 1, Predecessors: []string{"C"}},
		{ID: "B", Duration: 1, Predecessors: []string{"A"}},
		{ID: "C", Duration: 1, Predecessors: []string{"B"}},
	}, Options{})

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "cycle")
	assert.Empty(t, res.Activities)
}

func TestCompute_Empty(t *testing.T) {
	res := Compute(nil, Options{})
	assert.True(t, res.OK())
	assert.Equal(t, []string{"activity set is empty"}, res.Warnings)
	assert.Empty(t, res.Activities)
	assert.Zero(t, res.ProjectDuration)
}

func TestCompute_EmptyEncodesArrays(t *testing.T) {
	for _, acts := range [][]activity.Activity{
		nil,
		{{ID: "A", Duration: 1, Predecessors: []string{"A"}}},
	} {
		data, err := json.Marshal(Compute(acts, Options{}))
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		for _, key := range []string{"activities", "critical_paths", "waves", "errors", "warnings"} {
			assert.IsType(t, []any{}, decoded[key], "%s should encode as an array", key)
		}
	}
}

func TestCompute_DurationOverflow(t *testing.T) {
	acts := []activity.Activity{
		{ID: "A", Duration: 1e308},
		{ID: "B", Duration: 1e308, Predecessors: []string{"A"}},
	}

	res := Compute(acts, Options{})
	require.False(t, res.OK())
	assert.Contains(t, res.Errors[0], "overflows float64")
	assert.Zero(t, res.ProjectDuration)
	assert.Empty(t, res.Activities)

	_, err := json.Marshal(res)
	assert.NoError(t, err)
}

func TestCompute_EstimateOverflow(t *testing.T) {
	acts := []activity.Activity{
		{ID: "A", Estimate: &activity.ThreePoint{Optimistic: 0, MostLikely: 1e308, Pessimistic: 1e308}},
	}

	res := Compute(acts, Options{})
	require.False(t, res.OK())
	assert.Equal(t, []string{`activity "A": estimate overflows float64`}, res.Errors)
}

func TestCompute_ReportsTolerance(t *testing.T) {
	res := Compute(cpmProject(), Options{Epsilon: 1e-3})
	require.True(t, res.OK())
	assert.InDelta(t, 1e-2, res.Tolerance, 1e-12)
}

func TestCompute_NormalizeWarnings(t *testing.T) {
	acts := pertProject()
	acts[0].Estimate = &activity.ThreePoint{Optimistic: 3, MostLikely: 2, Pessimistic: 1}
	acts[1].Estimate.Optimistic = -1

	res := Compute(acts, Options{})
	require.True(t, res.OK(), "errors: %v", res.Errors)
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "out of order")
	assert.Contains(t, res.Warnings[1], "clamped")

	a, _ := res.Activity("A")
	assert.Equal(t, 1.0, a.Estimate.Optimistic)
	assert.Equal(t, 3.0, a.Estimate.Pessimistic)

	// The caller's records are untouched.
	assert.Equal(t, 3.0, acts[0].Estimate.Optimistic)
	assert.Equal(t, -1.0, acts[1].Estimate.Optimistic)
}

func TestCompute_StrictPolicy(t *testing.T) {
	acts := pertProject()
	acts[0].Estimate = &activity.ThreePoint{Optimistic: 3, MostLikely: 2, Pessimistic: 1}

	res := Compute(acts, Options{Policy: pert.PolicyStrict})
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "optimistic <= most likely <= pessimistic")
	assert.Empty(t, res.Activities)
}

func TestCompute_NonFiniteIsFatal(t *testing.T) {
	acts := cpmProject()
	acts[2].Duration = math.NaN()

	res := Compute(acts, Options{})
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "finite")
}

func TestCompute_UnknownPolicy(t *testing.T) {
	res := Compute(cpmProject(), Options{Policy: "lenient"})
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "lenient")
}

func TestCompute_GraphWarnings(t *testing.T) {
	acts := cpmProject()
	acts[4].Predecessors = []string{"C", "D", "A", "D"}

	res := Compute(acts, Options{})
	require.True(t, res.OK())
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "more than once")
	assert.Contains(t, res.Warnings[1], "redundant")
}

func TestCompute_TruncationWarning(t *testing.T) {
	acts := []activity.Activity{
		{ID: "A", Duration: 1},
		{ID: "B", Duration: 1, Predecessors: []string{"A"}},
		{ID: "C", Duration: 1, Predecessors: []string{"A"}},
		{ID: "D", Duration: 1, Predecessors: []string{"B", "C"}},
	}
	res := Compute(acts, Options{MaxPaths: 1})
	require.True(t, res.OK())
	assert.Len(t, res.CriticalPaths, 1)
	require.Len(t, res.Warnings, 1)
	assert.True(t, strings.HasPrefix(res.Warnings[0], "critical path enumeration stopped"))
}

func TestCompute_Idempotent(t *testing.T) {
	acts := pertProject()
	before := activity.CloneAll(acts)

	first := Compute(acts, Options{})
	second := Compute(acts, Options{})

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated computation differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(before, acts); diff != "" {
		t.Errorf("input was modified (-before +after):\n%s", diff)
	}
}

func TestCompute_ConcurrentCalls(t *testing.T) {
	acts := pertProject()
	want := Compute(acts, Options{})

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Compute(acts, Options{})
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
