package claude

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/joshharrison/netplanner/internal/activity"
)

func TestStripJSONFences_Clean(t *testing.T) {
	input := `{"edges": [], "summary": "no deps"}`
	got := stripJSONFences(input)
	if got != input {
		t.Errorf("expected unchanged, got %q", got)
	}
}

func TestStripJSONFences_WithJSONTag(t *testing.T) {
	input := "```json\n{\"edges\": []}\n```"
	got := stripJSONFences(input)
	if got != `{"edges": []}` {
		t.Errorf("expected clean JSON, got %q", got)
	}
}

func TestStripJSONFences_WithPlainFence(t *testing.T) {
	input := "```\n{\"edges\": []}\n```"
	got := stripJSONFences(input)
	if got != `{"edges": []}` {
		t.Errorf("expected clean JSON, got %q", got)
	}
}

func TestStripJSONFences_WithWhitespace(t *testing.T) {
	input := "  \n```json\n{\"edges\": []}\n```\n  "
	got := stripJSONFences(input)
	if got != `{"edges": []}` {
		t.Errorf("expected clean JSON, got %q", got)
	}
}

func TestBuildPrompt_ContainsActivityData(t *testing.T) {
	acts := Summaries([]activity.Activity{
		{ID: "A1", Name: "Pour foundation", Duration: 3},
		{ID: "A2", Name: "Frame walls", Estimate: &activity.ThreePoint{Optimistic: 2, MostLikely: 4, Pessimistic: 7}},
	})
	prompt, err := buildPrompt(acts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(prompt, "A1") || !strings.Contains(prompt, "Pour foundation") {
		t.Error("prompt should contain activity IDs and names")
	}
	if !strings.Contains(prompt, "A2") || !strings.Contains(prompt, "Frame walls") {
		t.Error("prompt should contain all activities")
	}
	if !strings.Contains(prompt, "strong causal reason") {
		t.Error("prompt should contain precedence rules")
	}
	if acts[1].Duration != 4 {
		t.Errorf("expected most likely duration for PERT activity, got %g", acts[1].Duration)
	}
}

func TestParseResult(t *testing.T) {
	raw := "```json\n" + `{
		"edges": [
			{"activity": "A2", "predecessor": "A1", "reason": "walls need a foundation"}
		],
		"summary": "A2 follows A1"
	}` + "\n```"
	result, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(result.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(result.Edges))
	}
	if result.Edges[0].Activity != "A2" {
		t.Errorf("expected activity=A2, got %s", result.Edges[0].Activity)
	}
	if result.Edges[0].Predecessor != "A1" {
		t.Errorf("expected predecessor=A1, got %s", result.Edges[0].Predecessor)
	}
	if result.Summary != "A2 follows A1" {
		t.Errorf("unexpected summary: %s", result.Summary)
	}

	if _, err := ParseResult("not json"); err == nil {
		t.Error("expected error for non-JSON response")
	}
}

func TestInferResult_RoundTrip(t *testing.T) {
	in := InferResult{Edges: []Edge{{Activity: "B", Predecessor: "A", Reason: "r"}}, Summary: "s"}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"predecessor":"A"`) {
		t.Errorf("unexpected encoding: %s", data)
	}
}

func TestFilter(t *testing.T) {
	acts := []activity.Activity{
		{ID: "A", Duration: 1},
		{ID: "B", Duration: 1, Predecessors: []string{"A"}},
		{ID: "C", Duration: 1},
	}
	edges := []Edge{
		{Activity: "C", Predecessor: "B"}, // ok
		{Activity: "X", Predecessor: "A"}, // unknown activity
		{Activity: "C", Predecessor: "Y"}, // unknown predecessor
		{Activity: "C", Predecessor: "C"}, // self
		{Activity: "B", Predecessor: "A"}, // existing
		{Activity: "A", Predecessor: "C"}, // cycle A -> B -> C -> A
		{Activity: "C", Predecessor: "A"}, // ok (redundant but acyclic)
		{Activity: "C", Predecessor: "B"}, // duplicate of an accepted edge
	}

	accepted, rejected := Filter(acts, edges)
	if len(accepted) != 2 {
		t.Fatalf("expected 2 accepted edges, got %d: %+v", len(accepted), accepted)
	}
	if len(rejected) != 6 {
		t.Fatalf("expected 6 rejected edges, got %d: %+v", len(rejected), rejected)
	}
	if !strings.Contains(rejected[4].Reason, "cycle") {
		t.Errorf("expected cycle rejection, got %q", rejected[4].Reason)
	}
}

func TestApply(t *testing.T) {
	acts := []activity.Activity{
		{ID: "A", Duration: 1},
		{ID: "B", Duration: 1, Predecessors: []string{"A"}},
		{ID: "C", Duration: 1},
	}
	out := Apply(acts, []Edge{{Activity: "C", Predecessor: "B"}})

	if got := out[2].Predecessors; len(got) != 1 || got[0] != "B" {
		t.Errorf("expected C to gain predecessor B, got %v", got)
	}
	if acts[2].Predecessors != nil {
		t.Error("Apply must not modify its input")
	}
}
