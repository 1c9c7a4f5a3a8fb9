package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joshharrison/netplanner/internal/activity"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5-20250929"

// ActivitySummary is the minimal activity info sent to Claude for
// predecessor inference.
type ActivitySummary struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Duration     float64  `json:"duration"`
	Predecessors []string `json:"predecessors,omitempty"`
}

// Edge is a single inferred precedence relation.
type Edge struct {
	Activity    string `json:"activity"`    // activity that must wait
	Predecessor string `json:"predecessor"` // activity that must finish first
	Reason      string `json:"reason"`
}

// InferResult holds the full response from Claude.
type InferResult struct {
	Edges   []Edge `json:"edges"`
	Summary string `json:"summary"`
}

// Client wraps the Anthropic SDK for Claude API calls.
type Client struct {
	inner anthropic.Client
	model anthropic.Model
}

// NewClient creates a Claude client. apiKey defaults to ANTHROPIC_API_KEY env.
// model defaults to DefaultModel.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	inner := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	if model == "" {
		model = DefaultModel
	}

	return &Client{inner: inner, model: anthropic.Model(model)}, nil
}

const inferPredecessorsPrompt = `You are an experienced project planner. Given the activities of a project, infer which activities must finish before others can start.

Rules:
- Only add a precedence when there is a strong causal reason (activity B cannot start until activity A is complete).
- Keep the predecessors already listed; only propose additional ones.
- Prefer fewer edges; do not add transitive or speculative precedences.
- Do not create cycles.
- Only use activity IDs from the provided list.
- An activity cannot precede itself.

Return your answer as JSON with this exact structure:
{
  "edges": [
    {"activity": "<activity that must wait>", "predecessor": "<activity that must finish first>", "reason": "<short explanation>"}
  ],
  "summary": "<one paragraph summary of the precedence structure>"
}

Return ONLY the JSON object. No markdown fences, no commentary outside the JSON.

Here are the activities:
`

// Summaries converts activities to the form sent to Claude.
func Summaries(acts []activity.Activity) []ActivitySummary {
	out := make([]ActivitySummary, len(acts))
	for i, a := range acts {
		out[i] = ActivitySummary{ID: a.ID, Name: a.Name, Duration: a.Duration, Predecessors: a.Predecessors}
		if a.Estimate != nil {
			out[i].Duration = a.Estimate.MostLikely
		}
	}
	return out
}

// buildPrompt constructs the full prompt for predecessor inference.
func buildPrompt(acts []ActivitySummary) (string, error) {
	data, err := json.MarshalIndent(acts, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal activities: %w", err)
	}
	return inferPredecessorsPrompt + string(data), nil
}

// InferPredecessors calls the Claude API to infer missing precedences.
func (c *Client) InferPredecessors(ctx context.Context, acts []ActivitySummary) (*InferResult, error) {
	prompt, err := buildPrompt(acts)
	if err != nil {
		return nil, err
	}

	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(4096),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude API call: %w", err)
	}

	// Extract text from response
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return ParseResult(text)
}

// ParseResult decodes a Claude response body, tolerating markdown fences.
func ParseResult(text string) (*InferResult, error) {
	text = stripJSONFences(text)

	var result InferResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("parse claude response: %w\nraw: %s", err, text)
	}
	return &result, nil
}

// stripJSONFences removes markdown code fences that Claude sometimes adds.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	// Remove ```json ... ``` or ``` ... ```
	if strings.HasPrefix(s, "```") {
		// Strip opening fence line
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		// Strip closing fence
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
