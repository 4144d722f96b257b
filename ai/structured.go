// structured.go defines the structured response shape the model must
// return during chat, and the parsing/validation logic for it.
//
// The AI returns a JSON object (not free text). This file:
//   - Defines the StructuredResponse type matching the AI output format
//   - Parses AI responses into StructuredResponse objects
//   - Validates the discriminated shape: exactly one of content-only,
//     sql_args, or chart_args per response
//
// This separation (NL → JSON → tool dispatch) keeps the orchestrator's
// state machine free of text-wrangling concerns.
package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tool names the model may request.
const (
	ToolExecuteSQL    = "executeSql"
	ToolGenerateChart = "generateChart"
)

// StructuredResponse represents one structured reply from the model.
// Discriminated by FunctionCallRequired: when false, Content is the final
// user-facing answer; when true, exactly one of SQLArgs or ChartArgs must
// match FunctionCallName.
type StructuredResponse struct {
	FunctionCallRequired bool   `json:"function_call_required"`
	FunctionCallName     string `json:"function_call_name,omitempty"`

	// Content is the final answer, or an optional summary next to a chart.
	Content string `json:"content,omitempty"`

	SQLArgs   *SQLArgs   `json:"sql_args,omitempty"`
	ChartArgs *ChartArgs `json:"chart_args,omitempty"`
}

// SQLArgs carries the statement for an executeSql call.
type SQLArgs struct {
	SQL string `json:"sql"`
}

// ChartArgs carries the configuration for a generateChart call.
type ChartArgs struct {
	Config *ChartConfig `json:"config"`
}

// ChartConfig is the chart configuration contract. The orchestrator treats
// it as opaque beyond existence checks; the terminal renderer consumes it.
type ChartConfig struct {
	Type    string         `json:"type"`
	Data    map[string]any `json:"data"`
	Options map[string]any `json:"options,omitempty"`
}

// ParseStructuredResponse extracts a StructuredResponse from the AI's
// response text. The response may contain markdown fencing or surrounding
// text, so we search for the JSON object within it.
func ParseStructuredResponse(response string) (*StructuredResponse, error) {
	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON found in AI response")
	}

	var r StructuredResponse
	if err := json.Unmarshal([]byte(jsonStr), &r); err != nil {
		return nil, fmt.Errorf("failed to parse structured response JSON: %w\nRaw: %s", err, jsonStr)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return &r, nil
}

// Validate enforces the discriminated shape. A response that claims a
// function call but carries no matching args is a protocol violation, not
// a silent no-op.
func (r *StructuredResponse) Validate() error {
	if !r.FunctionCallRequired {
		// Final answer; any stray args are ignored, Content may be empty.
		return nil
	}

	switch r.FunctionCallName {
	case ToolExecuteSQL:
		if r.SQLArgs == nil || strings.TrimSpace(r.SQLArgs.SQL) == "" {
			return fmt.Errorf("executeSql call without sql_args")
		}
	case ToolGenerateChart:
		if r.ChartArgs == nil || r.ChartArgs.Config == nil {
			return fmt.Errorf("generateChart call without chart_args")
		}
		if r.ChartArgs.Config.Type == "" {
			return fmt.Errorf("chart config has no type")
		}
	case "":
		return fmt.Errorf("function call required but no function_call_name given")
	default:
		return fmt.Errorf("unknown function %q", r.FunctionCallName)
	}
	return nil
}

// extractJSON finds the first {...} JSON object in the text,
// handling markdown code fences and surrounding narrative.
func extractJSON(text string) string {
	// Try to extract from markdown code fence
	if idx := strings.Index(text, "```json"); idx >= 0 {
		start := idx + len("```json")
		end := strings.Index(text[start:], "```")
		if end >= 0 {
			return strings.TrimSpace(text[start : start+end])
		}
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		start := idx + len("```")
		end := strings.Index(text[start:], "```")
		if end >= 0 {
			candidate := strings.TrimSpace(text[start : start+end])
			if strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	// Try to find raw JSON object by matching braces
	depth := 0
	start := -1
	for i, ch := range text {
		if ch == '{' {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == '}' {
			depth--
			if depth == 0 && start >= 0 {
				return text[start : i+1]
			}
		}
	}

	return ""
}

// Summary returns a short human-readable description of the response,
// used by the AI call log.
func (r *StructuredResponse) Summary() string {
	if !r.FunctionCallRequired {
		return fmt.Sprintf("final answer (%d chars)", len(r.Content))
	}
	switch r.FunctionCallName {
	case ToolExecuteSQL:
		return "executeSql: " + strings.TrimSpace(r.SQLArgs.SQL)
	case ToolGenerateChart:
		return "generateChart: " + r.ChartArgs.Config.Type
	default:
		return "function call: " + r.FunctionCallName
	}
}
