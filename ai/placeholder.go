package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Placeholder is a mock AI provider for development. It returns valid
// structured JSON so the chat loop and dataset loading work end to end
// without credentials.
type Placeholder struct{}

var _ Provider = (*Placeholder)(nil)

func NewPlaceholder() *Placeholder {
	return &Placeholder{}
}

func (p *Placeholder) Name() string {
	return "placeholder"
}

func (p *Placeholder) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	// Simulate network latency
	select {
	case <-time.After(300 * time.Millisecond):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	last := messages[len(messages)-1].Content

	if strings.Contains(system, "draft SQL table definitions") {
		return p.tablePlan(last)
	}

	resp := StructuredResponse{
		FunctionCallRequired: false,
		Content: fmt.Sprintf("[Placeholder AI] You asked: %q\n\n"+
			"This is a placeholder response. Configure a real AI provider "+
			"(OpenAI, Anthropic, Gemini, Ollama) to chat with your data.", truncate(last, 120)),
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// tablePlan derives a crude all-text table plan from the preview's header
// line, so local development can load real CSVs without a model.
func (p *Placeholder) tablePlan(prompt string) (string, error) {
	header := firstPreviewLine(prompt)
	if header == "" {
		return "", fmt.Errorf("placeholder could not find a preview header")
	}

	var columns []string
	for _, raw := range strings.Split(header, ",") {
		col := NormalizeIdentifier(strings.Trim(raw, `" `))
		if col != "" {
			columns = append(columns, col)
		}
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("placeholder found no columns in preview")
	}

	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = col + " text"
	}

	plan := TablePlan{
		TableName:      "dataset",
		Columns:        columns,
		DateColumns:    []string{},
		NumericColumns: []string{},
		SQL:            fmt.Sprintf("CREATE TABLE dataset (%s)", strings.Join(defs, ", ")),
		AnalyticsQuestions: []string{
			fmt.Sprintf("How many rows does the dataset have per %s?", columns[0]),
			fmt.Sprintf("What are the most common values of %s?", columns[len(columns)-1]),
			fmt.Sprintf("Show the distribution of %s as a chart.", columns[0]),
		},
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// firstPreviewLine pulls the header row out of the table-inference prompt.
func firstPreviewLine(prompt string) string {
	const marker = "---- preview start ----"
	idx := strings.Index(prompt, marker)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimLeft(prompt[idx+len(marker):], "\r\n")
	if end := strings.IndexByte(rest, '\n'); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
