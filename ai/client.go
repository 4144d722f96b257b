// client.go wraps a Provider into the two structured-generation calls the
// application makes: chat turns (StructuredResponse) and dataset schema
// drafting (TablePlan). Every call is written to the AI log.
package ai

import (
	"context"
	"fmt"
)

// StructuredClient turns raw provider completions into validated
// structured objects.
type StructuredClient struct {
	provider Provider
	maxRows  int
}

// NewStructuredClient creates a client. maxRows is the row-fetch policy
// communicated to the model in the system prompt.
func NewStructuredClient(provider Provider, maxRows int) *StructuredClient {
	if maxRows <= 0 {
		maxRows = 5
	}
	return &StructuredClient{provider: provider, maxRows: maxRows}
}

// Name returns the underlying provider name for display.
func (c *StructuredClient) Name() string {
	return c.provider.Name()
}

// Generate sends the model-facing history and returns one validated
// StructuredResponse. A malformed or partial response is an error, never
// a silent no-op.
func (c *StructuredClient) Generate(ctx context.Context, schemaContext string, turns []Message) (*StructuredResponse, error) {
	system := ChatSystemPrompt(schemaContext, c.maxRows)

	var inputSummary string
	for _, m := range turns {
		inputSummary += m.Role + ": " + m.Content + "\n"
	}
	LogAIRequest("Chat", c.provider.Name(), map[string]string{
		"Messages": inputSummary,
	})

	raw, err := c.provider.Complete(ctx, system, turns)
	LogAIResponse("Chat", raw, err)
	if err != nil {
		return nil, err
	}

	resp, err := ParseStructuredResponse(raw)
	if err != nil {
		LogAIResponse("Chat/parse", raw, err)
		return nil, fmt.Errorf("structured response: %w", err)
	}
	return resp, nil
}

// InferTable drafts a table definition and analytics questions from a CSV
// preview. Invoked once per dataset load.
func (c *StructuredClient) InferTable(ctx context.Context, preview, fileName string) (*TablePlan, error) {
	LogAIRequest("TablePlan", c.provider.Name(), map[string]string{
		"File Name": fileName,
		"Preview":   preview,
	})

	raw, err := c.provider.Complete(ctx, tableInferenceSystemPrompt, []Message{
		{Role: "user", Content: tableInferencePrompt(preview, fileName)},
	})
	LogAIResponse("TablePlan", raw, err)
	if err != nil {
		return nil, err
	}

	plan, err := ParseTablePlan(raw)
	if err != nil {
		LogAIResponse("TablePlan/parse", raw, err)
		return nil, fmt.Errorf("table plan: %w", err)
	}
	return plan, nil
}
