// tableplan.go defines the schema-drafting protocol invoked once per
// dataset load: from a short CSV preview and a file name, the model
// drafts a table definition plus suggested analytics questions.
package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TablePlan represents the structured table draft returned by the AI.
type TablePlan struct {
	// TableName is the lowercase table identifier.
	TableName string `json:"tableName"`

	// Columns lists all column names, no data types.
	Columns []string `json:"columns"`

	// DateColumns lists the columns holding date strings.
	DateColumns []string `json:"dateColumns"`

	// NumericColumns lists the columns holding numbers.
	NumericColumns []string `json:"numericColumns"`

	// SQL is a single executable CREATE TABLE statement.
	SQL string `json:"sql"`

	// AnalyticsQuestions holds exactly three suggested questions: two
	// answerable in text, one suited to a chart.
	AnalyticsQuestions []string `json:"analyticsQuestions"`
}

// ParseTablePlan extracts and validates a TablePlan from the AI's
// response text.
func ParseTablePlan(response string) (*TablePlan, error) {
	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON found in AI response")
	}

	var plan TablePlan
	if err := json.Unmarshal([]byte(jsonStr), &plan); err != nil {
		return nil, fmt.Errorf("failed to parse table plan JSON: %w\nRaw: %s", err, jsonStr)
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}

	return &plan, nil
}

// Validate checks the plan against the drafting rules. The two-text/one-
// chart question mix is a presentation convention the model is asked for,
// not something we can verify, so only the count is checked.
func (p *TablePlan) Validate() error {
	if p.TableName == "" {
		return fmt.Errorf("table plan has no table name")
	}
	if p.TableName != NormalizeIdentifier(p.TableName) {
		return fmt.Errorf("table name %q is not a normalized identifier", p.TableName)
	}
	if len(p.Columns) == 0 {
		return fmt.Errorf("table plan has no columns")
	}

	sql := strings.ToLower(strings.TrimSpace(p.SQL))
	if !strings.HasPrefix(sql, "create table") {
		return fmt.Errorf("table plan SQL is not a CREATE TABLE statement")
	}
	if !strings.Contains(sql, p.TableName) {
		return fmt.Errorf("table plan SQL does not create table %q", p.TableName)
	}
	// One statement only; the executor runs it verbatim.
	if strings.Contains(strings.TrimSuffix(sql, ";"), ";") {
		return fmt.Errorf("table plan SQL contains more than one statement")
	}

	if len(p.AnalyticsQuestions) != 3 {
		return fmt.Errorf("expected 3 analytics questions, got %d", len(p.AnalyticsQuestions))
	}

	return nil
}

// NormalizeIdentifier lowercases a name and replaces spaces with
// underscores, matching the identifier rules given to the model.
func NormalizeIdentifier(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	return name
}
