// Package dataset loads open-data CSVs into the dataset store.
//
// Design decisions:
//   - The load pipeline is: fetch raw CSV → preview the first lines for
//     the AI schema draft → execute the drafted CREATE TABLE → build one
//     INSERT statement for all rows.
//   - Values are rendered per the drafted column classes: numeric
//     columns become bare literals (NULL when empty or unparseable),
//     everything else becomes quoted text. Dates stay textual literals;
//     the drafted DDL gives them a date type.
//   - Columns are matched to CSV fields positionally, in the order the
//     schema draft declared them.
package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
)

// PreviewLines is how many CSV lines the AI sees when drafting a schema.
const PreviewLines = 4

// FetchURL downloads raw CSV data from a URL.
func FetchURL(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch dataset: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read dataset: %w", err)
	}
	return string(data), nil
}

// ReadFile loads raw CSV data from a local file.
func ReadFile(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("read dataset file: %w", err)
	}
	return string(data), nil
}

// Preview returns the first n lines of the CSV, header included.
func Preview(csvData string, n int) string {
	if n <= 0 {
		n = PreviewLines
	}
	lines := strings.Split(csvData, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

// BaseName extracts a display name from a URL or file path.
func BaseName(source string) string {
	if u, err := url.Parse(source); err == nil && u.Scheme != "" {
		source = u.Path
	}
	name := path.Base(source)
	if name == "." || name == "/" {
		return "dataset"
	}
	return name
}

// InsertStatement builds a single INSERT covering every data row of the
// CSV. Returns the statement and the number of rows it inserts.
func InsertStatement(tableName, csvData string, columns, dateColumns, numericColumns []string) (string, int, error) {
	if tableName == "" {
		return "", 0, fmt.Errorf("no table name")
	}
	if len(columns) == 0 {
		return "", 0, fmt.Errorf("no columns")
	}

	reader := csv.NewReader(strings.NewReader(csvData))
	reader.FieldsPerRecord = -1 // ragged rows happen in open data
	records, err := reader.ReadAll()
	if err != nil {
		return "", 0, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) < 2 {
		return "", 0, fmt.Errorf("csv has no data rows")
	}

	numeric := make(map[string]bool, len(numericColumns))
	for _, c := range numericColumns {
		numeric[c] = true
	}

	var values []string
	for _, record := range records[1:] { // skip header
		if blankRecord(record) {
			continue
		}
		rendered := make([]string, len(columns))
		for i, col := range columns {
			var field string
			if i < len(record) {
				field = strings.TrimSpace(record[i])
			}
			rendered[i] = renderLiteral(field, numeric[col])
		}
		values = append(values, "("+strings.Join(rendered, ", ")+")")
	}
	if len(values) == 0 {
		return "", 0, fmt.Errorf("csv has no data rows")
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		tableName,
		strings.Join(columns, ", "),
		strings.Join(values, ", "))
	return stmt, len(values), nil
}

// renderLiteral turns one CSV field into a SQL literal.
func renderLiteral(field string, isNumeric bool) string {
	if field == "" {
		return "NULL"
	}
	if isNumeric {
		if _, err := strconv.ParseFloat(field, 64); err == nil {
			return field
		}
		return "NULL"
	}
	return "'" + strings.ReplaceAll(field, "'", "''") + "'"
}

func blankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
