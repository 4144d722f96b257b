// chart.go renders chart configurations as terminal graphics.
//
// The chart config is a Chart.js-shaped object the model produces:
// {type, data: {labels, datasets: [{label, data}]}, options}. The
// renderer extracts labels and numeric series best-effort. Bar and pie
// types become horizontal block bars, line becomes a sparkline per
// series. Anything it cannot interpret falls back to indented JSON so
// the user still sees what the model sent.
package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/askdata/askdata/ai"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	chartBarRune   = '█'
	chartMaxBar    = 40
	chartMaxLabel  = 20
	sparklineRunes = "▁▂▃▄▅▆▇█"
)

// series is one extracted dataset: a name plus numeric points.
type series struct {
	label  string
	points []float64
}

// RenderChart converts a chart config into display lines no wider
// than width.
func RenderChart(cfg *ai.ChartConfig, width int) []string {
	if cfg == nil {
		return nil
	}

	labels := chartLabels(cfg)
	datasets := chartSeries(cfg)

	var lines []string
	title := strings.TrimSpace(chartTitle(cfg))
	if title != "" {
		lines = append(lines, StyleBold.Render(title))
	}

	if len(datasets) == 0 {
		return append(lines, chartFallback(cfg)...)
	}

	switch strings.ToLower(cfg.Type) {
	case "line":
		for _, ds := range datasets {
			lines = append(lines, renderSparkline(ds, width)...)
		}
	default:
		// bar, pie, doughnut and unknown types all read fine as
		// horizontal bars
		for _, ds := range datasets {
			lines = append(lines, renderBars(ds, labels, width)...)
		}
	}

	return lines
}

// renderBars draws one horizontal bar per data point, label left,
// value right.
func renderBars(ds series, labels []string, width int) []string {
	max := 0.0
	for _, p := range ds.points {
		if p > max {
			max = p
		}
	}

	barWidth := width - chartMaxLabel - 14
	if barWidth > chartMaxBar {
		barWidth = chartMaxBar
	}
	if barWidth < 5 {
		barWidth = 5
	}

	var lines []string
	if ds.label != "" {
		lines = append(lines, StyleDimmed.Render(ds.label))
	}
	for i, p := range ds.points {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		label = runewidth.Truncate(label, chartMaxLabel, "…")
		label = runewidth.FillRight(label, chartMaxLabel)

		n := 0
		if max > 0 && p > 0 {
			n = int(p / max * float64(barWidth))
			if n == 0 {
				n = 1
			}
		}
		bar := lipgloss.NewStyle().Foreground(ColorAccent).
			Render(strings.Repeat(string(chartBarRune), n))

		lines = append(lines, fmt.Sprintf("%s %s %s",
			StyleDimmed.Render(label), bar, formatPoint(p)))
	}
	return lines
}

// renderSparkline draws one series as a single row of block runes.
func renderSparkline(ds series, width int) []string {
	if len(ds.points) == 0 {
		return nil
	}

	min, max := ds.points[0], ds.points[0]
	for _, p := range ds.points {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}

	runes := []rune(sparklineRunes)
	var sb strings.Builder
	for _, p := range ds.points {
		idx := 0
		if max > min {
			idx = int((p - min) / (max - min) * float64(len(runes)-1))
		}
		sb.WriteRune(runes[idx])
	}

	spark := sb.String()
	if runewidth.StringWidth(spark) > width {
		spark = runewidth.Truncate(spark, width, "…")
	}

	var lines []string
	if ds.label != "" {
		lines = append(lines, StyleDimmed.Render(ds.label))
	}
	lines = append(lines,
		lipgloss.NewStyle().Foreground(ColorAccent).Render(spark),
		StyleDimmed.Render(fmt.Sprintf("min %s · max %s",
			formatPoint(min), formatPoint(max))))
	return lines
}

// chartLabels pulls data.labels as strings.
func chartLabels(cfg *ai.ChartConfig) []string {
	raw, ok := cfg.Data["labels"].([]any)
	if !ok {
		return nil
	}
	labels := make([]string, 0, len(raw))
	for _, l := range raw {
		labels = append(labels, fmt.Sprintf("%v", l))
	}
	return labels
}

// chartSeries pulls data.datasets, skipping entries without numeric
// data.
func chartSeries(cfg *ai.ChartConfig) []series {
	raw, ok := cfg.Data["datasets"].([]any)
	if !ok {
		return nil
	}

	var out []series
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		points, ok := m["data"].([]any)
		if !ok {
			continue
		}
		s := series{}
		if label, ok := m["label"].(string); ok {
			s.label = label
		}
		for _, p := range points {
			if f, ok := toFloat(p); ok {
				s.points = append(s.points, f)
			}
		}
		if len(s.points) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// chartTitle digs options.plugins.title.text out of the config.
func chartTitle(cfg *ai.ChartConfig) string {
	plugins, ok := cfg.Options["plugins"].(map[string]any)
	if !ok {
		return ""
	}
	title, ok := plugins["title"].(map[string]any)
	if !ok {
		return ""
	}
	text, _ := title["text"].(string)
	return text
}

// chartFallback renders the raw config as indented JSON.
func chartFallback(cfg *ai.ChartConfig) []string {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return []string{StyleDimmed.Render("(unrenderable chart)")}
	}
	lines := []string{StyleDimmed.Render("chart (" + cfg.Type + "):")}
	for _, l := range strings.Split(string(data), "\n") {
		lines = append(lines, StyleDimmed.Render("  "+l))
	}
	return lines
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

func formatPoint(p float64) string {
	if p == float64(int64(p)) {
		return fmt.Sprintf("%d", int64(p))
	}
	return fmt.Sprintf("%.2f", p)
}
