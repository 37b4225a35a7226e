package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"spectra/internal/charts"
	"spectra/internal/models"
	"spectra/pkg/metadata"
)

// Document is everything a markdown report shows.
type Document struct {
	Generated time.Time
	Charts    *charts.Set
	RunID     string
	Keywords  []string
	Sources   []string
	Failed    []string
	Samples   []Sample
	Summary   Summary
}

// RenderMarkdown renders doc as markdown with aligned tables and a signed metadata footer.
func RenderMarkdown(doc Document) string {
	var sb strings.Builder

	sb.WriteString("# Sentiment Analysis Report\n\n")

	if len(doc.Keywords) > 0 {
		fmt.Fprintf(&sb, "Keywords: %s\n\n", strings.Join(doc.Keywords, ", "))
	}

	if !doc.Summary.First.IsZero() {
		fmt.Fprintf(&sb, "Date range: %s to %s\n\n", doc.Summary.First.Format("2006-01-02"), doc.Summary.Last.Format("2006-01-02"))
	}

	sb.WriteString("## Overall Statistics\n\n")
	writeTable(&sb, []string{"Metric", "Value"}, [][]string{
		{"Total Records", fmt.Sprint(doc.Summary.Total)},
		{"Positive", percent(doc.Summary.PositivePercent)},
		{"Neutral", percent(doc.Summary.NeutralPercent)},
		{"Negative", percent(doc.Summary.NegativePercent)},
		{"Mean Score", fmt.Sprintf("%.3f", doc.Summary.MeanScore)},
	})

	if len(doc.Summary.Sources) > 0 {
		sb.WriteString("## Data Source Breakdown\n\n")

		rows := make([][]string, len(doc.Summary.Sources))
		for i, s := range doc.Summary.Sources {
			rows[i] = []string{s.Source, fmt.Sprint(s.Count)}
		}

		writeTable(&sb, []string{"Source", "Records"}, rows)
	}

	if len(doc.Failed) > 0 {
		sb.WriteString("## Skipped Sources\n\n")

		for _, f := range doc.Failed {
			fmt.Fprintf(&sb, "- %s\n", f)
		}

		sb.WriteString("\n")
	}

	if doc.Charts != nil {
		writeCharts(&sb, doc.Charts)
	}

	if len(doc.Samples) > 0 {
		sb.WriteString("## Samples\n\n")

		for i, s := range doc.Samples {
			fmt.Fprintf(&sb, "### Sample %d - %s (%s)\n\n", i+1, s.Source, s.Sentiment)

			if !s.Date.IsZero() {
				fmt.Fprintf(&sb, "**Date:** %s\n\n", s.Date.Format("2006-01-02"))
			}

			fmt.Fprintf(&sb, "%s\n\n", oneLine(s.Highlighted))
			fmt.Fprintf(&sb, "Sentiment Score: %.2f\n\n", s.SentimentScore)
		}
	}

	return metadata.Sign(FormatTables(sb.String()), metadata.Metadata{
		RunID:     doc.RunID,
		Generated: doc.Generated,
		Records:   doc.Summary.Total,
		Sources:   doc.Sources,
	})
}

func writeCharts(sb *strings.Builder, set *charts.Set) {
	if len(set.Distribution) > 0 {
		sb.WriteString("## Sentiment Distribution\n\n")

		rows := make([][]string, len(set.Distribution))
		for i, c := range set.Distribution {
			rows[i] = []string{string(c.Sentiment), fmt.Sprint(c.Count), percent(c.Percent)}
		}

		writeTable(sb, []string{"Sentiment", "Count", "Share"}, rows)
	}

	if len(set.OverTime) > 0 {
		fmt.Fprintf(sb, "## Sentiment Over Time (%s)\n\n", set.Interval)

		rows := make([][]string, 0, len(set.OverTime))
		for _, p := range set.OverTime {
			row := []string{p.Label}
			for _, s := range models.Sentiments() {
				row = append(row, fmt.Sprint(p.Counts[s]))
			}

			rows = append(rows, append(row, fmt.Sprint(p.Total)))
		}

		writeTable(sb, []string{"Period", "Positive", "Neutral", "Negative", "Total"}, rows)
	}

	if len(set.Intensity) > 0 {
		sb.WriteString("## Sentiment Intensity\n\n")

		rows := make([][]string, len(set.Intensity))
		for i, p := range set.Intensity {
			rows[i] = []string{p.Label, fmt.Sprintf("%.3f", p.Mean), fmt.Sprintf("%.3f", p.Min), fmt.Sprintf("%.3f", p.Max), fmt.Sprint(p.Count)}
		}

		writeTable(sb, []string{"Period", "Mean", "Min", "Max", "Count"}, rows)
	}

	writeBreakdown(sb, "Sentiment by Source", "Source", set.Sources, 2)
	writeBreakdown(sb, "Sentiment by Keyword", "Keyword", set.Keywords, 2)

	if len(set.WordClouds) > 0 {
		sb.WriteString("## Frequent Words\n\n")

		rows := make([][]string, 0, len(set.WordClouds))
		for _, c := range set.WordClouds {
			words := make([]string, len(c.Words))
			for i, w := range c.Words {
				words[i] = fmt.Sprintf("%s (%d)", w.Word, w.Count)
			}

			rows = append(rows, []string{string(c.Sentiment), strings.Join(words, ", ")})
		}

		writeTable(sb, []string{"Sentiment", "Words"}, rows)
	}
}

// writeBreakdown renders a per-group percentage table when there are at least minGroups groups.
func writeBreakdown(sb *strings.Builder, title, label string, groups []charts.Breakdown, minGroups int) {
	if len(groups) < minGroups {
		return
	}

	fmt.Fprintf(sb, "## %s\n\n", title)

	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		row := []string{g.Name}
		for _, c := range g.Counts {
			row = append(row, percent(c.Percent))
		}

		rows = append(rows, append(row, fmt.Sprint(g.Total)))
	}

	writeTable(sb, []string{label, "Positive", "Neutral", "Negative", "Records"}, rows)
}

func writeTable(sb *strings.Builder, header []string, rows [][]string) {
	writeRow(sb, header)

	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}

	writeRow(sb, sep)

	for _, r := range rows {
		writeRow(sb, r)
	}

	sb.WriteString("\n")
}

func writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString("|")

	for _, c := range cells {
		sb.WriteString(" ")
		sb.WriteString(strings.ReplaceAll(oneLine(c), "|", `\|`))
		sb.WriteString(" |")
	}

	sb.WriteString("\n")
}

// FormatTables pads every markdown table in content so its columns line up by display width.
func FormatTables(content string) string {
	lines := strings.Split(content, "\n")

	var (
		out   []string
		table []string
	)

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") {
			table = append(table, line)
			continue
		}

		if len(table) > 0 {
			out = append(out, alignTable(table)...)
			table = nil
		}

		out = append(out, line)
	}

	if len(table) > 0 {
		out = append(out, alignTable(table)...)
	}

	return strings.Join(out, "\n")
}

// alignTable rewrites a header, separator and body block with padded cells.
// Blocks without a separator row are returned unchanged.
func alignTable(rows []string) []string {
	if len(rows) < 2 {
		return rows
	}

	cells := make([][]string, len(rows))
	cols := 0

	for i, row := range rows {
		cells[i] = splitRow(row)
		cols = max(cols, len(cells[i]))
	}

	if !isSeparator(cells[1]) {
		return rows
	}

	widths := make([]int, cols)
	for i := range widths {
		widths[i] = 3
	}

	for r, row := range cells {
		if r == 1 {
			continue
		}

		for c, cell := range row {
			widths[c] = max(widths[c], runewidth.StringWidth(cell))
		}
	}

	out := make([]string, len(cells))

	for r, row := range cells {
		var sb strings.Builder

		sb.WriteString("|")

		for c := 0; c < cols; c++ {
			sb.WriteString(" ")

			switch {
			case r == 1:
				sb.WriteString(strings.Repeat("-", widths[c]))
			case c < len(row):
				sb.WriteString(runewidth.FillRight(row[c], widths[c]))
			default:
				sb.WriteString(strings.Repeat(" ", widths[c]))
			}

			sb.WriteString(" |")
		}

		out[r] = sb.String()
	}

	return out
}

// splitRow splits on unescaped pipes and trims each cell.
func splitRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")

	if strings.HasSuffix(row, "|") && !strings.HasSuffix(row, `\|`) {
		row = row[:len(row)-1]
	}

	var (
		cells []string
		cur   strings.Builder
	)

	for i := 0; i < len(row); i++ {
		switch {
		case row[i] == '\\' && i+1 < len(row) && row[i+1] == '|':
			cur.WriteString(`\|`)
			i++
		case row[i] == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(row[i])
		}
	}

	return append(cells, strings.TrimSpace(cur.String()))
}

func isSeparator(cells []string) bool {
	for _, c := range cells {
		if strings.Trim(c, "-: ") != "" {
			return false
		}
	}

	return len(cells) > 0
}

func oneLine(s string) string {
	return stringHelper.NormalizeWhitespace(s)
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
