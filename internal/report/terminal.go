package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"spectra/internal/charts"
)

// PrintSummary renders the headline numbers and per-source breakdown as terminal tables.
func PrintSummary(w io.Writer, s Summary, sources []charts.Breakdown) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Overall Statistics")

	t.AppendHeader(table.Row{"Total Records", "Positive", "Neutral", "Negative", "Mean Score"})
	t.AppendRow(table.Row{
		s.Total,
		percent(s.PositivePercent),
		percent(s.NeutralPercent),
		percent(s.NegativePercent),
		fmt.Sprintf("%.3f", s.MeanScore),
	})
	t.Render()

	if len(sources) == 0 {
		return
	}

	st := table.NewWriter()
	st.SetOutputMirror(w)
	st.SetStyle(table.StyleLight)
	st.SetTitle("Sentiment by Source")

	st.AppendHeader(table.Row{"Source", "Records", "Positive", "Neutral", "Negative"})

	for _, b := range sources {
		row := table.Row{b.Name, b.Total}
		for _, c := range b.Counts {
			row = append(row, percent(c.Percent))
		}

		st.AppendRow(row)
	}

	st.AppendFooter(table.Row{"Total", s.Total})
	st.Render()
}

// PrintSamples renders samples as a terminal table, truncating long texts.
func PrintSamples(w io.Writer, samples []Sample) {
	if len(samples) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Source", "Sentiment", "Score", "Text"})

	for i, s := range samples {
		t.AppendRow(table.Row{i + 1, s.Source, s.Sentiment, fmt.Sprintf("%.2f", s.SentimentScore), stringHelper.TruncateString(oneLine(s.Text), 80)})
	}

	t.Render()
}
