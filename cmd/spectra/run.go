package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"spectra/internal/charts"
	"spectra/internal/collector"
	"spectra/internal/config"
	"spectra/internal/report"
)

type runFlags struct {
	keywords     []string
	sources      []string
	formats      []string
	start        string
	end          string
	interval     string
	samples      string
	outDir       string
	maxResults   int
	seed         uint64
	noPreprocess bool
	noExport     bool
}

func newRunCommand(global *globalFlags) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Collect, analyze and report on the configured sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalysis(cmd, global, flags)
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&flags.keywords, "keywords", "k", nil, "search keywords (overrides collection.keywords)")
	f.StringSliceVar(&flags.sources, "sources", nil, "restrict to these sources (Flickr, NYT, Reddit)")
	f.StringVar(&flags.start, "start", "", "start date YYYY-MM-DD")
	f.StringVar(&flags.end, "end", "", "end date YYYY-MM-DD")
	f.IntVar(&flags.maxResults, "max-results", 0, "maximum results per keyword")
	f.StringVar(&flags.interval, "interval", "", "time grouping: D, W, M or Y")
	f.StringVar(&flags.samples, "samples", string(report.SampleMostPositive), "sample selection: random, positive or negative")
	f.Uint64Var(&flags.seed, "seed", 0, "seed for random samples (0 uses the clock)")
	f.StringVarP(&flags.outDir, "out", "o", "", "output directory (overrides output.dir)")
	f.StringSliceVar(&flags.formats, "formats", nil, "output formats: markdown, csv, xlsx, json")
	f.BoolVar(&flags.noPreprocess, "no-preprocess", false, "skip text preprocessing")
	f.BoolVar(&flags.noExport, "no-export", false, "print the summary only")

	return cmd
}

func runAnalysis(cmd *cobra.Command, global *globalFlags, flags *runFlags) error {
	a, err := loadApp(global, func(cfg *config.Config) {
		if len(flags.keywords) > 0 {
			cfg.Collection.Keywords = flags.keywords
		}

		if flags.start != "" {
			cfg.Collection.StartDate = flags.start
		}

		if flags.end != "" {
			cfg.Collection.EndDate = flags.end
		}

		if flags.maxResults > 0 {
			cfg.Collection.MaxResults = flags.maxResults
		}

		if flags.interval != "" {
			cfg.Analysis.TimeInterval = strings.ToUpper(flags.interval)
		}

		if flags.outDir != "" {
			cfg.Output.Dir = flags.outDir
		}

		if len(flags.formats) > 0 {
			cfg.Output.Formats = flags.formats
		}

		if flags.noPreprocess {
			cfg.Analysis.PreprocessText = false
		}
	})
	if err != nil {
		return err
	}
	defer a.close()

	kind, err := report.ParseSampleKind(flags.samples)
	if err != nil {
		return err
	}

	interval, err := charts.ParseInterval(a.cfg.Analysis.TimeInterval)
	if err != nil {
		return err
	}

	q, err := collector.QueryFromConfig(a.cfg)
	if err != nil {
		return err
	}

	runner, err := a.runner(cmd.Context())
	if err != nil {
		return err
	}

	if runner, err = runner.Only(flags.sources...); err != nil {
		return err
	}

	a.log.Info("🚀 starting analysis", "sources", runner.Sources(), "from", a.cfg.Collection.StartDate, "to", a.cfg.Collection.EndDate)

	res, err := runner.Run(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	out := cmd.OutOrStdout()

	if res.Combined.Empty() {
		fmt.Fprintln(out, "⚠️  No data found for the selected sources, keywords and date range.")
		return nil
	}

	set, err := charts.Build(res.Combined, charts.Options{Interval: interval, Keywords: q.Keywords})
	if err != nil {
		return fmt.Errorf("failed to build charts: %w", err)
	}

	seed := flags.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	samples, err := report.Samples(res.Combined, kind, a.cfg.Analysis.SampleSize, seed)
	if err != nil {
		return err
	}

	summary := report.Summarize(res.Combined)

	report.PrintSummary(out, summary, set.Sources)
	report.PrintSamples(out, samples)

	if flags.noExport {
		return nil
	}

	doc := report.Document{
		Generated: time.Now(),
		Charts:    set,
		RunID:     res.RunID,
		Keywords:  q.Keywords,
		Sources:   runner.Sources(),
		Samples:   samples,
		Summary:   summary,
	}

	for _, f := range res.Failed() {
		doc.Failed = append(doc.Failed, f.Err.Error())
	}

	base := "spectra_" + res.StartedAt.Format("20060102_150405")

	paths, err := report.Export(a.cfg.Output.Dir, base, res.Combined, report.RenderMarkdown(doc), a.cfg.Output.Formats)
	if err != nil {
		return err
	}

	for _, p := range paths {
		fmt.Fprintf(out, "✅ Saved to: %s\n", filepath.Clean(p))
	}

	return nil
}
