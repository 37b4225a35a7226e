package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"spectra/internal/analysis"
	"spectra/internal/config"
	"spectra/internal/models"
	"spectra/internal/normalizer"
	"spectra/internal/pipeline"
	"spectra/internal/tableio"
)

type standardizeFlags struct {
	sources    []string
	textColumn string
	dateColumn string
	sheet      string
	mergeMode  string
	output     string
	annotate   bool
	preprocess bool
}

func newStandardizeCommand(global *globalFlags) *cobra.Command {
	flags := &standardizeFlags{}

	cmd := &cobra.Command{
		Use:   "standardize FILE...",
		Short: "Standardize local CSV/XLSX tables onto text/date/source and merge them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStandardize(cmd, global, flags, args)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&flags.sources, "source", nil, "source name per file (defaults to the file name)")
	f.StringVar(&flags.textColumn, "text-column", "", "text column hint applied to every file")
	f.StringVar(&flags.dateColumn, "date-column", "", "date column hint applied to every file")
	f.StringVar(&flags.sheet, "sheet", "", "sheet to read from XLSX inputs (first sheet when empty)")
	f.StringVar(&flags.mergeMode, "merge", "", "merge mode: union or common (overrides analysis.merge_mode)")
	f.StringVarP(&flags.output, "output", "o", "standardized.csv", "output file (.csv, .xlsx or .json)")
	f.BoolVar(&flags.annotate, "annotate", false, "add sentiment columns")
	f.BoolVar(&flags.preprocess, "preprocess", false, "add processed_text")

	return cmd
}

func runStandardize(cmd *cobra.Command, global *globalFlags, flags *standardizeFlags, files []string) error {
	if len(flags.sources) > 0 && len(flags.sources) != len(files) {
		return fmt.Errorf("got %d --source values for %d files", len(flags.sources), len(files))
	}

	a, err := loadApp(global, func(cfg *config.Config) {
		if flags.mergeMode != "" {
			cfg.Analysis.MergeMode = flags.mergeMode
		}
	})
	if err != nil {
		return err
	}
	defer a.close()

	// A nil analyzer leaves the sentiment columns off.
	var an *analysis.Analyzer
	if flags.annotate {
		if an, err = a.analyzer(); err != nil {
			return err
		}
	}

	runner := pipeline.NewRunner(nil, an, pipeline.Options{
		PreserveColumns: a.cfg.PreserveColumns(),
		Preprocess:      flags.preprocess,
	}, a.log)

	hints := normalizer.ColumnHints{Text: flags.textColumn, Date: flags.dateColumn}

	tables := make([]*models.Table, 0, len(files))

	for i, path := range files {
		source := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if len(flags.sources) > 0 {
			source = flags.sources[i]
		}

		raw, err := tableio.ReadFile(path, flags.sheet)
		if err != nil {
			return err
		}

		table, err := runner.Process(raw, source, hints)
		if err != nil {
			return err
		}

		a.log.Info("standardized", "file", path, "source", source, "rows", table.Len())
		tables = append(tables, table)
	}

	merged := runner.Merge(tables)

	if err := tableio.WriteFile(flags.output, merged); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Saved %d records to: %s\n", merged.Len(), flags.output)

	return nil
}
