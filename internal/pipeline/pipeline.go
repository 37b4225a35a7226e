// Package pipeline runs collection, standardization, annotation and merging for a set of sources.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"spectra/internal/analysis"
	"spectra/internal/collector"
	"spectra/internal/logger"
	"spectra/internal/models"
	"spectra/internal/normalizer"
)

// Runner errors.
var (
	ErrNoCollectors  = errors.New("no collectors configured")
	ErrUnknownSource = errors.New("unknown source")
)

// Collector produces one raw table per run.
type Collector interface {
	Name() string
	Hints() normalizer.ColumnHints
	Collect(ctx context.Context, q collector.Query) (*models.Table, error)
}

// Options controls the optional pipeline stages.
type Options struct {
	// PreserveColumns keeps the union of columns on merge instead of the common set.
	PreserveColumns bool
	// Preprocess adds processed_text next to text.
	Preprocess bool
}

// SourceResult describes what one collector contributed to a run.
type SourceResult struct {
	Err      error
	Table    *models.Table
	Name     string
	Duration time.Duration
	Raw      int
}

// Result is the outcome of a single run.
type Result struct {
	StartedAt time.Time
	Combined  *models.Table
	RunID     string
	Keywords  []string
	Sources   []SourceResult
	Duration  time.Duration
}

// Tables returns the annotated table of every source that produced rows, keyed by name.
func (r *Result) Tables() map[string]*models.Table {
	tables := make(map[string]*models.Table, len(r.Sources))

	for _, s := range r.Sources {
		if s.Err == nil && s.Table != nil && !s.Table.Empty() {
			tables[s.Name] = s.Table
		}
	}

	return tables
}

// Failed returns the sources that errored.
func (r *Result) Failed() []SourceResult {
	var failed []SourceResult

	for _, s := range r.Sources {
		if s.Err != nil {
			failed = append(failed, s)
		}
	}

	return failed
}

// Runner executes the pipeline over a fixed set of collectors.
type Runner struct {
	log        *logger.Logger
	processor  *normalizer.Processor
	merger     *normalizer.Merger
	analyzer   *analysis.Analyzer
	text       *analysis.TextProcessor
	collectors []Collector
	opts       Options
}

// NewRunner creates a runner. A nil analyzer skips annotation.
func NewRunner(collectors []Collector, analyzer *analysis.Analyzer, opts Options, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Discard()
	}

	return &Runner{
		log:        log,
		processor:  normalizer.NewProcessor(),
		merger:     normalizer.NewMerger(),
		analyzer:   analyzer,
		text:       analysis.NewTextProcessor(),
		collectors: collectors,
		opts:       opts,
	}
}

// WithProcessor replaces the standardization processor, e.g. to inject a clock.
func (r *Runner) WithProcessor(p *normalizer.Processor) *Runner {
	r.processor = p
	return r
}

// Sources lists the collector names in run order.
func (r *Runner) Sources() []string {
	names := make([]string, len(r.collectors))
	for i, c := range r.collectors {
		names[i] = c.Name()
	}

	return names
}

// Only returns a runner restricted to the named collectors, compared case-insensitively.
// No names keeps every collector. Unknown names yield ErrUnknownSource.
func (r *Runner) Only(names ...string) (*Runner, error) {
	if len(names) == 0 {
		return r, nil
	}

	var kept []Collector

	seen := make(map[int]bool, len(names))

	for _, name := range names {
		i := slices.IndexFunc(r.collectors, func(c Collector) bool { return strings.EqualFold(c.Name(), strings.TrimSpace(name)) })
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
		}

		if !seen[i] {
			seen[i] = true
			kept = append(kept, r.collectors[i])
		}
	}

	out := *r
	out.collectors = kept

	return &out, nil
}

// Run collects every source in order. A failing source is logged and skipped;
// cancellation of ctx aborts the run.
func (r *Runner) Run(ctx context.Context, q collector.Query) (*Result, error) {
	if len(r.collectors) == 0 {
		return nil, ErrNoCollectors
	}

	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Keywords:  q.Keywords,
	}

	log := r.log.With("run_id", res.RunID)
	log.Info("pipeline started", "sources", r.Sources(), "keywords", q.Keywords)

	var tables []*models.Table

	for _, c := range r.collectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sr := r.runSource(ctx, c, q)
		res.Sources = append(res.Sources, sr)

		if sr.Err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			log.Warn("source skipped", "source", sr.Name, "error", sr.Err)

			continue
		}

		log.Info("source complete", "source", sr.Name, "collected", sr.Raw, "rows", sr.Table.Len(), "duration", sr.Duration)

		if !sr.Table.Empty() {
			tables = append(tables, sr.Table)
		}
	}

	res.Combined = r.merger.Merge(tables, r.opts.PreserveColumns)
	res.Duration = time.Since(res.StartedAt)

	log.Info("pipeline complete", "records", res.Combined.Len(), "failed", len(res.Failed()), "duration", res.Duration)

	return res, nil
}

func (r *Runner) runSource(ctx context.Context, c Collector, q collector.Query) SourceResult {
	start := time.Now()
	sr := SourceResult{Name: c.Name()}

	raw, err := c.Collect(ctx, q)
	if err != nil {
		sr.Err = fmt.Errorf("collect %s: %w", sr.Name, err)
		sr.Duration = time.Since(start)

		return sr
	}

	sr.Raw = raw.Len()

	sr.Table, sr.Err = r.Process(raw, sr.Name, c.Hints())
	sr.Duration = time.Since(start)

	return sr
}

// Process standardizes one raw table and applies the optional preprocessing and annotation.
// Sentiment is scored on the standardized text; processed_text feeds keyword statistics.
func (r *Runner) Process(raw *models.Table, source string, hints normalizer.ColumnHints) (*models.Table, error) {
	table, err := r.processor.Process(raw, source, hints)
	if err != nil {
		return nil, fmt.Errorf("standardize %s: %w", source, err)
	}

	if table.Empty() {
		return table, nil
	}

	if r.opts.Preprocess {
		if table, err = r.text.PreprocessTable(table, models.ColumnText, models.ColumnProcessedText); err != nil {
			return nil, fmt.Errorf("preprocess %s: %w", source, err)
		}
	}

	if r.analyzer != nil {
		if table, err = r.analyzer.AnnotateTable(table, models.ColumnText); err != nil {
			return nil, fmt.Errorf("annotate %s: %w", source, err)
		}
	}

	return table, nil
}

// Merge combines already processed tables using the runner's merge mode.
func (r *Runner) Merge(tables []*models.Table) *models.Table {
	return r.merger.Merge(tables, r.opts.PreserveColumns)
}
