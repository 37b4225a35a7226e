// Package normalizer standardizes heterogeneous source tables onto the canonical
// text/date/source shape and merges them into one analyzable table.
package normalizer

import (
	"fmt"

	"spectra/internal/models"
)

// Processor validates and standardizes one collected table.
type Processor struct {
	validator    *Validator
	standardizer *Standardizer
}

// NewProcessor creates a new processor instance.
func NewProcessor() *Processor {
	return NewProcessorWithStandardizer(NewStandardizer())
}

// NewProcessorWithStandardizer creates a processor around an existing standardizer.
func NewProcessorWithStandardizer(s *Standardizer) *Processor {
	return &Processor{
		validator:    NewValidator(),
		standardizer: s,
	}
}

// Process transforms a raw source table into the canonical shape.
func (p *Processor) Process(table *models.Table, source string, hints ColumnHints) (*models.Table, error) {
	if err := p.validator.Validate(table, source); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	standardized, err := p.standardizer.Standardize(table, source, hints)
	if err != nil {
		return nil, fmt.Errorf("standardization failed: %w", err)
	}

	return standardized, nil
}
