package normalizer

import (
	"errors"
	"strings"

	"spectra/internal/models"
)

// Validation errors.
var (
	ErrNilTable      = errors.New("invalid table: nil")
	ErrMissingSource = errors.New("missing source name")
)

// Validator handles input validation before standardization.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks that the table and source are usable.
// Missing text or date columns are not errors; the standardizer substitutes defaults.
func (v *Validator) Validate(table *models.Table, source string) error {
	if table == nil {
		return ErrNilTable
	}

	if strings.TrimSpace(source) == "" {
		return ErrMissingSource
	}

	return nil
}
