package normalizer

import (
	"errors"
	"testing"

	"spectra/internal/models"
)

func TestNewValidator(t *testing.T) {
	v := NewValidator()
	if v == nil {
		t.Fatal("NewValidator returned nil")
	}
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator()

	if err := v.Validate(models.NewTable("text"), "Flickr"); err != nil {
		t.Errorf("Validate returned unexpected error for valid input: %v", err)
	}
}

func TestValidator_Validate_Errors(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		table   *models.Table
		source  string
		wantErr error
	}{
		{
			name:    "Nil table",
			table:   nil,
			source:  "Flickr",
			wantErr: ErrNilTable,
		},
		{
			name:    "Empty source",
			table:   models.NewTable(),
			source:  "",
			wantErr: ErrMissingSource,
		},
		{
			name:    "Blank source",
			table:   models.NewTable(),
			source:  "   ",
			wantErr: ErrMissingSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.table, tt.source)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
