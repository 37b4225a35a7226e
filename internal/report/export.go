package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"spectra/internal/models"
	"spectra/internal/tableio"
	"spectra/pkg/utils"
)

// ErrUnknownFormat is returned for an output format Export cannot write.
var ErrUnknownFormat = errors.New("unknown output format")

var stringHelper = utils.NewStringHelper()

// Export formats.
const (
	FormatCSV      = "csv"
	FormatXLSX     = "xlsx"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Export writes table (and the markdown report, when requested) to dir as base.<ext>
// for every format, returning the paths written.
func Export(dir, base string, table *models.Table, markdown string, formats []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string

	for _, f := range formats {
		format := strings.ToLower(strings.TrimSpace(f))

		switch format {
		case FormatCSV, FormatXLSX, FormatJSON:
			path := filepath.Join(dir, base+"."+format)
			if err := tableio.WriteFile(path, table); err != nil {
				return written, fmt.Errorf("failed to export %s: %w", format, err)
			}

			written = append(written, path)
		case FormatMarkdown:
			path := filepath.Join(dir, base+".md")
			if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
				return written, fmt.Errorf("failed to write report: %w", err)
			}

			written = append(written, path)
		default:
			return written, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
		}
	}

	return written, nil
}
