package normalizer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrUnparsableDate is returned when a date cell cannot be converted to a timestamp.
var ErrUnparsableDate = errors.New("unparsable date")

// ParseDate converts one cell to a timestamp. Integers are unix seconds and strings
// without a zone are read as UTC.
func ParseDate(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, fmt.Errorf("%w: zero time", ErrUnparsableDate)
		}

		return x, nil
	case int:
		return time.Unix(int64(x), 0).UTC(), nil
	case int64:
		return time.Unix(x, 0).UTC(), nil
	case float64:
		return time.Unix(int64(x), 0).UTC(), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, fmt.Errorf("%w: empty string", ErrUnparsableDate)
		}

		ts, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q: %w", ErrUnparsableDate, s, err)
		}

		return ts, nil
	}

	return time.Time{}, fmt.Errorf("%w: %T", ErrUnparsableDate, v)
}

// parseDateColumn parses every value or reports the first failure.
func parseDateColumn(values []any) ([]any, error) {
	out := make([]any, len(values))

	for i, v := range values {
		ts, err := ParseDate(v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		out[i] = ts
	}

	return out, nil
}
