package analysis

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"strings"
	"sync"

	"github.com/jonreiter/govader"
)

// ErrInvalidLexiconEntry is returned for custom entries with an empty token or a non-finite score.
var ErrInvalidLexiconEntry = errors.New("invalid lexicon entry")

// Lexicon maps lowercase tokens to valence scores.
type Lexicon map[string]float64

// vader loads the VADER lexicon, emoji descriptions and rule constants once. Analyzers
// share the emoji and constant tables read-only and get their own lexicon copy.
var vader = sync.OnceValue(govader.NewSentimentIntensityAnalyzer)

// BaseLexicon returns a copy of the VADER lexicon.
func BaseLexicon() Lexicon {
	return maps.Clone(Lexicon(vader().Lexicon))
}

// With returns a copy of the lexicon with the overrides applied.
func (l Lexicon) With(overrides map[string]float64) Lexicon {
	out := maps.Clone(l)
	if out == nil {
		out = make(Lexicon, len(overrides))
	}

	for word, score := range overrides {
		out[strings.ToLower(word)] = score
	}

	return out
}

func validateEntries(custom map[string]float64) error {
	for word, score := range custom {
		if strings.TrimSpace(word) == "" {
			return fmt.Errorf("%w: empty token", ErrInvalidLexiconEntry)
		}

		if math.IsNaN(score) || math.IsInf(score, 0) {
			return fmt.Errorf("%w: %q has score %v", ErrInvalidLexiconEntry, word, score)
		}
	}

	return nil
}
