package analysis

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

var wordPattern = regexp.MustCompile(`[a-zA-Z]+`)

// KeywordCount is a word and its frequency.
type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// ExtractKeywords returns up to n of the most frequent alphabetic words of at least
// minLength letters. Ties keep first-occurrence order.
func ExtractKeywords(text string, n, minLength int) []string {
	counts := WordFrequencies([]string{text}, minLength, false)
	if len(counts) > n {
		counts = counts[:max(n, 0)]
	}

	out := make([]string, len(counts))
	for i, c := range counts {
		out[i] = c.Word
	}

	return out
}

// WordFrequencies counts lowercase alphabetic words across texts, most frequent first.
// Ties keep first-occurrence order. With skipStopwords, stopwords are not counted.
func WordFrequencies(texts []string, minLength int, skipStopwords bool) []KeywordCount {
	index := make(map[string]int)

	var counts []KeywordCount

	for _, text := range texts {
		for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
			if len(w) < minLength || (skipStopwords && stopwords[w]) {
				continue
			}

			if i, ok := index[w]; ok {
				counts[i].Count++
				continue
			}

			index[w] = len(counts)
			counts = append(counts, KeywordCount{Word: w, Count: 1})
		}
	}

	slices.SortStableFunc(counts, func(a, b KeywordCount) int {
		return cmp.Compare(b.Count, a.Count)
	})

	return counts
}

// KeywordMatcher finds configured keywords in text in a single pass, case-insensitively.
// The underlying automaton keeps per-call state, so matches are serialized.
type KeywordMatcher struct {
	mu       sync.Mutex
	matcher  *ahocorasick.Matcher
	keywords []string
}

// NewKeywordMatcher builds a matcher over the given keywords. Blank keywords are ignored.
func NewKeywordMatcher(keywords []string) *KeywordMatcher {
	var kept []string

	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && !slices.Contains(kept, k) {
			kept = append(kept, k)
		}
	}

	m := &KeywordMatcher{keywords: kept}
	if len(kept) > 0 {
		m.matcher = ahocorasick.NewStringMatcher(kept)
	}

	return m
}

// Keywords returns the normalized keyword list.
func (m *KeywordMatcher) Keywords() []string {
	return slices.Clone(m.keywords)
}

// Match returns the keywords found in text, in keyword order.
func (m *KeywordMatcher) Match(text string) []string {
	if m.matcher == nil || text == "" {
		return nil
	}

	m.mu.Lock()
	hits := m.matcher.Match([]byte(strings.ToLower(text)))
	m.mu.Unlock()

	slices.Sort(hits)

	out := make([]string, 0, len(hits))
	for _, h := range slices.Compact(hits) {
		out = append(out, m.keywords[h])
	}

	return out
}

// Contains reports whether any keyword occurs in text.
func (m *KeywordMatcher) Contains(text string) bool {
	return len(m.Match(text)) > 0
}
