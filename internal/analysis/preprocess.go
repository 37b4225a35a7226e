package analysis

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/divan/num2words"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"spectra/internal/models"
)

var urlPattern = regexp.MustCompile(`https?\S+|www\S+`)

// The English dictionary is embedded in the module, so loading only fails on a broken build.
var lemmatizer = sync.OnceValue(func() *golem.Lemmatizer {
	l, err := golem.New(en.New())
	if err != nil {
		panic(fmt.Sprintf("analysis: load english lemma dictionary: %v", err))
	}

	return l
})

// ProcessOptions toggles optional preprocessing steps.
type ProcessOptions struct {
	KeepStopwords bool
	KeepNumbers   bool
	// Lemmatize reduces each kept token to its dictionary form ("running" becomes "run").
	Lemmatize bool
}

// TextProcessor cleans free text for analysis: URLs are removed, contractions
// expanded, accents folded to ASCII, punctuation stripped, numbers spelled out,
// stopwords dropped and the remaining tokens lemmatized.
type TextProcessor struct {
	opts ProcessOptions
}

// NewTextProcessor creates a processor with every step enabled.
func NewTextProcessor() *TextProcessor {
	return &TextProcessor{opts: ProcessOptions{Lemmatize: true}}
}

// NewTextProcessorWithOptions creates a processor with the given options.
func NewTextProcessorWithOptions(opts ProcessOptions) *TextProcessor {
	return &TextProcessor{opts: opts}
}

// Preprocess returns the cleaned, space-joined tokens of text.
func (p *TextProcessor) Preprocess(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	text = urlPattern.ReplaceAllString(text, "")
	text = expandContractions(text)
	text = foldASCII(text)

	var tokens []string

	for _, field := range strings.Fields(strings.ToLower(text)) {
		token := stripPunctuation(field)
		if token == "" {
			continue
		}

		if !p.opts.KeepNumbers && isDigits(token) {
			token = numberToWords(token)
		}

		if !p.opts.KeepStopwords && stopwords[token] {
			continue
		}

		if p.opts.Lemmatize {
			token = lemmatizer().Lemma(token)
		}

		tokens = append(tokens, token)
	}

	return strings.Join(tokens, " ")
}

// PreprocessTable returns a copy of table with outColumn holding the preprocessed
// contents of textColumn. An empty outColumn overwrites textColumn.
func (p *TextProcessor) PreprocessTable(table *models.Table, textColumn, outColumn string) (*models.Table, error) {
	if table == nil {
		return nil, ErrNilTable
	}

	if !table.Has(textColumn) {
		return nil, fmt.Errorf("%w: %s", models.ErrMissingColumn, textColumn)
	}

	if outColumn == "" {
		outColumn = textColumn
	}

	values := table.Column(textColumn)
	for i, v := range values {
		values[i] = p.Preprocess(models.AsString(v))
	}

	return table.WithColumn(outColumn, values)
}

// foldASCII decomposes accented characters and drops everything outside ASCII.
func foldASCII(s string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)

	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}

	return out
}

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}

		return -1
	}, s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return s != ""
}

var contractions = map[string]string{
	"ain't": "am not", "aren't": "are not", "can't": "cannot", "couldn't": "could not",
	"didn't": "did not", "doesn't": "does not", "don't": "do not", "hadn't": "had not",
	"hasn't": "has not", "haven't": "have not", "he'd": "he would", "he'll": "he will",
	"he's": "he is", "i'd": "i would", "i'll": "i will", "i'm": "i am", "i've": "i have",
	"isn't": "is not", "it'd": "it would", "it'll": "it will", "it's": "it is",
	"let's": "let us", "mightn't": "might not", "mustn't": "must not", "shan't": "shall not",
	"she'd": "she would", "she'll": "she will", "she's": "she is", "shouldn't": "should not",
	"that's": "that is", "there's": "there is", "they'd": "they would", "they'll": "they will",
	"they're": "they are", "they've": "they have", "wasn't": "was not", "we'd": "we would",
	"we'll": "we will", "we're": "we are", "we've": "we have", "weren't": "were not",
	"what's": "what is", "where's": "where is", "who's": "who is", "won't": "will not",
	"wouldn't": "would not", "you'd": "you would", "you'll": "you will", "you're": "you are",
	"you've": "you have", "y'all": "you all",
}

func expandContractions(text string) string {
	fields := strings.Fields(strings.ReplaceAll(text, "’", "'"))

	for i, f := range fields {
		core := strings.TrimFunc(f, func(r rune) bool {
			return r != '\'' && !unicode.IsLetter(r)
		})

		if exp, ok := contractions[strings.ToLower(core)]; ok {
			fields[i] = strings.Replace(f, core, exp, 1)
		}
	}

	return strings.Join(fields, " ")
}

// numberToWords spells out a decimal digit string. Values too large to spell are returned unchanged.
func numberToWords(digits string) string {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n >= 1_000_000_000_000 {
		return digits
	}

	return num2words.ConvertAnd(int(n))
}
