package collector

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"spectra/pkg/utils"
)

var (
	commentURLPattern = regexp.MustCompile(`https?://\S+`)

	blockTags = map[string]bool{
		"br": true, "p": true, "div": true, "li": true, "ul": true, "ol": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "blockquote": true, "tr": true,
	}

	skipTags = map[string]bool{"script": true, "style": true, "noscript": true}

	stringHelper = utils.NewStringHelper()
)

// CleanHTML unescapes entities, strips markup and collapses whitespace. Block elements
// separate words so "<p>a</p><p>b</p>" becomes "a b".
func CleanHTML(content string) string {
	return stripMarkup(html.UnescapeString(content))
}

func stripMarkup(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return stringHelper.NormalizeWhitespace(content)
	}

	var b strings.Builder
	collectText(doc.Selection, &b)

	return stringHelper.NormalizeWhitespace(b.String())
}

func collectText(sel *goquery.Selection, b *strings.Builder) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)

		switch {
		case name == "#text":
			b.WriteString(s.Text())
		case skipTags[name]:
		case blockTags[name]:
			b.WriteString(" ")
			collectText(s, b)
			b.WriteString(" ")
		default:
			collectText(s, b)
		}
	})
}

// CleanComment prepares user comment text: markup and URLs are removed, non-ASCII
// characters dropped and whitespace collapsed. Results of three characters or fewer
// are rejected with ok=false.
func CleanComment(text string) (string, bool) {
	cleaned := commentURLPattern.ReplaceAllString(html.UnescapeString(text), "")
	cleaned = stripMarkup(cleaned)
	cleaned = stringHelper.NormalizeWhitespace(stringHelper.StripNonASCII(cleaned))

	if len(cleaned) <= 3 {
		return "", false
	}

	return cleaned, true
}
