package collector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"spectra/internal/config"
	"spectra/internal/logger"
	"spectra/internal/models"
	"spectra/internal/normalizer"
)

// nytPageSize is the fixed number of documents per article search page.
const nytPageSize = 10

var nytColumns = []string{
	"headline", "lead_paragraph", "abstract", "keywords", "pub_date",
	"url", "source", "document_type", "news_desk", "section_name",
}

// NYTCollector gathers New York Times articles through the article search API.
type NYTCollector struct {
	fetcher *Fetcher
	log     *logger.Logger
	baseURL string
	apiKey  string
}

// NewNYTCollector creates a NYT collector.
func NewNYTCollector(fetcher *Fetcher, cfg config.NYTConfig, log *logger.Logger) *NYTCollector {
	if log == nil {
		log = logger.Discard()
	}

	return &NYTCollector{
		fetcher: fetcher,
		log:     log.With("source", SourceNYT),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

func (c *NYTCollector) Name() string {
	return SourceNYT
}

// Hints points the standardizer at the lead paragraph and publication date.
func (c *NYTCollector) Hints() normalizer.ColumnHints {
	return normalizer.ColumnHints{Text: "lead_paragraph", Date: "pub_date"}
}

type nytArticle struct {
	Headline struct {
		Main string `json:"main"`
	} `json:"headline"`
	Keywords []struct {
		Value string `json:"value"`
	} `json:"keywords"`
	LeadParagraph string `json:"lead_paragraph"`
	Abstract      string `json:"abstract"`
	PubDate       string `json:"pub_date"`
	WebURL        string `json:"web_url"`
	Source        string `json:"source"`
	DocumentType  string `json:"document_type"`
	NewsDesk      string `json:"news_desk"`
	SectionName   string `json:"section_name"`
}

type nytSearchResponse struct {
	Status   string `json:"status"`
	Response struct {
		Docs []nytArticle `json:"docs"`
	} `json:"response"`
}

func (r nytSearchResponse) check() error {
	if r.Status != "" && r.Status != "OK" {
		return fmt.Errorf("%w: nyt status %s", ErrAPIFailure, r.Status)
	}

	return nil
}

// Collect searches each keyword up to MaxResults articles and drops repeated headlines,
// keeping the first occurrence. A keyword whose search fails is logged and skipped.
func (c *NYTCollector) Collect(ctx context.Context, q Query) (*models.Table, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("nyt: %w", ErrMissingAPIKey)
	}

	var rows []map[string]any

	for _, keyword := range q.Keywords {
		articles, err := c.search(ctx, keyword, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			c.log.Warn("article search failed", "keyword", keyword, "error", err)

			continue
		}

		for _, a := range articles {
			rows = append(rows, articleRow(a))
		}
	}

	table := models.NewTableFromRows(nytColumns, rows).DropDuplicates("headline")

	c.log.Info("nyt collection complete", "articles", table.Len(), "fetched", len(rows))

	return table, nil
}

func (c *NYTCollector) search(ctx context.Context, keyword string, q Query) ([]nytArticle, error) {
	var articles []nytArticle

	for page := 0; len(articles) < q.MaxResults; page++ {
		params := url.Values{}
		params.Set("q", keyword)
		params.Set("begin_date", q.Start.Format("20060102"))
		params.Set("end_date", q.End.Format("20060102"))
		params.Set("sort", "newest")
		params.Set("page", strconv.Itoa(page))
		params.Set("api-key", c.apiKey)

		var resp nytSearchResponse
		if err := c.fetcher.FetchJSON(ctx, c.baseURL+"?"+params.Encode(), &resp); err != nil {
			return nil, err
		}

		articles = append(articles, resp.Response.Docs...)

		if len(resp.Response.Docs) < nytPageSize {
			break
		}
	}

	if len(articles) > q.MaxResults {
		articles = articles[:q.MaxResults]
	}

	return articles, nil
}

func articleRow(a nytArticle) map[string]any {
	keywords := make([]string, 0, len(a.Keywords))
	for _, k := range a.Keywords {
		keywords = append(keywords, k.Value)
	}

	return map[string]any{
		"headline":       a.Headline.Main,
		"lead_paragraph": a.LeadParagraph,
		"abstract":       a.Abstract,
		"keywords":       strings.Join(keywords, ", "),
		"pub_date":       a.PubDate,
		"url":            a.WebURL,
		"source":         a.Source,
		"document_type":  a.DocumentType,
		"news_desk":      a.NewsDesk,
		"section_name":   a.SectionName,
	}
}
