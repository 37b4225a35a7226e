package collector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"spectra/internal/config"
	"spectra/internal/logger"
	"spectra/internal/models"
	"spectra/internal/normalizer"
)

// Flickr comment table columns.
var flickrColumns = []string{"photo_id", "author", "date", "comment_text"}

// FlickrCollector gathers comments on photos tagged with the query keywords.
type FlickrCollector struct {
	fetcher *Fetcher
	log     *logger.Logger
	baseURL string
	apiKey  string
}

// NewFlickrCollector creates a Flickr collector.
func NewFlickrCollector(fetcher *Fetcher, cfg config.FlickrConfig, log *logger.Logger) *FlickrCollector {
	if log == nil {
		log = logger.Discard()
	}

	return &FlickrCollector{
		fetcher: fetcher,
		log:     log.With("source", SourceFlickr),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

func (c *FlickrCollector) Name() string {
	return SourceFlickr
}

// Hints returns the column hints for Flickr tables; the defaults already match.
func (c *FlickrCollector) Hints() normalizer.ColumnHints {
	return normalizer.ColumnHints{}
}

type flickrStatus struct {
	Stat    string `json:"stat"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s flickrStatus) check() error {
	if s.Stat == "ok" {
		return nil
	}

	return fmt.Errorf("%w: flickr %d %s", ErrAPIFailure, s.Code, s.Message)
}

type flickrSearchResponse struct {
	flickrStatus
	Photos struct {
		Photo []struct {
			ID string `json:"id"`
		} `json:"photo"`
	} `json:"photos"`
}

type flickrCommentsResponse struct {
	flickrStatus
	Comments struct {
		Comment []struct {
			AuthorName string `json:"authorname"`
			DateCreate string `json:"datecreate"`
			Content    string `json:"_content"`
		} `json:"comment"`
	} `json:"comments"`
}

// Collect searches photos per keyword, de-duplicates their IDs and fetches each photo's
// comments. Photos whose comments cannot be fetched are logged and skipped.
func (c *FlickrCollector) Collect(ctx context.Context, q Query) (*models.Table, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("flickr: %w", ErrMissingAPIKey)
	}

	var photoIDs []string

	seen := make(map[string]bool)

	for _, keyword := range q.Keywords {
		ids, err := c.searchPhotos(ctx, keyword, q)
		if err != nil {
			return nil, fmt.Errorf("flickr search %q: %w", keyword, err)
		}

		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				photoIDs = append(photoIDs, id)
			}
		}
	}

	var rows []map[string]any

	for _, id := range photoIDs {
		comments, err := c.fetchComments(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			c.log.Warn("failed to fetch comments", "photo_id", id, "error", err)

			continue
		}

		rows = append(rows, comments...)
	}

	c.log.Info("flickr collection complete", "photos", len(photoIDs), "comments", len(rows))

	return models.NewTableFromRows(flickrColumns, rows), nil
}

func (c *FlickrCollector) searchPhotos(ctx context.Context, keyword string, q Query) ([]string, error) {
	params := c.params("flickr.photos.search")
	params.Set("tags", keyword)
	params.Set("tag_mode", "all")
	params.Set("min_upload_date", strconv.FormatInt(q.Start.Unix(), 10))
	params.Set("max_upload_date", strconv.FormatInt(q.End.Unix(), 10))
	params.Set("per_page", strconv.Itoa(q.MaxResults))
	params.Set("sort", "date-posted-desc")
	params.Set("extras", "date_upload")

	var resp flickrSearchResponse
	if err := c.fetcher.FetchJSON(ctx, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Photos.Photo))
	for _, p := range resp.Photos.Photo {
		ids = append(ids, p.ID)
	}

	return ids, nil
}

func (c *FlickrCollector) fetchComments(ctx context.Context, photoID string) ([]map[string]any, error) {
	params := c.params("flickr.photos.comments.getList")
	params.Set("photo_id", photoID)

	var resp flickrCommentsResponse
	if err := c.fetcher.FetchJSON(ctx, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	var rows []map[string]any

	for _, comment := range resp.Comments.Comment {
		text, ok := CleanComment(comment.Content)
		if !ok {
			continue
		}

		created, _ := strconv.ParseInt(comment.DateCreate, 10, 64)

		rows = append(rows, map[string]any{
			"photo_id":     photoID,
			"author":       comment.AuthorName,
			"date":         time.Unix(created, 0).UTC().Format(config.DateLayout),
			"comment_text": text,
		})
	}

	return rows, nil
}

func (c *FlickrCollector) params(method string) url.Values {
	params := url.Values{}
	params.Set("method", method)
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")
	params.Set("nojsoncallback", "1")

	return params
}
