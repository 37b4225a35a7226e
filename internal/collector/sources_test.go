package collector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"spectra/internal/config"
)

func testQuery(keywords ...string) Query {
	return Query{
		Keywords:   keywords,
		Start:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
		MaxResults: 15,
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestFlickrCollector_Collect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if q.Get("api_key") != "key" || q.Get("format") != "json" || q.Get("nojsoncallback") != "1" {
			t.Errorf("unexpected common params: %s", r.URL.RawQuery)
		}

		switch q.Get("method") {
		case "flickr.photos.search":
			// Both keywords return photo 1, which must be fetched once.
			photos := []map[string]string{{"id": "1"}}
			if q.Get("tags") == "gaza" {
				photos = append(photos, map[string]string{"id": "2"})
			}

			writeJSON(t, w, map[string]any{"stat": "ok", "photos": map[string]any{"photo": photos}})
		case "flickr.photos.comments.getList":
			switch q.Get("photo_id") {
			case "1":
				writeJSON(t, w, map[string]any{"stat": "ok", "comments": map[string]any{"comment": []map[string]string{
					{"authorname": "alice", "datecreate": "1704067200", "_content": "Heartbreaking &amp; powerful image"},
					{"authorname": "bob", "datecreate": "1704153600", "_content": "wow"},
				}}})
			default:
				writeJSON(t, w, map[string]any{"stat": "fail", "code": 1, "message": "Photo not found"})
			}
		default:
			t.Errorf("unexpected method %q", q.Get("method"))
		}
	}))
	defer server.Close()

	c := NewFlickrCollector(
		NewFetcher(FetcherOptions{Retry: fastRetry()}),
		config.FlickrConfig{BaseURL: server.URL, APIKey: "key"},
		nil,
	)

	table, err := c.Collect(context.Background(), testQuery("gaza", "peace"))
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if got := table.Columns(); !slices.Equal(got, []string{"photo_id", "author", "date", "comment_text"}) {
		t.Errorf("Columns = %v", got)
	}

	// Photo 1 yields one comment (the short one is dropped); photo 2 fails and is skipped.
	if table.Len() != 1 {
		t.Fatalf("Len = %d, want 1", table.Len())
	}

	if got := table.Value(0, "comment_text"); got != "Heartbreaking & powerful image" {
		t.Errorf("comment_text = %v", got)
	}

	if got := table.Value(0, "date"); got != "2024-01-01" {
		t.Errorf("date = %v, want 2024-01-01", got)
	}

	if got := table.Value(0, "author"); got != "alice" {
		t.Errorf("author = %v, want alice", got)
	}
}

func TestFlickrCollector_SearchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"stat": "fail", "code": 100, "message": "Invalid API Key"})
	}))
	defer server.Close()

	c := NewFlickrCollector(
		NewFetcher(FetcherOptions{Retry: fastRetry()}),
		config.FlickrConfig{BaseURL: server.URL, APIKey: "bad"},
		nil,
	)

	if _, err := c.Collect(context.Background(), testQuery("gaza")); !errors.Is(err, ErrAPIFailure) {
		t.Errorf("error = %v, want ErrAPIFailure", err)
	}
}

func TestFlickrCollector_FailureNotReplayedFromCache(t *testing.T) {
	mr := miniredis.RunT(t)

	cache, err := NewRedisCache(context.Background(), RedisOptions{Address: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisCache failed: %v", err)
	}
	defer cache.Close()

	var healthy atomic.Bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			writeJSON(t, w, map[string]any{"stat": "fail", "code": 105, "message": "Service currently unavailable"})
			return
		}

		switch r.URL.Query().Get("method") {
		case "flickr.photos.search":
			writeJSON(t, w, map[string]any{"stat": "ok", "photos": map[string]any{"photo": []map[string]string{{"id": "7"}}}})
		case "flickr.photos.comments.getList":
			writeJSON(t, w, map[string]any{"stat": "ok", "comments": map[string]any{"comment": []map[string]string{
				{"authorname": "carol", "datecreate": "1704067200", "_content": "Such a moving photo"},
			}}})
		}
	}))
	defer server.Close()

	c := NewFlickrCollector(
		NewFetcher(FetcherOptions{Retry: fastRetry(), Cache: cache, CacheTTL: time.Hour}),
		config.FlickrConfig{BaseURL: server.URL, APIKey: "key"},
		nil,
	)

	if _, err := c.Collect(context.Background(), testQuery("gaza")); !errors.Is(err, ErrAPIFailure) {
		t.Fatalf("error = %v, want ErrAPIFailure", err)
	}

	healthy.Store(true)

	table, err := c.Collect(context.Background(), testQuery("gaza"))
	if err != nil {
		t.Fatalf("Collect after recovery failed: %v", err)
	}

	if table.Len() != 1 {
		t.Fatalf("Len = %d, want 1", table.Len())
	}

	if got := table.Value(0, "author"); got != "carol" {
		t.Errorf("author = %v, want carol", got)
	}
}

func TestCollectors_MissingAPIKey(t *testing.T) {
	f := NewFetcher(FetcherOptions{Retry: fastRetry()})

	if _, err := NewFlickrCollector(f, config.FlickrConfig{}, nil).Collect(context.Background(), testQuery("x")); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("flickr error = %v, want ErrMissingAPIKey", err)
	}

	if _, err := NewNYTCollector(f, config.NYTConfig{}, nil).Collect(context.Background(), testQuery("x")); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("nyt error = %v, want ErrMissingAPIKey", err)
	}
}

func TestNYTCollector_Collect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if q.Get("begin_date") != "20240101" || q.Get("end_date") != "20240131" || q.Get("sort") != "newest" {
			t.Errorf("unexpected params: %s", r.URL.RawQuery)
		}

		if q.Get("q") == "broken" {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		page, _ := strconv.Atoi(q.Get("page"))

		// Ten docs on page 0 and three on page 1. Headlines repeat across keywords.
		count := 10
		if page > 0 {
			count = 3
		}

		docs := make([]map[string]any, count)
		for i := range docs {
			n := page*10 + i
			docs[i] = map[string]any{
				"headline":       map[string]string{"main": "Headline " + strconv.Itoa(n)},
				"lead_paragraph": "Lead " + q.Get("q"),
				"pub_date":       "2024-01-15T10:00:00+0000",
				"web_url":        "https://nytimes.com/" + strconv.Itoa(n),
				"keywords":       []map[string]string{{"value": "Gaza"}, {"value": "Israel"}},
			}
		}

		writeJSON(t, w, map[string]any{"status": "OK", "response": map[string]any{"docs": docs}})
	}))
	defer server.Close()

	c := NewNYTCollector(
		NewFetcher(FetcherOptions{Retry: fastRetry()}),
		config.NYTConfig{BaseURL: server.URL, APIKey: "key"},
		nil,
	)

	table, err := c.Collect(context.Background(), testQuery("gaza", "broken", "israel"))
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	// Each working keyword yields 13 docs and the last keyword only repeats headlines.
	if table.Len() != 13 {
		t.Fatalf("Len = %d, want 13", table.Len())
	}

	if got := table.Value(0, "lead_paragraph"); got != "Lead gaza" {
		t.Errorf("first occurrence not kept: %v", got)
	}

	if got := table.Value(0, "keywords"); got != "Gaza, Israel" {
		t.Errorf("keywords = %v", got)
	}

	if hints := c.Hints(); hints.Text != "lead_paragraph" || hints.Date != "pub_date" {
		t.Errorf("Hints = %+v", hints)
	}
}

func TestNYTCollector_MaxResults(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))

		docs := make([]map[string]any, 10)
		for i := range docs {
			docs[i] = map[string]any{"headline": map[string]string{"main": strconv.Itoa(page*10 + i)}}
		}

		writeJSON(t, w, map[string]any{"status": "OK", "response": map[string]any{"docs": docs}})
	}))
	defer server.Close()

	c := NewNYTCollector(
		NewFetcher(FetcherOptions{Retry: fastRetry()}),
		config.NYTConfig{BaseURL: server.URL, APIKey: "key"},
		nil,
	)

	q := testQuery("gaza")
	q.MaxResults = 15

	table, err := c.Collect(context.Background(), q)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if table.Len() != 15 {
		t.Errorf("Len = %d, want 15", table.Len())
	}

	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2 pages", got)
	}
}

const redditCSV = `self_text,created_time,author,score
Praying for peace in Gaza,2024-01-05 10:00:00,u1,10
Unrelated post about cats,2024-01-06 10:00:00,u2,3
Israel and Palestine talks resume,2023-12-31 23:00:00,u3,7
GAZA aid convoy arrives,2024-01-20 08:30:00,u4,12
,2024-01-21 08:30:00,u5,1
Gaza update,not a date,u6,2
`

func TestRedditCollector_Collect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reddit.csv")
	if err := os.WriteFile(path, []byte(redditCSV), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	c := NewRedditCollector(config.RedditConfig{File: path}, nil)

	table, err := c.Collect(context.Background(), testQuery("gaza", "palestine"))
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if got := table.Columns(); !slices.Equal(got, []string{"self_text", "created_time", "author"}) {
		t.Errorf("Columns = %v", got)
	}

	if table.Len() != 2 {
		t.Fatalf("Len = %d, want 2", table.Len())
	}

	if got := table.Value(1, "self_text"); got != "GAZA aid convoy arrives" {
		t.Errorf("row 1 = %v", got)
	}
}

func TestRedditCollector_MissingFile(t *testing.T) {
	c := NewRedditCollector(config.RedditConfig{File: "/nonexistent/reddit.csv"}, nil)

	if _, err := c.Collect(context.Background(), testQuery("gaza")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestQueryFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	q, err := QueryFromConfig(cfg)
	if err != nil {
		t.Fatalf("QueryFromConfig failed: %v", err)
	}

	if len(q.Keywords) != len(config.DefaultKeywords) || q.MaxResults != 100 {
		t.Errorf("unexpected query %+v", q)
	}

	if !q.Start.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Start = %v", q.Start)
	}
}
