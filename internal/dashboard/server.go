// Package dashboard serves the pipeline over a small JSON API.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"spectra/internal/charts"
	"spectra/internal/collector"
	"spectra/internal/config"
	"spectra/internal/logger"
	"spectra/internal/pipeline"
	"spectra/internal/report"
	"spectra/internal/tableio"
)

const (
	shutdownTimeout = 10 * time.Second
	maxSamples      = 50
)

// Options holds the defaults applied when a request leaves a parameter out.
type Options struct {
	Defaults   collector.Query
	Interval   charts.Interval
	Addr       string
	SampleSize int
	Debug      bool
}

// Server exposes the pipeline over HTTP.
type Server struct {
	last   *pipeline.Result
	runner *pipeline.Runner
	log    *logger.Logger
	router *gin.Engine
	opts   Options
	mu     sync.RWMutex
}

// NewServer builds the router around runner.
func NewServer(runner *pipeline.Runner, opts Options, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}

	if opts.Interval == "" {
		opts.Interval = charts.Week
	}

	if opts.SampleSize <= 0 {
		opts.SampleSize = 5
	}

	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{runner: runner, opts: opts, log: log}

	router := gin.New()
	router.Use(gin.Recovery(), s.logRequests())

	router.GET("/healthz", s.health)
	router.GET("/api/analysis", s.analysis)
	router.GET("/api/export.csv", s.exportCSV)

	s.router = router

	return s
}

// Handler returns the HTTP handler, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("dashboard listening", "addr", s.opts.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down dashboard")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	return nil
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}

		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		s.log.Info("http request", args...)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sources": s.runner.Sources()})
}

// AnalysisResponse is the body of GET /api/analysis.
type AnalysisResponse struct {
	Charts   *charts.Set     `json:"charts,omitempty"`
	RunID    string          `json:"run_id"`
	Keywords []string        `json:"keywords"`
	Failed   []string        `json:"failed,omitempty"`
	Samples  []report.Sample `json:"samples"`
	Summary  report.Summary  `json:"summary"`
	Duration string          `json:"duration"`
}

func (s *Server) analysis(c *gin.Context) {
	q, err := s.query(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	interval := s.opts.Interval
	if raw := c.Query("interval"); raw != "" {
		if interval, err = charts.ParseInterval(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	kind := report.SampleMostPositive
	if raw := c.Query("samples"); raw != "" {
		if kind, err = report.ParseSampleKind(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	size := s.opts.SampleSize
	if raw := c.Query("sample_size"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid sample_size %q", raw)})
			return
		}

		size = min(n, maxSamples)
	}

	runner, err := s.runner.Only(splitList(c.Query("sources"))...)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := runner.Run(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()

	resp := AnalysisResponse{
		RunID:    res.RunID,
		Keywords: q.Keywords,
		Summary:  report.Summarize(res.Combined),
		Duration: res.Duration.String(),
		Samples:  []report.Sample{},
	}

	for _, f := range res.Failed() {
		resp.Failed = append(resp.Failed, f.Err.Error())
	}

	if !res.Combined.Empty() {
		if resp.Charts, err = charts.Build(res.Combined, charts.Options{Interval: interval, Keywords: q.Keywords}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if resp.Samples, err = report.Samples(res.Combined, kind, size, uint64(res.StartedAt.UnixNano())); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) exportCSV(c *gin.Context) {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	if last == nil || last.Combined.Empty() {
		c.JSON(http.StatusNotFound, gin.H{"error": "no analysis has been run yet"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="spectra_sentiment_data.csv"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	if err := tableio.WriteCSV(c.Writer, last.Combined); err != nil {
		_ = c.Error(err)
	}
}

// query builds the collection query from request parameters over the server defaults.
func (s *Server) query(c *gin.Context) (collector.Query, error) {
	q := s.opts.Defaults
	q.Keywords = append([]string(nil), q.Keywords...)

	if kw := splitList(c.Query("keywords")); len(kw) > 0 {
		q.Keywords = kw
	}

	if raw := c.Query("start"); raw != "" {
		start, err := time.Parse(config.DateLayout, raw)
		if err != nil {
			return q, fmt.Errorf("invalid start date %q", raw)
		}

		q.Start = start
	}

	if raw := c.Query("end"); raw != "" {
		end, err := time.Parse(config.DateLayout, raw)
		if err != nil {
			return q, fmt.Errorf("invalid end date %q", raw)
		}

		q.End = end.Add(24*time.Hour - time.Nanosecond)
	}

	if !q.Start.IsZero() && !q.End.IsZero() && q.End.Before(q.Start) {
		return q, errors.New("end date is before start date")
	}

	if raw := c.Query("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return q, fmt.Errorf("invalid max_results %q", raw)
		}

		q.MaxResults = n
	}

	if len(q.Keywords) == 0 {
		return q, errors.New("at least one keyword is required")
	}

	return q, nil
}

func splitList(raw string) []string {
	var out []string

	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
