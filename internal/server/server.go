// Package server exposes the upload and query boundaries as a JSON HTTP API.
package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/raphaelgruber/studybuddy/internal/db"
	"github.com/raphaelgruber/studybuddy/internal/metrics"
	"github.com/raphaelgruber/studybuddy/internal/models"
	"github.com/raphaelgruber/studybuddy/internal/service"
)

// Ingestor is the upload-side pipeline the server dispatches to.
type Ingestor interface {
	Ingest(ctx context.Context, in service.IngestInput) (*models.TranscriptRecord, error)
	Resume(ctx context.Context, transcriptID string) (*models.TranscriptRecord, error)
	Delete(ctx context.Context, transcriptID string) error
	PurgeOrphans(ctx context.Context) (int, error)
}

// Querier is the query-side pipeline.
type Querier interface {
	Query(ctx context.Context, req service.QueryRequest) (*models.GeneratedResponse, error)
}

// Catalog lists what has been ingested.
type Catalog interface {
	GetTranscript(ctx context.Context, id string) (*models.TranscriptRecord, error)
	ListTranscripts(ctx context.Context, filter models.TranscriptFilter) ([]models.TranscriptRecord, error)
	ListCourses(ctx context.Context) ([]db.CourseCount, error)
	ListWeeks(ctx context.Context, courseName string) ([]int, error)
}

var _ Catalog = (*db.Client)(nil)

// Server is the HTTP API server.
type Server struct {
	echo      *echo.Echo
	ingest    Ingestor
	query     Querier
	catalog   Catalog
	collector *metrics.Collector
}

// New creates the server and registers all routes.
func New(ingest Ingestor, query Querier, catalog Catalog, collector *metrics.Collector) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(requestLogger())

	s := &Server{
		echo:      e,
		ingest:    ingest,
		query:     query,
		catalog:   catalog,
		collector: collector,
	}

	e.GET("/healthz", s.handleHealth)
	e.GET("/stats", s.handleStats)

	e.POST("/api/transcripts", s.handleUpload)
	e.GET("/api/transcripts", s.handleListTranscripts)
	e.GET("/api/transcripts/:id", s.handleGetTranscript)
	e.DELETE("/api/transcripts/:id", s.handleDeleteTranscript)
	e.POST("/api/transcripts/:id/resume", s.handleResume)
	e.POST("/api/purge", s.handlePurge)

	e.GET("/api/courses", s.handleListCourses)
	e.GET("/api/courses/:course/weeks", s.handleListWeeks)

	e.POST("/api/query", s.handleQuery)

	return s
}

// Echo returns the underlying router, used by handler tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start listens on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.collector.Snapshot())
}
