package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/raphaelgruber/studybuddy/internal/models"
	"github.com/raphaelgruber/studybuddy/internal/service"
)

// uploadRequest is the JSON form of an upload. Multipart uploads carry the
// same fields as form values plus the file itself.
type uploadRequest struct {
	CourseName     string `json:"course_name" form:"course_name"`
	WeekNumber     *int   `json:"week_number" form:"week_number"`
	TranscriptName string `json:"transcript_name" form:"transcript_name"`
	Text           string `json:"text"`
}

func (s *Server) handleUpload(c echo.Context) error {
	var req uploadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request", err))
	}

	// Multipart uploads deliver the transcript as a file part.
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody("cannot read file", err))
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody("cannot read file", err))
		}
		req.Text = string(data)
		if req.TranscriptName == "" {
			req.TranscriptName = file.Filename
		}
	}

	rec, err := s.ingest.Ingest(c.Request().Context(), service.IngestInput{
		CourseName:     req.CourseName,
		WeekNumber:     req.WeekNumber,
		TranscriptName: req.TranscriptName,
		Text:           req.Text,
	})
	if err != nil {
		return ingestError(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (s *Server) handleListTranscripts(c echo.Context) error {
	filter := models.TranscriptFilter{CourseName: c.QueryParam("course")}
	if w := c.QueryParam("week"); w != "" {
		week, err := strconv.Atoi(w)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody("invalid week", err))
		}
		filter.WeekNumber = &week
	}

	recs, err := s.catalog.ListTranscripts(c.Request().Context(), filter)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, recs)
}

func (s *Server) handleGetTranscript(c echo.Context) error {
	rec, err := s.catalog.GetTranscript(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDeleteTranscript(c echo.Context) error {
	err := s.ingest.Delete(c.Request().Context(), c.Param("id"))
	if errors.Is(err, models.ErrCleanupPending) {
		// Metadata is gone; vectors await the next purge.
		return c.JSON(http.StatusAccepted, map[string]string{
			"status": "cleanup_pending",
			"detail": err.Error(),
		})
	}
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleResume(c echo.Context) error {
	rec, err := s.ingest.Resume(c.Request().Context(), c.Param("id"))
	if err != nil {
		return ingestError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handlePurge(c echo.Context) error {
	purged, err := s.ingest.PurgeOrphans(c.Request().Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"purged": purged})
}

func (s *Server) handleListCourses(c echo.Context) error {
	courses, err := s.catalog.ListCourses(c.Request().Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, courses)
}

func (s *Server) handleListWeeks(c echo.Context) error {
	weeks, err := s.catalog.ListWeeks(c.Request().Context(), c.Param("course"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, weeks)
}

func (s *Server) handleQuery(c echo.Context) error {
	var req service.QueryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request", err))
	}

	resp, err := s.query.Query(c.Request().Context(), req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func errorBody(msg string, err error) map[string]string {
	return map[string]string{"error": msg, "details": err.Error()}
}

// serviceError maps the pipeline error taxonomy onto HTTP statuses, telling
// the caller whether retrying is expected to help.
func serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, errorBody("invalid input", err))
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody("not found", err))
	case errors.Is(err, models.ErrInsufficientContext):
		return c.JSON(http.StatusUnprocessableEntity, errorBody("not enough information in the selected scope", err))
	case errors.Is(err, models.ErrProviderUnavailable):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error":     "provider unavailable",
			"details":   err.Error(),
			"retryable": "true",
		})
	default:
		return c.JSON(http.StatusInternalServerError, errorBody("internal error", err))
	}
}

// ingestError additionally surfaces the failed stage for resumable failures.
func ingestError(c echo.Context, err error) error {
	var failure *models.IngestFailure
	if errors.As(err, &failure) {
		status := http.StatusInternalServerError
		if failure.Retryable() {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, map[string]any{
			"error":      "ingestion failed",
			"transcript": failure.TranscriptID,
			"stage":      failure.Stage,
			"retryable":  failure.Retryable(),
			"details":    failure.Err.Error(),
		})
	}
	return serviceError(c, err)
}
