package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/raphaelgruber/studybuddy/internal/db"
	"github.com/raphaelgruber/studybuddy/internal/models"
	"github.com/raphaelgruber/studybuddy/internal/service"
)

type stubIngestor struct {
	ingestErr error
	deleteErr error
	lastInput service.IngestInput
}

func (s *stubIngestor) Ingest(_ context.Context, in service.IngestInput) (*models.TranscriptRecord, error) {
	s.lastInput = in
	if s.ingestErr != nil {
		return nil, s.ingestErr
	}
	return &models.TranscriptRecord{
		ID:             "t1",
		CourseName:     in.CourseName,
		WeekNumber:     in.WeekNumber,
		TranscriptName: in.TranscriptName,
		Status:         models.StatusComplete,
	}, nil
}

func (s *stubIngestor) Resume(_ context.Context, id string) (*models.TranscriptRecord, error) {
	return &models.TranscriptRecord{ID: id, Status: models.StatusComplete}, nil
}

func (s *stubIngestor) Delete(context.Context, string) error {
	return s.deleteErr
}

func (s *stubIngestor) PurgeOrphans(context.Context) (int, error) {
	return 2, nil
}

type stubQuerier struct {
	err      error
	lastReq  service.QueryRequest
	response *models.GeneratedResponse
}

func (s *stubQuerier) Query(_ context.Context, req service.QueryRequest) (*models.GeneratedResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

type stubCatalog struct {
	transcripts []models.TranscriptRecord
}

func (s *stubCatalog) GetTranscript(_ context.Context, id string) (*models.TranscriptRecord, error) {
	for _, rec := range s.transcripts {
		if rec.ID == id {
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("transcript %s: %w", id, models.ErrNotFound)
}

func (s *stubCatalog) ListTranscripts(context.Context, models.TranscriptFilter) ([]models.TranscriptRecord, error) {
	return s.transcripts, nil
}

func (s *stubCatalog) ListCourses(context.Context) ([]db.CourseCount, error) {
	return []db.CourseCount{{CourseName: "ML101", Count: 3}}, nil
}

func (s *stubCatalog) ListWeeks(context.Context, string) ([]int, error) {
	return []int{1, 2}, nil
}

func newTestServer(ingest *stubIngestor, query *stubQuerier, catalog *stubCatalog) *Server {
	if ingest == nil {
		ingest = &stubIngestor{}
	}
	if query == nil {
		query = &stubQuerier{response: &models.GeneratedResponse{Text: "answer"}}
	}
	if catalog == nil {
		catalog = &stubCatalog{}
	}
	return New(ingest, query, catalog, nil)
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestUploadJSON(t *testing.T) {
	ingest := &stubIngestor{}
	s := newTestServer(ingest, nil, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/transcripts",
		`{"course_name":"ML101","week_number":1,"transcript_name":"Week1.txt","text":"lecture text"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	if ingest.lastInput.CourseName != "ML101" || ingest.lastInput.Text != "lecture text" {
		t.Errorf("unexpected ingest input: %+v", ingest.lastInput)
	}
	if ingest.lastInput.WeekNumber == nil || *ingest.lastInput.WeekNumber != 1 {
		t.Errorf("week number not propagated: %v", ingest.lastInput.WeekNumber)
	}
}

func TestUploadErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "invalid input",
			err:        fmt.Errorf("empty text: %w", models.ErrInvalidInput),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "retryable ingest failure",
			err:        &models.IngestFailure{TranscriptID: "t1", Stage: "embed", Err: fmt.Errorf("timeout: %w", models.ErrProviderUnavailable)},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "non-retryable ingest failure",
			err:        &models.IngestFailure{TranscriptID: "t1", Stage: "chunk", Err: fmt.Errorf("boom")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&stubIngestor{ingestErr: tt.err}, nil, nil)
			rec := doJSON(t, s, http.MethodPost, "/api/transcripts",
				`{"course_name":"ML101","transcript_name":"x","text":"y"}`)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body)
			}
		})
	}
}

func TestGetTranscriptNotFound(t *testing.T) {
	s := newTestServer(nil, nil, &stubCatalog{})
	rec := doJSON(t, s, http.MethodGet, "/api/transcripts/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteCleanupPending(t *testing.T) {
	ingest := &stubIngestor{
		deleteErr: fmt.Errorf("index unreachable: %w", models.ErrCleanupPending),
	}
	s := newTestServer(ingest, nil, nil)

	rec := doJSON(t, s, http.MethodDelete, "/api/transcripts/t1", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["status"] != "cleanup_pending" {
		t.Errorf("status field = %q, want cleanup_pending", body["status"])
	}
}

func TestQueryRouting(t *testing.T) {
	query := &stubQuerier{response: &models.GeneratedResponse{
		Text:          "the answer",
		CitedChunkIDs: []string{"t1-0"},
	}}
	s := newTestServer(nil, query, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/query",
		`{"mode":"answer","query":"what is momentum","scope":{"course_name":"ML101"}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if query.lastReq.Mode != models.ModeAnswer || query.lastReq.Query != "what is momentum" {
		t.Errorf("unexpected query request: %+v", query.lastReq)
	}
	if query.lastReq.Scope.CourseName != "ML101" {
		t.Errorf("scope not propagated: %+v", query.lastReq.Scope)
	}

	var resp models.GeneratedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.Text != "the answer" || len(resp.CitedChunkIDs) != 1 {
		t.Errorf("unexpected response body: %+v", resp)
	}
}

func TestQueryErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "insufficient context",
			err:        fmt.Errorf("no chunks: %w", models.ErrInsufficientContext),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "provider unavailable",
			err:        fmt.Errorf("after 4 attempts: %w", models.ErrProviderUnavailable),
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "unknown mode",
			err:        fmt.Errorf("mode: %w", models.ErrInvalidInput),
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(nil, &stubQuerier{err: tt.err}, nil)
			rec := doJSON(t, s, http.MethodPost, "/api/query", `{"mode":"answer","query":"q"}`)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body)
			}
		})
	}
}

func TestCatalogEndpoints(t *testing.T) {
	catalog := &stubCatalog{transcripts: []models.TranscriptRecord{
		{ID: "t1", CourseName: "ML101", Status: models.StatusComplete},
	}}
	s := newTestServer(nil, nil, catalog)

	rec := doJSON(t, s, http.MethodGet, "/api/courses", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("courses status = %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "ML101") {
		t.Errorf("courses body missing course: %s", rec.Body)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/courses/ML101/weeks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("weeks status = %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/transcripts?course=ML101", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/transcripts/t1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d: %s", rec.Code, rec.Body)
	}
}

func TestPurgeAndHealth(t *testing.T) {
	s := newTestServer(nil, nil, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/purge", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("purge status = %d: %s", rec.Code, rec.Body)
	}
	var body map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["purged"] != 2 {
		t.Errorf("purged = %d, want 2", body["purged"])
	}

	rec = doJSON(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/stats", "")
	if rec.Code != http.StatusOK {
		t.Errorf("stats status = %d", rec.Code)
	}
}
