package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handler "docqa/handler/http"
	"docqa/src/core/docqa"
)

type fakeDocService struct {
	uploadedName string
	uploadedBody string
	uploadErr    error

	query    docqa.Query
	answer   string
	queryErr error
}

func (f *fakeDocService) Upload(_ context.Context, filename string, body io.Reader) (*docqa.Session, error) {
	data, _ := io.ReadAll(body)
	f.uploadedName = filename
	f.uploadedBody = string(data)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &docqa.Session{ID: "2b1f0c8e-6d7a-4c1e-9f3b-0a1b2c3d4e5f", Source: filename}, nil
}

func (f *fakeDocService) Query(_ context.Context, q docqa.Query) (*docqa.Answer, error) {
	f.query = q
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &docqa.Answer{Text: f.answer}, nil
}

type fakeSysService struct {
	status *docqa.HealthStatus
}

func (f *fakeSysService) CheckHealth(context.Context) (*docqa.HealthStatus, error) {
	return f.status, nil
}

func newRouter(t *testing.T, docs *fakeDocService, maxUpload int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	sys := &fakeSysService{status: &docqa.HealthStatus{Status: "healthy", Sessions: 2}}
	return handler.NewRouter(handler.NewHandler(docs, sys, maxUpload), node)
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestUploadDocument(t *testing.T) {
	docs := &fakeDocService{}
	r := newRouter(t, docs, 0)

	body, contentType := multipartBody(t, "file", "circuits.pdf", "%PDF-1.7 ...")
	req := httptest.NewRequest(http.MethodPost, "/docs/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2b1f0c8e-6d7a-4c1e-9f3b-0a1b2c3d4e5f", resp.SessionID)
	assert.Equal(t, "'circuits.pdf' processed successfully", resp.Message)
	assert.Equal(t, "circuits.pdf", docs.uploadedName)
	assert.Equal(t, "%PDF-1.7 ...", docs.uploadedBody)
	assert.NotEmpty(t, rec.Header().Get(handler.RequestIDHeader))
}

func TestUploadDocument_Errors(t *testing.T) {
	tests := []struct {
		name       string
		field      string
		uploadErr  error
		maxUpload  int64
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing file field",
			field:      "document",
			wantStatus: http.StatusBadRequest,
			wantCode:   docqa.KindInvalidInput,
		},
		{
			name:       "wrong type",
			field:      "file",
			uploadErr:  fmt.Errorf("%w: only PDF files are supported", docqa.ErrInvalidInput),
			wantStatus: http.StatusBadRequest,
			wantCode:   docqa.KindInvalidInput,
		},
		{
			name:       "indexing failure",
			field:      "file",
			uploadErr:  fmt.Errorf("%w: service unavailable", docqa.ErrEmbeddingFailure),
			wantStatus: http.StatusInternalServerError,
			wantCode:   docqa.KindEmbeddingFailure,
		},
		{
			name:       "too large",
			field:      "file",
			maxUpload:  16,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   handler.CodePayloadTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(t, &fakeDocService{uploadErr: tt.uploadErr}, tt.maxUpload)

			body, contentType := multipartBody(t, tt.field, "doc.pdf", strings.Repeat("x", 64))
			req := httptest.NewRequest(http.MethodPost, "/docs/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestQueryDocument(t *testing.T) {
	docs := &fakeDocService{answer: "A resistor limits current."}
	r := newRouter(t, docs, 0)

	payload := `{
		"session_id": "abc",
		"message": "And an inductor?",
		"history": [
			{"role": "user", "content": "What does a resistor do?"},
			{"role": "assistant", "content": "It limits current."},
			{"role": "user", "content": "And an inductor?"}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/docs/query", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(handler.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"answer":"A resistor limits current."}`, rec.Body.String())
	assert.Equal(t, "req-42", rec.Header().Get(handler.RequestIDHeader))

	assert.Equal(t, "abc", docs.query.SessionID)
	assert.Equal(t, "And an inductor?", docs.query.Message)
	assert.Equal(t, []docqa.Turn{
		{Role: docqa.RoleUser, Content: "What does a resistor do?"},
		{Role: docqa.RoleAssistant, Content: "It limits current."},
	}, docs.query.History, "a trailing copy of the message is dropped")
}

func TestQueryDocument_Errors(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		queryErr   error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unknown session",
			payload:    `{"session_id":"nope","message":"hi"}`,
			queryErr:   fmt.Errorf("%w: %q", docqa.ErrNotFound, "nope"),
			wantStatus: http.StatusNotFound,
			wantCode:   docqa.KindNotFound,
		},
		{
			name:       "missing message",
			payload:    `{"session_id":"abc"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   docqa.KindInvalidInput,
		},
		{
			name:       "unknown role",
			payload:    `{"session_id":"abc","message":"hi","history":[{"role":"system","content":"x"}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   docqa.KindInvalidInput,
		},
		{
			name:       "malformed json",
			payload:    `{"session_id":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   docqa.KindInvalidInput,
		},
		{
			name:       "generation failure",
			payload:    `{"session_id":"abc","message":"hi"}`,
			queryErr:   fmt.Errorf("%w: %w", docqa.ErrGenerationFailure, errors.New("rate limited")),
			wantStatus: http.StatusInternalServerError,
			wantCode:   docqa.KindGenerationFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(t, &fakeDocService{queryErr: tt.queryErr}, 0)

			req := httptest.NewRequest(http.MethodPost, "/docs/query", strings.NewReader(tt.payload))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestSystemRoutes(t *testing.T) {
	r := newRouter(t, &fakeDocService{}, 0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status docqa.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, 2, status.Sessions)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "running")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "docqa_http_requests_total")
}
