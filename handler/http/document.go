package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa/src/core/docqa"
	"docqa/src/log"
)

type UploadResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type HistoryTurn struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content"`
}

type QueryRequest struct {
	SessionID string        `json:"session_id" binding:"required"`
	Message   string        `json:"message" binding:"required"`
	History   []HistoryTurn `json:"history" binding:"dive"`
}

type QueryResponse struct {
	Answer string `json:"answer"`
}

// Root godoc
// @Summary Service banner
// @Tags system
// @Produce json
// @Router / [get]
func (h *Handler) Root(c *gin.Context) {
	sendJSON(c, http.StatusOK, gin.H{"message": "Document Q&A API is running"})
}

// UploadDocument godoc
// @Summary Index a PDF into a new session
// @Tags docs
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF document"
// @Success 200 {object} UploadResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /docs/upload [post]
func (h *Handler) UploadDocument(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendJSON(c, http.StatusRequestEntityTooLarge, ErrorResponse{
				Code:    CodePayloadTooLarge,
				Message: fmt.Sprintf("upload exceeds the %d byte limit", tooLarge.Limit),
			})
			return
		}
		sendError(c, fmt.Errorf("%w: a PDF must be sent in the \"file\" form field: %v", docqa.ErrInvalidInput, err))
		return
	}

	file, err := header.Open()
	if err != nil {
		sendError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer file.Close()

	session, err := h.docService.Upload(c.Request.Context(), header.Filename, file)
	if err != nil {
		log.FromContext(c.Request.Context()).Error(err, "upload failed", "filename", header.Filename, "kind", docqa.Kind(err))
		sendError(c, err)
		return
	}

	sendJSON(c, http.StatusOK, UploadResponse{
		SessionID: session.ID,
		Message:   fmt.Sprintf("'%s' processed successfully", header.Filename),
	})
}

// QueryDocument godoc
// @Summary Ask a question about an uploaded document
// @Tags docs
// @Accept json
// @Produce json
// @Param request body QueryRequest true "Query"
// @Success 200 {object} QueryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /docs/query [post]
func (h *Handler) QueryDocument(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, fmt.Errorf("%w: %v", docqa.ErrInvalidInput, err))
		return
	}

	answer, err := h.docService.Query(c.Request.Context(), req.toQuery())
	if err != nil {
		if docqa.Kind(err) != docqa.KindNotFound {
			log.FromContext(c.Request.Context()).Error(err, "query failed", "session_id", req.SessionID, "kind", docqa.Kind(err))
		}
		sendError(c, err)
		return
	}

	sendJSON(c, http.StatusOK, QueryResponse{Answer: answer.Text})
}

// toQuery converts the request body, dropping a trailing user turn that
// repeats the current message.
func (r QueryRequest) toQuery() docqa.Query {
	history := make([]docqa.Turn, 0, len(r.History))
	for _, turn := range r.History {
		history = append(history, docqa.Turn{Role: docqa.Role(turn.Role), Content: turn.Content})
	}

	if n := len(history); n > 0 && history[n-1].Role == docqa.RoleUser && history[n-1].Content == r.Message {
		history = history[:n-1]
	}

	return docqa.Query{
		SessionID: r.SessionID,
		Message:   r.Message,
		History:   history,
	}
}
