package http

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa/src/core/docqa"
	"docqa/src/metrics"
)

// DocumentService is the upload and query pipeline behind /docs.
type DocumentService interface {
	Upload(ctx context.Context, filename string, body io.Reader) (*docqa.Session, error)
	Query(ctx context.Context, q docqa.Query) (*docqa.Answer, error)
}

type SystemService interface {
	CheckHealth(ctx context.Context) (*docqa.HealthStatus, error)
}

type Handler struct {
	docService     DocumentService
	sysService     SystemService
	maxUploadBytes int64
}

func NewHandler(docService DocumentService, sysService SystemService, maxUploadBytes int64) *Handler {
	return &Handler{
		docService:     docService,
		sysService:     sysService,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Root)

	docs := r.Group("/docs")
	docs.POST("/upload", h.UploadDocument)
	docs.POST("/query", h.QueryDocument)

	r.GET("/health", h.CheckHealth)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// CodePayloadTooLarge is returned with 413 when an upload exceeds the
// configured size limit.
const CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"

// Common error response structure
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func sendError(c *gin.Context, err error) {
	code := docqa.Kind(err)

	var status int
	switch code {
	case docqa.KindInvalidInput:
		status = http.StatusBadRequest
	case docqa.KindNotFound:
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
	}

	c.JSON(status, ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}

func sendJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}
