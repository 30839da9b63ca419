package http

import (
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"docqa/src/log"
	"docqa/src/metrics"
)

const (
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
)

// NewRouter builds the gin engine with recovery, request ids and access
// logging in front of the handler's routes.
func NewRouter(h *Handler, node *snowflake.Node) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(node), AccessLog())
	h.RegisterRoutes(r)
	return r
}

// RequestID propagates the caller's request id or assigns a snowflake id, and
// attaches it to the request's logger.
func RequestID(node *snowflake.Node) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = node.Generate().String()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(log.IntoContext(c.Request.Context(), "request_id", id))
		c.Next()
	}
}

func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()

		log.FromContext(c.Request.Context()).Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start).String())
	}
}
