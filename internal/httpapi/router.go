// Package httpapi exposes stored content, the live stream and operational
// endpoints over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"FeedScanner/internal/domain"
	"FeedScanner/internal/infrastructure/notify"
)

// ContentLister reads stored content.
type ContentLister interface {
	Query(ctx context.Context, q domain.ContentQuery) (domain.ContentPage, error)
}

// CycleTrigger starts an ingestion cycle on demand.
type CycleTrigger interface {
	RunNow(ctx context.Context) (domain.CycleReport, error)
}

// Subscriber hands out live event subscriptions.
type Subscriber interface {
	Subscribe() (id string, events <-chan notify.Event, cancel func())
}

// Deps wires the handlers. Nil members disable their routes.
type Deps struct {
	Content      ContentLister
	Trigger      CycleTrigger
	Stream       Subscriber
	Metrics      http.Handler
	Logger       *slog.Logger
	AllowOrigins []string
	Heartbeat    time.Duration
}

// NewRouter builds the gin engine with all routes.
func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Heartbeat <= 0 {
		deps.Heartbeat = defaultHeartbeat
	}

	router := gin.New()
	router.Use(gin.Recovery(), loggerMiddleware(deps.Logger), corsMiddleware(deps.AllowOrigins))

	h := &handlers{deps: deps}
	router.GET("/health", h.health)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	api := router.Group("/api")
	if deps.Content != nil {
		api.GET("/content", h.listContent)
	}
	if deps.Stream != nil {
		api.GET("/content/stream", h.stream)
	}
	if deps.Trigger != nil {
		api.POST("/ingest", h.ingest)
	}

	return router
}

func loggerMiddleware(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			log.Error("http request with errors", append(args, "errors", c.Errors.String())...)
			return
		}
		log.Debug("http request", args...)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowAll := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
