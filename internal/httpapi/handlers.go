package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"FeedScanner/internal/domain"
)

const defaultHeartbeat = 30 * time.Second

type handlers struct {
	deps Deps
}

type contentResponse struct {
	Content     []domain.ContentItem `json:"content"`
	TotalPages  int                  `json:"totalPages"`
	CurrentPage int                  `json:"currentPage"`
	Total       int                  `json:"total"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Server is running"})
}

// listContent handles GET /api/content?tags=a,b&page=1&limit=20.
func (h *handlers) listContent(c *gin.Context) {
	page, err := intQuery(c, "page")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.deps.Content.Query(c.Request.Context(), domain.ContentQuery{
		Tags:  splitTags(c.QueryArray("tags")),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load content"})
		return
	}

	items := result.Items
	if items == nil {
		items = []domain.ContentItem{}
	}
	c.JSON(http.StatusOK, contentResponse{
		Content:     items,
		TotalPages:  result.TotalPages(),
		CurrentPage: result.Page,
		Total:       result.Total,
	})
}

// ingest handles POST /api/ingest. The cycle keeps running if the client
// goes away.
func (h *handlers) ingest(c *gin.Context) {
	report, err := h.deps.Trigger.RunNow(context.WithoutCancel(c.Request.Context()))
	if errors.Is(err, domain.ErrCycleInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingestion failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// stream handles GET /api/content/stream.
func (h *handlers) stream(c *gin.Context) {
	id, events, cancel := h.deps.Stream.Subscribe()
	defer cancel()

	c.Header("Content-Type", sse.ContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Render(-1, sse.Event{Event: "connected", Data: gin.H{"clientId": id}})
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.deps.Heartbeat)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.Render(-1, sse.Event{Id: ev.ID, Event: ev.Name, Data: string(ev.Data)})
			return true
		case <-heartbeat.C:
			_, err := io.WriteString(w, ": ping\n\n")
			return err == nil
		case <-ctx.Done():
			return false
		}
	})
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return v, nil
}

func splitTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}
