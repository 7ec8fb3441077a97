// internal/api/handler/content.go
package handler

import (
	"context"
	"net/http"

	"github.com/covergrid/pulse/internal/api/response"
	"github.com/covergrid/pulse/internal/core"
	"go.uber.org/zap"
)

// ContentSource is the slice of the app the content handlers need.
type ContentSource interface {
	Articles(ctx context.Context) ([]core.Article, error)
	Schedule(ctx context.Context) ([]core.ScheduleItem, error)
	Stories(ctx context.Context) ([]core.Story, error)
	All(ctx context.Context) (core.ContentBundle, error)
	Dashboard() (core.DashboardMetrics, bool)
	Health() map[string]any
}

// ContentHandler serves the mapped sheet content.
type ContentHandler struct {
	source ContentSource
	logger *zap.Logger
}

// NewContentHandler creates a content handler.
func NewContentHandler(source ContentSource, logger *zap.Logger) *ContentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentHandler{source: source, logger: logger}
}

// Articles returns the mapped articles rows.
func (h *ContentHandler) Articles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.source.Articles(r.Context())
	if err != nil {
		h.logger.Error("articles fetch failed", zap.Error(err))
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"articles": articles,
		"count":    len(articles),
	})
}

// Schedule returns the posting schedule rows.
func (h *ContentHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.source.Schedule(r.Context())
	if err != nil {
		h.logger.Error("schedule fetch failed", zap.Error(err))
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"schedule": schedule,
		"count":    len(schedule),
	})
}

// Stories returns the customer success stories.
func (h *ContentHandler) Stories(w http.ResponseWriter, r *http.Request) {
	stories, err := h.source.Stories(r.Context())
	if err != nil {
		h.logger.Error("stories fetch failed", zap.Error(err))
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"stories": stories,
		"count":   len(stories),
	})
}

// All returns the three content collections from one upstream call.
// It also serves the legacy /api/sheets path.
func (h *ContentHandler) All(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.source.All(r.Context())
	if err != nil {
		h.logger.Error("bundle fetch failed", zap.Error(err))
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, bundle)
}

// Dashboard returns the latest polled dashboard metrics.
func (h *ContentHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	metrics, ok := h.source.Dashboard()
	if !ok {
		response.Error(w, http.StatusServiceUnavailable,
			core.WrapError(core.ErrSheetUnavailable, nil))
		return
	}
	response.JSON(w, http.StatusOK, metrics)
}

// Health reports service liveness.
func (h *ContentHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.source.Health())
}
