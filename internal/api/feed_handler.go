package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tripzi/tripzi-backend/internal/callable"
	"github.com/tripzi/tripzi-backend/internal/core"
	"github.com/tripzi/tripzi-backend/internal/middleware"
	"github.com/tripzi/tripzi-backend/internal/models"
)

// FeedHandler serves the trip feed.
type FeedHandler struct {
	feed   core.FeedService
	logger *zap.Logger
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(feed core.FeedService, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, logger: logger}
}

// GetFeed handles GET /api/v1/feed.
func (h *FeedHandler) GetFeed(c *gin.Context) {
	view, err := h.feed.Snapshot(c.Request.Context(), middleware.Caller(c).UID)
	if err != nil {
		callable.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// StreamFeed handles GET /api/v1/feed/stream. Every change of the recent
// trips is pushed as a "feed" event until the client disconnects.
func (h *FeedHandler) StreamFeed(c *gin.Context) {
	ctx := c.Request.Context()
	caller := middleware.Caller(c)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	err := h.feed.Subscribe(ctx, caller.UID, func(view models.FeedView) error {
		c.SSEvent("feed", view)
		c.Writer.Flush()
		return ctx.Err()
	})
	if err == nil || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return
	}

	h.logger.Error("feed subscription ended", zap.String("request_id", caller.RequestID), zap.Error(err))
	ce := core.AsError(err)
	c.SSEvent("error", streamError{Status: callable.StatusName(ce.Code), Message: ce.Message})
	c.Writer.Flush()
}
