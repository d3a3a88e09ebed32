package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skillswipe/internal/feed"
)

// FeedHandler 暴露发现流与 dashboard。
type FeedHandler struct {
	feed *feed.Service
	urls assetURLs
}

func NewFeedHandler(feedService *feed.Service, urls assetURLs) *FeedHandler {
	return &FeedHandler{feed: feedService, urls: urls}
}

func (h *FeedHandler) Discover(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	result, err := h.feed.Discover(ctx, userID, f)
	if err != nil {
		respondError(c, err)
		return
	}
	result.Developers = h.urls.developers(ctx, result.Developers)
	c.JSON(http.StatusOK, result)
}

// Dashboard 按 tab 返回内容，未知 tab 返回 400。
func (h *FeedHandler) Dashboard(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	tab, err := feed.ParseTab(c.Query("tab"))
	if err != nil {
		respondError(c, err)
		return
	}
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	page, err := h.feed.Dashboard(c.Request.Context(), userID, tab, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
