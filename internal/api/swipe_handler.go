package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"skillswipe/internal/api/middleware"
	"skillswipe/internal/database"
	"skillswipe/internal/swipe"
	"skillswipe/internal/target"
	"skillswipe/internal/wishlist"
)

// SwipeHandler 处理 swipe 与收藏。
type SwipeHandler struct {
	swipes   *swipe.Service
	wishlist *wishlist.Service
}

func NewSwipeHandler(swipes *swipe.Service, wishlistService *wishlist.Service) *SwipeHandler {
	return &SwipeHandler{swipes: swipes, wishlist: wishlistService}
}

type swipeRequest struct {
	SwipeType    database.SwipeType `json:"swipe_type" binding:"required"`
	TargetUserID string             `json:"target_user_id"`
	JobID        string             `json:"job_id"`
}

// Swipe 记录一次右滑，并返回是否产生匹配。
func (h *SwipeHandler) Swipe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req swipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	t, err := target.ForSwipe(req.SwipeType, req.TargetUserID, req.JobID)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.swipes.Swipe(c.Request.Context(), userID, t)
	if err != nil {
		respondError(c, err)
		return
	}

	logger := middleware.LoggerFromContext(c)
	logger.Info("swipe recorded",
		slog.String("user_id", userID),
		slog.String("role", string(roleFromContext(c))),
		slog.String("target", t.Key()),
		slog.Bool("match_created", result.MatchCreated),
	)
	c.JSON(http.StatusCreated, swipe.NewResponse(*result))
}

type wishlistRequest struct {
	JobID        string `json:"job_id"`
	TargetUserID string `json:"target_user_id"`
}

func (h *SwipeHandler) ListWishlist(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	items, err := h.wishlist.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items), "results": items})
}

func (h *SwipeHandler) AddWishlist(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req wishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	t, err := target.FromIDs(req.JobID, req.TargetUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	entry, err := h.wishlist.Add(c.Request.Context(), userID, t)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":             entry.ID,
		"type":           t.SwipeType(),
		"job_id":         entry.JobPostID,
		"target_user_id": entry.TargetUserID,
		"created_at":     entry.CreatedAt,
	})
}

func (h *SwipeHandler) RemoveWishlist(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.wishlist.Remove(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SwipeHandler) ClearWishlist(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	removed, err := h.wishlist.Clear(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
