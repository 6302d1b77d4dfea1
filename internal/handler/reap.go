package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/boxfleet/boxfleet/internal/model"
	"github.com/boxfleet/boxfleet/internal/service"
)

// ReapHandler exposes the TTL sweep trigger. Authorization (the reaper
// token) is wired as middleware in front of this handler.
type ReapHandler struct {
	reaper *service.Reaper
}

func NewReapHandler(reaper *service.Reaper) *ReapHandler {
	return &ReapHandler{reaper: reaper}
}

func (h *ReapHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/reap", h.Reap)
}

// Reap runs one sweep and reports what it terminated.
func (h *ReapHandler) Reap(c *gin.Context) {
	reaped, err := h.reaper.Sweep(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	now := time.Now()
	out := make([]model.Box, len(reaped))
	for i, b := range reaped {
		out[i] = b.WithAge(now)
	}
	c.JSON(http.StatusOK, model.BoxListResponse{Boxes: out})
}
