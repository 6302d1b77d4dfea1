package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/boxfleet/boxfleet/internal/auth"
	"github.com/boxfleet/boxfleet/internal/model"
	"github.com/boxfleet/boxfleet/internal/service"
)

// BoxHandler serves the fleet directory and box lifecycle endpoints.
type BoxHandler struct {
	directory *service.Directory
	lifecycle *service.Lifecycle
}

func NewBoxHandler(directory *service.Directory, lifecycle *service.Lifecycle) *BoxHandler {
	return &BoxHandler{directory: directory, lifecycle: lifecycle}
}

func (h *BoxHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.List)
	r.POST("/box", h.Create)
	r.DELETE("/box/:id", h.Delete)
	r.POST("/reboot/:id", h.Reboot)
}

// List returns the caller's boxes sorted by name.
func (h *BoxHandler) List(c *gin.Context) {
	boxes, err := h.directory.List(c.Request.Context(), auth.User(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.BoxListResponse{Boxes: withAges(boxes)})
}

// Create launches a box. A name collision resolves to 200 with the existing
// matching boxes; a fresh box is 201.
func (h *BoxHandler) Create(c *gin.Context) {
	var req model.CreateBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.lifecycle.Create(c.Request.Context(), auth.User(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	status := http.StatusCreated
	if !result.Created {
		status = http.StatusOK
	}
	c.JSON(status, model.BoxListResponse{Boxes: withAges(result.Boxes)})
}

// Delete tears down the caller's box by instance id.
func (h *BoxHandler) Delete(c *gin.Context) {
	if _, err := h.lifecycle.Delete(c.Request.Context(), auth.User(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reboot restarts the caller's box in place.
func (h *BoxHandler) Reboot(c *gin.Context) {
	if err := h.lifecycle.Reboot(c.Request.Context(), auth.User(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func withAges(boxes []model.Box) []model.Box {
	now := time.Now()
	out := make([]model.Box, len(boxes))
	for i, b := range boxes {
		out[i] = b.WithAge(now)
	}
	return out
}
