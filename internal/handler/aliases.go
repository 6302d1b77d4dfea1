package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boxfleet/boxfleet/internal/auth"
	"github.com/boxfleet/boxfleet/internal/model"
	"github.com/boxfleet/boxfleet/internal/store"
)

// AliasHandler serves the image alias CRUD endpoints.
type AliasHandler struct {
	aliases *store.AliasStore
}

func NewAliasHandler(aliases *store.AliasStore) *AliasHandler {
	return &AliasHandler{aliases: aliases}
}

func (h *AliasHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/image-alias", h.List)
	r.POST("/image-alias", h.Create)
	r.DELETE("/image-alias/:alias", h.Delete)
}

// List returns the caller's aliases as an alias -> image id mapping.
func (h *AliasHandler) List(c *gin.Context) {
	aliases, err := h.aliases.List(c.Request.Context(), auth.User(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	mapping := make(map[string]string, len(aliases))
	for _, a := range aliases {
		mapping[a.Alias] = a.ImageID
	}
	c.JSON(http.StatusOK, model.AliasListResponse{ImageAliases: mapping})
}

// Create registers one alias for the caller.
func (h *AliasHandler) Create(c *gin.Context) {
	var req model.CreateAliasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	created, err := h.aliases.Create(c.Request.Context(), auth.User(c), req.Alias, req.ImageID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"image_aliases": gin.H{created.Alias: created.ImageID}})
}

// Delete removes one of the caller's aliases.
func (h *AliasHandler) Delete(c *gin.Context) {
	if err := h.aliases.Delete(c.Request.Context(), auth.User(c), c.Param("alias")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
