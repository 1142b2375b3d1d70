package handler

import (
	"net/http"

	"github.com/aapbuilder/backend/internal/service"
	"github.com/gin-gonic/gin"
)

type TemplateHandler struct {
	service *service.TemplateService
}

func NewTemplateHandler(service *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{service: service}
}

// List returns the built-in template catalog.
func (h *TemplateHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.service.Catalog()})
}

// Load fetches and caches a template.
func (h *TemplateHandler) Load(c *gin.Context) {
	var req struct {
		Template string `json:"template" form:"template" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	url, err := h.service.Resolve(req.Template)
	if err != nil {
		fail(c, err)
		return
	}
	tpl, err := h.service.Load(c.Request.Context(), url)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":      url,
		"name":     h.service.DisplayName(url, tpl),
		"metadata": tpl.Metadata,
		"template": tpl.Sections,
	})
}
