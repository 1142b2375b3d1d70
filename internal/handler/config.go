package handler

import (
	"net/http"

	"github.com/aapbuilder/backend/config"
	"github.com/gin-gonic/gin"
)

type ConfigHandler struct {
	cfg *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

// Get returns the client-visible config, without database settings.
func (h *ConfigHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"defaultLanguage": h.cfg.I18n.DefaultLanguage,
		"templates":       h.cfg.Templates,
		"exportTitle":     h.cfg.Export.Title,
		"fetchTimeout":    h.cfg.Fetch.Timeout.String(),
	})
}
