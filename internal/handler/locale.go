package handler

import (
	"net/http"

	"github.com/aapbuilder/backend/internal/country"
	"github.com/aapbuilder/backend/internal/service"
	"github.com/gin-gonic/gin"
)

type LocaleHandler struct {
	service   *service.LocaleService
	countries *country.Provider
}

func NewLocaleHandler(service *service.LocaleService, countries *country.Provider) *LocaleHandler {
	return &LocaleHandler{service: service, countries: countries}
}

// Get returns the current language and the supported languages.
func (h *LocaleHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"locale":    h.service.Current(),
		"languages": h.service.Languages(),
	})
}

// Set switches the interface language.
func (h *LocaleHandler) Set(c *gin.Context) {
	var req struct {
		Locale string `json:"locale" form:"locale" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lang, err := h.service.Set(req.Locale)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locale": lang})
}

// Countries lists countries, in the current language unless ?lang is given.
func (h *LocaleHandler) Countries(c *gin.Context) {
	lang := c.Query("lang")
	if lang == "" {
		lang = h.service.Current()
	}
	c.JSON(http.StatusOK, gin.H{"data": h.countries.Countries(lang)})
}
