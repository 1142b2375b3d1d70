package router

import (
	"github.com/aapbuilder/backend/config"
	"github.com/aapbuilder/backend/internal/embed"
	"github.com/aapbuilder/backend/internal/handler"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	File     *handler.FileHandler
	Template *handler.TemplateHandler
	Locale   *handler.LocaleHandler
	Config   *handler.ConfigHandler
	Page     *handler.PageHandler
}

func Setup(cfg *config.Config, h Handlers) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "HX-Request", "HX-Target", "HX-Current-URL", "HX-Trigger"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", "HX-Redirect"},
	}))
	// docx is already compressed
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`^/api/files/[^/]+/export$`})))

	api := r.Group("/api")
	{
		api.GET("/config", h.Config.Get)

		api.GET("/templates", h.Template.List)
		api.POST("/templates/load", h.Template.Load)

		api.GET("/locale", h.Locale.Get)
		api.PUT("/locale", h.Locale.Set)
		api.GET("/countries", h.Locale.Countries)

		files := api.Group("/files")
		{
			files.GET("", h.File.List)
			files.POST("", h.File.Create)
			files.POST("/import", h.File.Import)
			files.GET("/:id", h.File.Get)
			files.DELETE("/:id", h.File.Delete)
			files.GET("/:id/json", h.File.ExportJSON)
			files.GET("/:id/export", h.File.Export)
			files.GET("/:id/status", h.File.Status)
			files.PUT("/:id/answers", h.File.UpdateAnswer)
			files.PUT("/:id/step", h.File.SetStep)
			files.PUT("/:id/settings", h.File.UpdateSettings)
			files.POST("/:id/settings/toggle", h.File.ToggleSetting)

			tr := files.Group("/:id/trigger")
			{
				tr.POST("/phases", h.File.AddPhase)
				tr.PUT("/phases/:index", h.File.UpdatePhase)
				tr.DELETE("/phases/:index", h.File.RemovePhase)
				tr.POST("/generate", h.File.Generate)
			}
		}
	}

	r.GET("/", h.Page.Dashboard)
	r.POST("/files", h.Page.CreateFile)
	r.GET("/files/:id", h.Page.OpenFile)
	r.GET("/files/:id/steps/:step", h.Page.Step)
	r.POST("/files/:id/steps/:step", h.Page.GoToStep)
	r.POST("/files/:id/fields", h.Page.UpdateField)
	r.POST("/locale", h.Page.SetLocale)

	embed.SetupRouter(r, h.Page.NotFound)

	return r
}
