package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"k8s.io/klog/v2"

	"github.com/aapbuilder/backend/config"
	"github.com/aapbuilder/backend/internal/country"
	"github.com/aapbuilder/backend/internal/form"
	"github.com/aapbuilder/backend/internal/handler"
	"github.com/aapbuilder/backend/internal/i18n"
	"github.com/aapbuilder/backend/internal/pkg/database"
	"github.com/aapbuilder/backend/internal/repository"
	"github.com/aapbuilder/backend/internal/router"
	"github.com/aapbuilder/backend/internal/service"
	"github.com/aapbuilder/backend/internal/templateloader"
)

func main() {
	// klog flags
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	klog.V(6).Info("starting server...")

	cfg := config.GetConfig()

	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// database
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// repositories
	fileRepo := repository.NewFileRepository(db)
	kvRepo := repository.NewKVRepository(db)

	bundle, err := i18n.Load()
	if err != nil {
		log.Fatalf("Failed to load locales: %v", err)
	}
	countries := country.NewProvider()
	loader := templateloader.New(&http.Client{Timeout: cfg.Fetch.Timeout}, kvRepo)

	// services
	localeService := service.NewLocaleService(kvRepo, bundle, cfg.I18n.DefaultLanguage)
	templateService := service.NewTemplateService(cfg, loader, localeService)
	renderer := form.NewRenderer(countries, bundle)
	fileService := service.NewFileService(cfg, fileRepo, templateService, localeService, renderer, countries)

	// handlers
	handlers := router.Handlers{
		File:     handler.NewFileHandler(fileService),
		Template: handler.NewTemplateHandler(templateService),
		Locale:   handler.NewLocaleHandler(localeService, countries),
		Config:   handler.NewConfigHandler(cfg),
		Page:     handler.NewPageHandler(fileService, templateService, localeService),
	}

	// routes
	r := router.Setup(cfg, handlers)

	log.Printf("Server starting on port %s...", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
