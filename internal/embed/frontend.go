package embed

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

//go:embed ui/templates/*.html ui/static/*
var embeddedFiles embed.FS

var pages = template.Must(template.New("pages").Funcs(placeholderFuncs()).ParseFS(embeddedFiles, "ui/templates/*.html"))

func placeholderFuncs() template.FuncMap {
	return template.FuncMap{
		"t":           func(key string, pairs ...string) string { return key },
		"statusLabel": func(s any) string { return "" },
		"add":         func(a, b int) int { return a + b },
		"formatTime": func(t time.Time) string {
			return t.Local().Format("2006-01-02 15:04:05")
		},
	}
}

// Pages returns the page templates with funcs bound, usually the
// language-bound "t" and "statusLabel".
func Pages(funcs template.FuncMap) (*template.Template, error) {
	t, err := pages.Clone()
	if err != nil {
		return nil, err
	}
	return t.Funcs(funcs), nil
}

// GetStaticFS returns the static asset filesystem.
func GetStaticFS() fs.FS {
	sub, err := fs.Sub(embeddedFiles, "ui/static")
	if err != nil {
		panic(err)
	}
	return sub
}

// SetupRouter serves the static assets.
func SetupRouter(r *gin.Engine, notFound gin.HandlerFunc) {
	r.StaticFS("/static", http.FS(GetStaticFS()))

	r.GET("/favicon.ico", func(c *gin.Context) {
		icon, err := fs.ReadFile(embeddedFiles, "ui/static/favicon.svg")
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, "image/svg+xml", icon)
	})

	r.NoRoute(func(c *gin.Context) {
		// API requests get JSON
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.URL.Path == "/api" {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		if notFound != nil {
			notFound(c)
			return
		}
		c.String(http.StatusNotFound, "not found")
	})
}
