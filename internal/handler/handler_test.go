package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/aapbuilder/backend/config"
	"github.com/aapbuilder/backend/internal/country"
	"github.com/aapbuilder/backend/internal/embed"
	"github.com/aapbuilder/backend/internal/form"
	"github.com/aapbuilder/backend/internal/i18n"
	"github.com/aapbuilder/backend/internal/pkg/database"
	"github.com/aapbuilder/backend/internal/repository"
	"github.com/aapbuilder/backend/internal/service"
	"github.com/aapbuilder/backend/internal/templateloader"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTemplateDoc = `{
  "metadata": {"language": "english", "shortName": "AAP Test"},
  "template": [
    {"id": "summary", "title": "Summary", "subsections": [
      {"id": "hazard", "title": "Hazard", "type": "radio", "options": ["Flood", "Drought"]},
      {"id": "country", "title": "Country", "type": "dropdown"},
      {"id": "custodian-organisation", "title": "Custodian", "type": "text", "characterLimit": 20}
    ]},
    {"id": "triggers", "title": "Triggers", "subsections": [
      {"id": "mechanism", "title": "Mechanism", "type": "triggerdesigner", "required": true}
    ]}
  ]
}`

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testTemplateDoc))
	}))
	t.Cleanup(srv.Close)

	db, err := database.InitDB("sqlite", ":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection of :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := config.Default()
	cfg.Templates = append(cfg.Templates, config.TemplateEntry{ID: "test", Name: "Test", URL: srv.URL})

	kv := repository.NewKVRepository(db)
	bundle := i18n.Default()
	countries := country.NewProvider()
	locale := service.NewLocaleService(kv, bundle, "en")
	templates := service.NewTemplateService(cfg, templateloader.New(srv.Client(), kv), locale)
	files := service.NewFileService(cfg, repository.NewFileRepository(db), templates, locale, form.NewRenderer(countries, bundle), countries)

	fh := NewFileHandler(files)
	ph := NewPageHandler(files, templates, locale)
	lh := NewLocaleHandler(locale, countries)
	th := NewTemplateHandler(templates)

	r := gin.New()
	api := r.Group("/api")
	api.GET("/templates", th.List)
	api.POST("/templates/load", th.Load)
	api.GET("/locale", lh.Get)
	api.PUT("/locale", lh.Set)
	api.GET("/countries", lh.Countries)
	api.GET("/files", fh.List)
	api.POST("/files", fh.Create)
	api.POST("/files/import", fh.Import)
	api.GET("/files/:id", fh.Get)
	api.DELETE("/files/:id", fh.Delete)
	api.GET("/files/:id/json", fh.ExportJSON)
	api.GET("/files/:id/export", fh.Export)
	api.GET("/files/:id/status", fh.Status)
	api.PUT("/files/:id/answers", fh.UpdateAnswer)
	api.PUT("/files/:id/step", fh.SetStep)
	api.PUT("/files/:id/settings", fh.UpdateSettings)
	api.POST("/files/:id/settings/toggle", fh.ToggleSetting)
	api.POST("/files/:id/trigger/phases", fh.AddPhase)
	api.PUT("/files/:id/trigger/phases/:index", fh.UpdatePhase)
	api.DELETE("/files/:id/trigger/phases/:index", fh.RemovePhase)
	api.POST("/files/:id/trigger/generate", fh.Generate)
	r.GET("/", ph.Dashboard)
	r.POST("/files", ph.CreateFile)
	r.GET("/files/:id", ph.OpenFile)
	r.GET("/files/:id/steps/:step", ph.Step)
	r.POST("/files/:id/steps/:step", ph.GoToStep)
	r.POST("/files/:id/fields", ph.UpdateField)
	r.POST("/locale", ph.SetLocale)
	embed.SetupRouter(r, ph.NotFound)
	return r
}

func doJSON(r http.Handler, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doForm(r http.Handler, target string, values url.Values, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createFile(t *testing.T, r http.Handler) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/files", gin.H{"template": "test", "name": "Kenya floods"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var rec struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	require.NotEmpty(t, rec.ID)
	return rec.ID
}

func TestFileAPI(t *testing.T) {
	r := newTestEngine(t)
	id := createFile(t, r)

	w := doJSON(r, http.MethodPut, "/api/files/"+id+"/answers", gin.H{"field": "summary.country", "value": "Kenya"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ans map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ans))
	assert.Equal(t, "KE", ans["value"])

	w = doJSON(r, http.MethodPut, "/api/files/"+id+"/answers", gin.H{"field": "summary.hazard", "value": "Tsunami"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPut, "/api/files/"+id+"/answers", gin.H{"field": "summary.ghost", "value": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodPut, "/api/files/"+id+"/answers", gin.H{"value": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/files/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Sections []sectionInfo `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Len(t, detail.Sections, 2)

	w = doJSON(r, http.MethodGet, "/api/files/"+id+"/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"complete"`)
	assert.Contains(t, w.Body.String(), `"unstarted"`)

	w = doJSON(r, http.MethodPut, "/api/files/"+id+"/step", gin.H{"step": 1})
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodPut, "/api/files/"+id+"/step", gin.H{"step": 7})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/files", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id)

	w = doJSON(r, http.MethodGet, "/api/files/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodDelete, "/api/files/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodGet, "/api/files/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportAndImport(t *testing.T) {
	r := newTestEngine(t)
	id := createFile(t, r)
	doJSON(r, http.MethodPut, "/api/files/"+id+"/answers", gin.H{"field": "summary.hazard", "toggle": "Flood"})

	w := doJSON(r, http.MethodGet, "/api/files/"+id+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "AAP-Flood-UnknownCountry-UnknownCustodian-")
	assert.Equal(t, "PK", w.Body.String()[:2])

	w = doJSON(r, http.MethodGet, "/api/files/"+id+"/json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "AAP_"+id+".json")
	exported := w.Body.Bytes()

	req := httptest.NewRequest(http.MethodPost, "/api/files/import", bytes.NewReader(exported))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var imported struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &imported))
	assert.NotEqual(t, id, imported.ID)

	req = httptest.NewRequest(http.MethodPost, "/api/files/import", strings.NewReader(`{"name": "no template"}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/files/import", strings.NewReader(" "))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerEndpoints(t *testing.T) {
	r := newTestEngine(t)
	id := createFile(t, r)
	base := "/api/files/" + id + "/trigger"
	field := gin.H{"field": "triggers.mechanism"}

	w := doJSON(r, http.MethodPut, "/api/files/"+id+"/answers", gin.H{"field": "summary.hazard", "toggle": "Flood"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, base+"/phases", field)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var state struct {
		Hazard      string `json:"hazard"`
		Phases      []any  `json:"phases"`
		CanGenerate bool   `json:"canGenerate"`
		Combined    string `json:"combined"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "Flood", state.Hazard)
	assert.Len(t, state.Phases, 2)
	assert.False(t, state.CanGenerate)

	w = doJSON(r, http.MethodPost, base+"/generate", field)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, i := range []string{"0", "1"} {
		w = doJSON(r, http.MethodPut, base+"/phases/"+i, gin.H{
			"field": "triggers.mechanism", "phaseTitle": "Phase " + i, "source": "GloFAS",
			"threshold": "5m", "leadTime": "24 hours",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w = doJSON(r, http.MethodPut, base+"/phases/5", gin.H{"field": "triggers.mechanism", "source": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(r, http.MethodPut, base+"/phases/0", field)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, base+"/generate", field)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Contains(t, state.Combined, "GloFAS")

	w = doJSON(r, http.MethodDelete, base+"/phases/1?field=triggers.mechanism", nil, "HX-Request", "true")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `id="field-triggers-mechanism"`)

	w = doJSON(r, http.MethodPost, base+"/phases", gin.H{"field": "summary.hazard"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsEndpoints(t *testing.T) {
	r := newTestEngine(t)
	id := createFile(t, r)

	w := doJSON(r, http.MethodPost, "/api/files/"+id+"/settings/toggle", gin.H{"key": "hint-summary.hazard"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"key": "hint-summary.hazard", "value": true}`, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/files/"+id+"/settings/toggle", gin.H{"key": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPut, "/api/files/"+id+"/settings", gin.H{"alwaysDisplayAllHints": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var s struct {
		Hints   bool            `json:"alwaysDisplayAllHints"`
		PerNode map[string]bool `json:"hintsVisibility"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.True(t, s.Hints)
	assert.True(t, s.PerNode["hint-summary.hazard"])
}

func TestLocaleEndpoints(t *testing.T) {
	r := newTestEngine(t)

	w := doJSON(r, http.MethodPut, "/api/locale", gin.H{"locale": "Português"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"locale": "pt"}`, w.Body.String())

	w = doJSON(r, http.MethodPut, "/api/locale", gin.H{"locale": "klingon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/locale", nil)
	assert.Contains(t, w.Body.String(), `"locale":"pt"`)

	w = doJSON(r, http.MethodGet, "/api/countries?lang=en", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"KE"`)

	w = doJSON(r, http.MethodGet, "/api/templates", nil)
	assert.Contains(t, w.Body.String(), `"id":"test"`)

	w = doJSON(r, http.MethodPost, "/api/templates/load", gin.H{"template": "ftp://example.com/t.json"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWizardPages(t *testing.T) {
	r := newTestEngine(t)

	w := doJSON(r, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "My protocols")

	w = doForm(r, "/files", url.Values{"template": {"test"}})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	loc := w.Header().Get("Location")
	require.True(t, strings.HasSuffix(loc, "/steps/0"), loc)
	id := strings.Split(loc, "/")[2]

	w = doJSON(r, http.MethodGet, "/files/"+id, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, loc, w.Header().Get("Location"))

	w = doJSON(r, http.MethodGet, loc, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `id="field-summary-hazard"`)
	assert.Contains(t, w.Body.String(), "stepper__item--active")

	w = doForm(r, "/files/"+id+"/fields", url.Values{"field": {"summary.custodian-organisation"}, "value": {"Welthungerhilfe e.V. Kenya"}},
		"HX-Request", "true", "HX-Target", "field-summary-custodian-organisation-meta")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `id="field-summary-custodian-organisation-meta"`)
	assert.Contains(t, w.Body.String(), "counter--over")
	assert.NotContains(t, w.Body.String(), "<input")

	w = doForm(r, "/files/"+id+"/fields", url.Values{"field": {"summary.hazard"}, "toggle": {"Drought"}}, "HX-Request", "true")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "choice--selected")

	w = doForm(r, "/files/"+id+"/fields", url.Values{"field": {"summary.hazard"}, "toggle": {"Meteor"}}, "HX-Request", "true")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/files/"+id+"/steps/9", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doForm(r, "/files/"+id+"/steps/1", url.Values{}, "HX-Request", "true")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "/files/"+id+"/steps/1", w.Header().Get("HX-Redirect"))

	w = doJSON(r, http.MethodGet, loc, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodGet, "/files/"+id, nil)
	assert.Equal(t, "/files/"+id+"/steps/1", w.Header().Get("Location"), "viewing a step keeps the active one")

	w = doForm(r, "/files/"+id+"/steps/9", url.Values{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doForm(r, "/locale", url.Values{"lang": {"fr"}}, "Referer", "http://example.com"+loc)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, loc, w.Header().Get("Location"))

	w = doJSON(r, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	w = doJSON(r, http.MethodGet, "/api/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error": "not found"}`, w.Body.String())
}

func TestPageTemplatesAreBuiltOnce(t *testing.T) {
	locale := service.NewLocaleService(nil, i18n.Default(), "en")
	h := NewPageHandler(nil, nil, locale)
	require.NotEmpty(t, h.pages)
	for _, l := range locale.Languages() {
		assert.NotNil(t, h.pages[l.Code], l.Code)
	}

	fr := locale.Bundle().Translator("fr")
	a, err := h.pageTemplates(fr)
	require.NoError(t, err)
	b, err := h.pageTemplates(fr)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Same(t, h.pages["fr"], a)
}

func TestConfigHandlerHidesDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.Database.DSN = "user:secret@tcp(db)/aap"

	r := gin.New()
	r.GET("/api/config", NewConfigHandler(cfg).Get)
	w := doJSON(r, http.MethodGet, "/api/config", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")
	assert.Contains(t, w.Body.String(), `"defaultLanguage"`)
}
