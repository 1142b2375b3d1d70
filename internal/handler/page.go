package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aapbuilder/backend/config"
	"github.com/aapbuilder/backend/internal/embed"
	"github.com/aapbuilder/backend/internal/form"
	"github.com/aapbuilder/backend/internal/i18n"
	"github.com/aapbuilder/backend/internal/service"
	"github.com/aapbuilder/backend/internal/status"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
)

// PageHandler serves the server-rendered wizard.
type PageHandler struct {
	files     *service.FileService
	templates *service.TemplateService
	locale    *service.LocaleService
	// pages holds the page templates of every supported language. It is
	// filled once and only read afterwards.
	pages map[string]*template.Template
}

func NewPageHandler(files *service.FileService, templates *service.TemplateService, locale *service.LocaleService) *PageHandler {
	h := &PageHandler{files: files, templates: templates, locale: locale, pages: map[string]*template.Template{}}
	bundle := locale.Bundle()
	for _, l := range locale.Languages() {
		t, err := embed.Pages(form.Funcs(bundle.Translator(l.Code)))
		if err != nil {
			klog.Errorf("load page templates for %s: %v", l.Code, err)
			continue
		}
		h.pages[l.Code] = t
	}
	return h
}

type page struct {
	Lang      string
	Title     string
	Languages []i18n.Language
}

type dashboardPage struct {
	page
	Files   []service.FileSummary
	Catalog []config.TemplateEntry
}

type stepLink struct {
	Index  int
	Title  string
	Status status.Status
	Active bool
}

type filePage struct {
	page
	FileID         string
	Name           string
	Steps          []stepLink
	AlwaysHints    bool
	AlwaysExamples bool
	Section        template.HTML
}

type errorPage struct {
	page
	Status  int
	Message string
}

// pageTemplates returns the templates bound to the language of tr.
func (h *PageHandler) pageTemplates(tr *i18n.Translator) (*template.Template, error) {
	if t, ok := h.pages[tr.Lang()]; ok {
		return t, nil
	}
	return embed.Pages(form.Funcs(tr))
}

func (h *PageHandler) render(c *gin.Context, code int, tr *i18n.Translator, name string, data any) {
	t, err := h.pageTemplates(tr)
	if err != nil {
		klog.Errorf("load page templates: %v", err)
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		klog.Errorf("render page %s: %v", name, err)
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(code, "text/html; charset=utf-8", buf.Bytes())
}

func (h *PageHandler) base(tr *i18n.Translator, title string) page {
	return page{Lang: tr.Lang(), Title: title, Languages: h.locale.Languages()}
}

// failPage reports an error as a page, or as a bare message for htmx swaps.
func (h *PageHandler) failPage(c *gin.Context, err error) {
	code := errorStatus(err)
	if code >= http.StatusInternalServerError {
		klog.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	if isHTMX(c) {
		c.String(code, err.Error())
		return
	}
	tr := h.locale.Translator()
	h.render(c, code, tr, "error", errorPage{page: h.base(tr, http.StatusText(code)), Status: code, Message: err.Error()})
}

// NotFound renders the not-found page for unknown routes.
func (h *PageHandler) NotFound(c *gin.Context) {
	tr := h.locale.Translator()
	h.render(c, http.StatusNotFound, tr, "error", errorPage{
		page:    h.base(tr, http.StatusText(http.StatusNotFound)),
		Status:  http.StatusNotFound,
		Message: c.Request.URL.Path,
	})
}

// Dashboard lists the files and the template catalog.
func (h *PageHandler) Dashboard(c *gin.Context) {
	files, err := h.files.List()
	if err != nil {
		h.failPage(c, err)
		return
	}
	tr := h.locale.Translator()
	h.render(c, http.StatusOK, tr, "dashboard", dashboardPage{
		page:    h.base(tr, tr.T("dashboard.title", nil)),
		Files:   files,
		Catalog: h.templates.Catalog(),
	})
}

func redirect(c *gin.Context, location string) {
	if isHTMX(c) {
		c.Header("HX-Redirect", location)
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusSeeOther, location)
}

// CreateFile starts a file from a catalog entry or template URL and opens it.
func (h *PageHandler) CreateFile(c *gin.Context) {
	var req service.CreateFileRequest
	if err := c.ShouldBind(&req); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	inst, err := h.files.Create(c.Request.Context(), req)
	if err != nil {
		h.failPage(c, err)
		return
	}
	redirect(c, stepURL(inst.ID, 0))
}

func stepURL(id string, step int) string {
	return fmt.Sprintf("/files/%s/steps/%d", url.PathEscape(id), step)
}

// OpenFile redirects to the step the file was last on.
func (h *PageHandler) OpenFile(c *gin.Context) {
	ws, err := h.files.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.failPage(c, err)
		return
	}
	step := ws.File.ActiveStep
	if step < 0 || step >= len(ws.Template.Sections) {
		step = 0
	}
	c.Redirect(http.StatusFound, stepURL(ws.File.ID, step))
}

// GoToStep makes step the active one and redirects to its page.
func (h *PageHandler) GoToStep(c *gin.Context) {
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		c.String(http.StatusBadRequest, "invalid step")
		return
	}
	ws, err := h.files.SetStep(c.Request.Context(), c.Param("id"), step)
	if err != nil {
		h.failPage(c, err)
		return
	}
	redirect(c, stepURL(ws.File.ID, step))
}

// Step renders one wizard step. It does not change the active step.
func (h *PageHandler) Step(c *gin.Context) {
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		c.String(http.StatusBadRequest, "invalid step")
		return
	}
	ws, err := h.files.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.failPage(c, err)
		return
	}
	view, err := h.files.Section(ws, step)
	if err != nil {
		h.failPage(c, err)
		return
	}
	var buf bytes.Buffer
	if err := h.files.Renderer().RenderSection(&buf, view, ws.Lang()); err != nil {
		h.failPage(c, err)
		return
	}
	if isHTMX(c) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
		return
	}

	report := status.Report(ws.Template.Sections, ws.File.Answers)
	steps := make([]stepLink, 0, len(report.Sections))
	for i, s := range report.Sections {
		steps = append(steps, stepLink{Index: i, Title: s.Title, Status: s.Status, Active: i == step})
	}
	name := ws.File.Name
	if name == "" {
		name = h.templates.DisplayName(ws.File.TemplateURL, ws.Template)
	}
	h.render(c, http.StatusOK, ws.Translator, "file", filePage{
		page:           h.base(ws.Translator, name),
		FileID:         ws.File.ID,
		Name:           name,
		Steps:          steps,
		AlwaysHints:    ws.File.Settings.AlwaysDisplayAllHints,
		AlwaysExamples: ws.File.Settings.AlwaysDisplayAllExamples,
		Section:        template.HTML(buf.String()),
	})
}

// UpdateField stores one answer and returns the refreshed widget. Text
// inputs only swap their status line so the caret is not disturbed.
func (h *PageHandler) UpdateField(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	p, ok := fieldPath(req.Field)
	if !ok {
		c.String(http.StatusBadRequest, "invalid field")
		return
	}
	res, err := h.files.UpdateField(c.Request.Context(), c.Param("id"), p, form.Edit{Value: req.Value, Values: req.Values, Toggle: req.Toggle})
	if err != nil {
		h.failPage(c, err)
		return
	}

	r := h.files.Renderer()
	w := r.Build(res.Node, res.Path, res.File.Answers, res.File.Settings, res.Lang())
	if w == nil {
		c.Status(http.StatusNoContent)
		return
	}
	var buf bytes.Buffer
	if strings.HasSuffix(c.GetHeader("HX-Target"), "-meta") {
		err = r.RenderMeta(&buf, res.File.ID, w, res.Lang())
	} else {
		err = r.RenderWidget(&buf, res.File.ID, w, res.Lang())
	}
	if err != nil {
		h.failPage(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// SetLocale switches the interface language and returns to the previous page.
func (h *PageHandler) SetLocale(c *gin.Context) {
	if _, err := h.locale.Set(c.PostForm("lang")); err != nil {
		h.failPage(c, err)
		return
	}
	back := "/"
	if ref, err := url.Parse(c.Request.Referer()); err == nil && ref.Path != "" && ref.Host == c.Request.Host {
		back = ref.RequestURI()
	}
	redirect(c, back)
}
