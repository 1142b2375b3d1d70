package handler

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/aapbuilder/backend/internal/form"
	"github.com/aapbuilder/backend/internal/schema"
	"github.com/aapbuilder/backend/internal/service"
	"github.com/aapbuilder/backend/internal/status"
	"github.com/aapbuilder/backend/internal/trigger"
	"github.com/gin-gonic/gin"
)

const maxImportSize = 10 << 20

type FileHandler struct {
	service *service.FileService
}

// NewFileHandler creates a FileHandler.
func NewFileHandler(service *service.FileService) *FileHandler {
	return &FileHandler{service: service}
}

// List returns the dashboard entries.
func (h *FileHandler) List(c *gin.Context) {
	files, err := h.service.List()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

// Create starts a file from a template.
func (h *FileHandler) Create(c *gin.Context) {
	var req service.CreateFileRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	inst, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	rec, err := inst.Record()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

type fileResponse struct {
	File     any             `json:"file"`
	Template schema.Metadata `json:"template"`
	Sections []sectionInfo   `json:"sections"`
	Status   status.Summary  `json:"status"`
}

type sectionInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Get returns a file with its template.
func (h *FileHandler) Get(c *gin.Context) {
	ws, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	rec, err := ws.File.Record()
	if err != nil {
		fail(c, err)
		return
	}
	resp := fileResponse{
		File:     rec,
		Template: ws.Template.Metadata,
		Status:   status.Report(ws.Template.Sections, ws.File.Answers),
	}
	for _, s := range ws.Template.Sections {
		resp.Sections = append(resp.Sections, sectionInfo{ID: s.ID, Title: s.Title})
	}
	c.JSON(http.StatusOK, resp)
}

// Delete removes a file.
func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	if isHTMX(c) {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// ExportJSON downloads the portable JSON record of a file.
func (h *FileHandler) ExportJSON(c *gin.Context) {
	data, filename, err := h.service.ExportJSON(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	attachment(c, "application/json", filename, data)
}

// Import reads a JSON record from a multipart upload or the raw body.
func (h *FileHandler) Import(c *gin.Context) {
	var data []byte
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()
		data, err = io.ReadAll(io.LimitReader(f, maxImportSize))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	} else {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportSize))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		data = body
	}
	if len(bytes.TrimSpace(data)) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty import"})
		return
	}

	inst, err := h.service.Import(c.Request.Context(), data)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": inst.ID, "name": inst.Name})
}

type answerRequest struct {
	Field  string   `json:"field" form:"field" binding:"required"`
	Value  string   `json:"value" form:"value"`
	Values []string `json:"values" form:"values"`
	Toggle string   `json:"toggle" form:"toggle"`
}

// UpdateAnswer edits one field.
func (h *FileHandler) UpdateAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, ok := fieldPath(req.Field)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid field"})
		return
	}
	res, err := h.service.UpdateField(c.Request.Context(), c.Param("id"), p, form.Edit{Value: req.Value, Values: req.Values, Toggle: req.Toggle})
	if err != nil {
		fail(c, err)
		return
	}
	sec := res.Template.Section(p.Section())
	c.JSON(http.StatusOK, gin.H{
		"field":         form.FieldName(p),
		"value":         res.Value,
		"status":        status.ComputeAt(res.Node, p, res.File.Answers),
		"sectionStatus": status.Compute(sec, res.File.Answers),
		"updatedAt":     res.File.UpdatedAt,
	})
}

// SetStep moves the wizard.
func (h *FileHandler) SetStep(c *gin.Context) {
	var req struct {
		Step *int `json:"step" form:"step" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ws, err := h.service.SetStep(c.Request.Context(), c.Param("id"), *req.Step)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activeStep": ws.File.ActiveStep})
}

// UpdateSettings sets the always-display flags.
func (h *FileHandler) UpdateSettings(c *gin.Context) {
	var req struct {
		AlwaysDisplayAllHints    bool `json:"alwaysDisplayAllHints" form:"alwaysDisplayAllHints"`
		AlwaysDisplayAllExamples bool `json:"alwaysDisplayAllExamples" form:"alwaysDisplayAllExamples"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, err := h.service.SetDisplayAll(c.Request.Context(), c.Param("id"), req.AlwaysDisplayAllHints, req.AlwaysDisplayAllExamples)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// ToggleSetting flips one per-node display flag.
func (h *FileHandler) ToggleSetting(c *gin.Context) {
	var req struct {
		Key string `json:"key" form:"key" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	v, err := h.service.ToggleSetting(c.Request.Context(), c.Param("id"), req.Key)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": req.Key, "value": v})
}

// Status returns the status of every section.
func (h *FileHandler) Status(c *gin.Context) {
	sum, err := h.service.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// Export downloads the docx document.
func (h *FileHandler) Export(c *gin.Context) {
	data, filename, err := h.service.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	attachment(c, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", filename, data)
}

type phaseRequest struct {
	Field       string  `json:"field" form:"field" binding:"required"`
	PhaseTitle  *string `json:"phaseTitle" form:"phaseTitle"`
	Source      *string `json:"source" form:"source"`
	Threshold   *string `json:"threshold" form:"threshold"`
	LeadTime    *string `json:"leadTime" form:"leadTime"`
	Probability *string `json:"probability" form:"probability"`
}

func (r phaseRequest) fields() map[string]string {
	out := map[string]string{}
	for name, v := range map[string]*string{
		trigger.FieldTitle:       r.PhaseTitle,
		trigger.FieldSource:      r.Source,
		trigger.FieldThreshold:   r.Threshold,
		trigger.FieldLeadTime:    r.LeadTime,
		trigger.FieldProbability: r.Probability,
	} {
		if v != nil {
			out[name] = *v
		}
	}
	return out
}

func (h *FileHandler) triggerField(c *gin.Context, field string) (schema.Path, bool) {
	p, ok := fieldPath(field)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid field"})
	}
	return p, ok
}

func phaseIndex(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phase index"})
		return 0, false
	}
	return i, true
}

// AddPhase appends a trigger phase.
func (h *FileHandler) AddPhase(c *gin.Context) {
	var req struct {
		Field string `json:"field" form:"field" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, ok := h.triggerField(c, req.Field)
	if !ok {
		return
	}
	res, err := h.service.AddPhase(c.Request.Context(), c.Param("id"), p)
	h.respondTrigger(c, res, err)
}

// UpdatePhase edits fields of one phase.
func (h *FileHandler) UpdatePhase(c *gin.Context) {
	i, ok := phaseIndex(c)
	if !ok {
		return
	}
	var req phaseRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, ok := h.triggerField(c, req.Field)
	if !ok {
		return
	}
	fields := req.fields()
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no phase field given"})
		return
	}
	res, err := h.service.UpdatePhaseFields(c.Request.Context(), c.Param("id"), p, i, fields)
	h.respondTrigger(c, res, err)
}

// RemovePhase deletes a phase.
func (h *FileHandler) RemovePhase(c *gin.Context) {
	i, ok := phaseIndex(c)
	if !ok {
		return
	}
	p, ok := h.triggerField(c, c.Query("field"))
	if !ok {
		return
	}
	res, err := h.service.RemovePhase(c.Request.Context(), c.Param("id"), p, i)
	h.respondTrigger(c, res, err)
}

// Generate renders the trigger statement.
func (h *FileHandler) Generate(c *gin.Context) {
	var req struct {
		Field string `json:"field" form:"field" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, ok := h.triggerField(c, req.Field)
	if !ok {
		return
	}
	res, err := h.service.GenerateTrigger(c.Request.Context(), c.Param("id"), p)
	h.respondTrigger(c, res, err)
}

// respondTrigger answers with the re-rendered widget for htmx requests and
// with the designer state otherwise.
func (h *FileHandler) respondTrigger(c *gin.Context, res *service.TriggerResult, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	if isHTMX(c) {
		r := h.service.Renderer()
		node := res.Template.Lookup(res.Path)
		w := r.Build(node, res.Path, res.File.Answers, res.File.Settings, res.Lang())
		var buf bytes.Buffer
		if err := r.RenderWidget(&buf, res.File.ID, w, res.Lang()); err != nil {
			fail(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
		return
	}
	d := res.Designer
	c.JSON(http.StatusOK, gin.H{
		"hazard":       d.Hazard(),
		"phases":       d.Phases(),
		"placeholders": d.Placeholders(),
		"canAdd":       d.CanAdd(),
		"canRemove":    d.CanRemove(),
		"canGenerate":  d.CanGenerate(),
		"combined":     res.Combined,
	})
}
