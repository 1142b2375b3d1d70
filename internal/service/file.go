package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aapbuilder/backend/config"
	"github.com/aapbuilder/backend/internal/answers"
	"github.com/aapbuilder/backend/internal/country"
	"github.com/aapbuilder/backend/internal/docgen"
	"github.com/aapbuilder/backend/internal/domain"
	"github.com/aapbuilder/backend/internal/form"
	"github.com/aapbuilder/backend/internal/hazard"
	"github.com/aapbuilder/backend/internal/i18n"
	"github.com/aapbuilder/backend/internal/model"
	"github.com/aapbuilder/backend/internal/repository"
	"github.com/aapbuilder/backend/internal/schema"
	"github.com/aapbuilder/backend/internal/status"
	"github.com/aapbuilder/backend/internal/subscriber"
	"github.com/aapbuilder/backend/internal/trigger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"k8s.io/klog/v2"
)

var (
	ErrFileNotFound  = errors.New("file not found")
	ErrFieldNotFound = errors.New("field not found in template")
	ErrNotTrigger    = errors.New("field is not a trigger designer")
)

// Workspace is a loaded file together with its template and the active
// language.
type Workspace struct {
	File       *domain.Instance
	Template   *schema.Template
	Translator *i18n.Translator
}

func (w *Workspace) Lang() string { return w.Translator.Lang() }

// FileService implements the use cases of document instances.
type FileService struct {
	cfg       *config.Config
	repo      repository.FileRepository
	templates *TemplateService
	locale    *LocaleService
	renderer  *form.Renderer
	countries *country.Provider
	locks     *keyedMutex
	audit     *subscriber.FileEventSubscriber
	now       func() time.Time
}

func NewFileService(cfg *config.Config, repo repository.FileRepository, templates *TemplateService, locale *LocaleService, renderer *form.Renderer, countries *country.Provider) *FileService {
	return &FileService{
		cfg:       cfg,
		repo:      repo,
		templates: templates,
		locale:    locale,
		renderer:  renderer,
		countries: countries,
		locks:     newKeyedMutex(),
		audit:     subscriber.NewFileEventSubscriber(),
		now:       time.Now,
	}
}

func (s *FileService) Renderer() *form.Renderer { return s.renderer }

type CreateFileRequest struct {
	// Template is a catalog id or a template URL.
	Template string `json:"template" form:"template" binding:"required"`
	Name     string `json:"name" form:"name"`
}

// Create loads the template and starts an empty file for it.
func (s *FileService) Create(ctx context.Context, req CreateFileRequest) (*domain.Instance, error) {
	url, err := s.templates.Resolve(req.Template)
	if err != nil {
		return nil, err
	}
	tpl, err := s.templates.Load(ctx, url)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = s.templates.DisplayName(url, tpl)
	}
	inst := domain.NewInstance(name, url)
	f, err := toModel(inst)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(f); err != nil {
		return nil, err
	}
	klog.V(6).Infof("file created: id=%s, template=%s", inst.ID, url)
	return inst, nil
}

// FileSummary is one row of the dashboard.
type FileSummary struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	TemplateURL  string          `json:"templateUrl"`
	TemplateName string          `json:"templateName"`
	Hazard       string          `json:"hazard"`
	HazardIcon   string          `json:"hazardIcon"`
	Country      string          `json:"country"`
	CountryName  string          `json:"countryName"`
	Custodian    string          `json:"custodian"`
	ActiveStep   int             `json:"activeStep"`
	Status       *status.Summary `json:"status,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// List returns the dashboard rows, most recent first. Templates are read
// from the cache only; a file whose template is not cached has no status.
func (s *FileService) List() ([]FileSummary, error) {
	files, err := s.repo.List()
	if err != nil {
		return nil, err
	}
	lang := s.locale.Current()
	out := make([]FileSummary, 0, len(files))
	for i := range files {
		inst := fromModel(&files[i])
		tpl, err := s.templates.Cached(inst.TemplateURL)
		if err != nil {
			tpl = nil
		}
		out = append(out, s.summarize(inst, tpl, lang))
	}
	return out, nil
}

func (s *FileService) summarize(inst *domain.Instance, tpl *schema.Template, lang string) FileSummary {
	hz := trigger.HazardOf(inst.Answers)
	code := inst.Answers.Get(schema.Path{schema.SummaryID, "country"}).String()
	sum := FileSummary{
		ID:           inst.ID,
		Name:         inst.Name,
		TemplateURL:  inst.TemplateURL,
		TemplateName: s.templates.DisplayName(inst.TemplateURL, tpl),
		Hazard:       hz,
		HazardIcon:   hazard.Icon(hz),
		Country:      code,
		Custodian:    inst.Answers.Get(schema.Path{schema.SummaryID, "custodian-organisation"}).String(),
		ActiveStep:   inst.ActiveStep,
		CreatedAt:    inst.CreatedAt,
		UpdatedAt:    inst.UpdatedAt,
	}
	if code != "" && s.countries != nil {
		sum.CountryName = s.countries.Name(lang, code)
	}
	if tpl != nil {
		migrateAnswers(inst, tpl)
		r := status.Report(tpl.Sections, inst.Answers)
		sum.Status = &r
	}
	return sum
}

// Get loads a file with its template.
func (s *FileService) Get(ctx context.Context, id string) (*Workspace, error) {
	f, err := s.repo.Get(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, id)
		}
		return nil, err
	}
	inst := fromModel(f)
	inst.SetClock(s.now)
	tpl, err := s.templates.Get(ctx, inst.TemplateURL)
	if err != nil {
		return nil, err
	}
	migrateAnswers(inst, tpl)
	tr := s.locale.Translator()
	inst.WatchHazard(tpl, tr)
	s.audit.Register(inst.Bus())
	return &Workspace{File: inst, Template: tpl, Translator: tr}, nil
}

// migrateAnswers re-keys answers saved under legacy keys onto the nodes of
// tpl. The result is persisted with the next save.
func migrateAnswers(inst *domain.Instance, tpl *schema.Template) {
	n := inst.Answers.Migrate(tpl) + trigger.MigratePhases(tpl.Sections, inst.Answers)
	if n > 0 {
		klog.V(6).Infof("migrated %d legacy answer keys: file=%s", n, inst.ID)
	}
	if m := migrateSettings(inst.Settings, tpl); m > 0 {
		klog.V(6).Infof("migrated %d legacy setting keys: file=%s", m, inst.ID)
	}
}

// migrateSettings renames dash-joined settings keys to the keys of the node
// they belong to. A legacy key shared by several nodes, or equal to the
// current key of another node, is left alone.
func migrateSettings(settings *domain.Settings, tpl *schema.Template) int {
	if settings == nil {
		return 0
	}
	claims := map[string][]string{}
	current := map[string]bool{}
	_ = schema.Walk(tpl.Sections, func(c schema.Cursor) error {
		for old, key := range form.LegacySettingKeys(c.Path) {
			current[key] = true
			if old != key {
				claims[old] = append(claims[old], key)
			}
		}
		return nil
	}, nil)
	olds := make([]string, 0, len(claims))
	for old := range claims {
		olds = append(olds, old)
	}
	sort.Strings(olds)
	n := 0
	for _, old := range olds {
		if current[old] || len(claims[old]) != 1 {
			continue
		}
		if settings.Rename(old, claims[old][0]) {
			n++
		}
	}
	return n
}

func (s *FileService) Delete(id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()
	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, id)
		}
		return err
	}
	return nil
}

// mutate runs fn on a fresh copy of the file and persists the result.
// Mutations of one file are serialized.
func (s *FileService) mutate(ctx context.Context, id string, fn func(ws *Workspace) error) (*Workspace, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	ws, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(ws); err != nil {
		return nil, err
	}
	f, err := toModel(ws.File)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(f); err != nil {
		return nil, err
	}
	return ws, nil
}

// FieldResult is the outcome of a field edit.
type FieldResult struct {
	*Workspace
	Path  schema.Path
	Node  *schema.Node
	Value answers.Value
}

// UpdateField validates an edit of the question at path and writes it
// through.
func (s *FileService) UpdateField(ctx context.Context, id string, path schema.Path, e form.Edit) (*FieldResult, error) {
	res := &FieldResult{Path: path}
	ws, err := s.mutate(ctx, id, func(ws *Workspace) error {
		node := ws.Template.Lookup(path)
		if node == nil {
			return fmt.Errorf("%w: %s", ErrFieldNotFound, path)
		}
		old := ws.File.Answers.Get(path)
		v, err := s.renderer.Apply(ws.File.Answers, node, path, e, ws.Lang())
		if err != nil {
			return err
		}
		res.Node, res.Value = node, v
		return ws.File.AnswerChanged(ctx, path, old)
	})
	if err != nil {
		return nil, err
	}
	res.Workspace = ws
	return res, nil
}

// SetStep moves the wizard of a file.
func (s *FileService) SetStep(ctx context.Context, id string, step int) (*Workspace, error) {
	return s.mutate(ctx, id, func(ws *Workspace) error {
		return ws.File.SetStep(ctx, step, len(ws.Template.Sections))
	})
}

// ToggleSetting flips one hint, example or expansion flag.
func (s *FileService) ToggleSetting(ctx context.Context, id, key string) (bool, error) {
	var v bool
	_, err := s.mutate(ctx, id, func(ws *Workspace) error {
		var err error
		v, err = ws.File.ToggleSetting(ctx, key)
		return err
	})
	return v, err
}

// SetDisplayAll sets the always-display flags of hints and examples.
// Per-node flags are kept.
func (s *FileService) SetDisplayAll(ctx context.Context, id string, hints, examples bool) (*domain.Settings, error) {
	ws, err := s.mutate(ctx, id, func(ws *Workspace) error {
		next := ws.File.Settings.Clone()
		next.AlwaysDisplayAllHints = hints
		next.AlwaysDisplayAllExamples = examples
		return ws.File.ReplaceSettings(ctx, *next)
	})
	if err != nil {
		return nil, err
	}
	return ws.File.Settings, nil
}

// Status reports the status of every section.
func (s *FileService) Status(ctx context.Context, id string) (status.Summary, error) {
	ws, err := s.Get(ctx, id)
	if err != nil {
		return status.Summary{}, err
	}
	return status.Report(ws.Template.Sections, ws.File.Answers), nil
}

// Section builds the view of one wizard step.
func (s *FileService) Section(ws *Workspace, step int) (form.SectionView, error) {
	if step < 0 || step >= len(ws.Template.Sections) {
		return form.SectionView{}, fmt.Errorf("%w: %d of %d", domain.ErrStepRange, step, len(ws.Template.Sections))
	}
	sec := ws.Template.Sections[step]
	w := s.renderer.Build(sec, schema.Path{sec.ID}, ws.File.Answers, ws.File.Settings, ws.Lang())
	return form.SectionView{
		FileID: ws.File.ID,
		Step:   step,
		Total:  len(ws.Template.Sections),
		Widget: w,
		Status: status.Compute(sec, ws.File.Answers),
	}, nil
}

// Export renders the file as a .docx document.
func (s *FileService) Export(ctx context.Context, id string) ([]byte, string, error) {
	ws, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	opts := []docgen.Option{
		docgen.WithTranslator(ws.Lang(), ws.Translator),
		docgen.WithClock(s.now),
	}
	if s.countries != nil {
		opts = append(opts, docgen.WithCountries(s.countries))
	}
	if t := s.cfg.Export.Title; t != "" && t != docgen.DefaultTitle {
		opts = append(opts, docgen.WithTitle(t))
	}
	data, filename, err := docgen.NewGenerator(opts...).Export(ws.Template, ws.File.Answers.Clone())
	if err != nil {
		return nil, "", err
	}
	klog.V(6).Infof("file exported: id=%s, name=%s, bytes=%d", id, filename, len(data))
	return data, filename, nil
}

// ExportJSON returns the portable form of a file.
func (s *FileService) ExportJSON(id string) ([]byte, string, error) {
	f, err := s.repo.Get(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: %s", ErrFileNotFound, id)
		}
		return nil, "", err
	}
	rec, err := fromModel(f).Record()
	if err != nil {
		return nil, "", err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("AAP_%s.json", f.ID), nil
}

// Import stores an exported file. An id already in use is replaced by a
// new one so nothing is overwritten.
func (s *FileService) Import(ctx context.Context, data []byte) (*domain.Instance, error) {
	inst, err := domain.DecodeRecord(data)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.Get(inst.ID); err == nil {
		inst.ID = uuid.NewString()
	}
	if _, err := s.templates.Get(ctx, inst.TemplateURL); err != nil {
		klog.Warningf("imported file %s: template %s unavailable: %v", inst.ID, inst.TemplateURL, err)
	}
	f, err := toModel(inst)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(f); err != nil {
		return nil, err
	}
	return inst, nil
}

func toModel(inst *domain.Instance) (*model.File, error) {
	data, err := json.Marshal(inst.Answers)
	if err != nil {
		return nil, err
	}
	settings, err := json.Marshal(inst.Settings)
	if err != nil {
		return nil, err
	}
	return &model.File{
		ID:          inst.ID,
		Name:        inst.Name,
		TemplateURL: inst.TemplateURL,
		Answers:     datatypes.JSON(data),
		Settings:    datatypes.JSON(settings),
		ActiveStep:  inst.ActiveStep,
		CreatedAt:   inst.CreatedAt,
		UpdatedAt:   inst.UpdatedAt,
	}, nil
}

func fromModel(f *model.File) *domain.Instance {
	return domain.Restore(f.ID, f.Name, f.TemplateURL, f.Answers, f.Settings, f.ActiveStep, f.CreatedAt, f.UpdatedAt)
}
