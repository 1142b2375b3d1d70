package form

import (
	"embed"
	"html/template"
	"io"

	"github.com/aapbuilder/backend/internal/i18n"
	"github.com/aapbuilder/backend/internal/status"
)

//go:embed templates/*.html
var templateFS embed.FS

func baseFuncs() template.FuncMap {
	return template.FuncMap{
		"t": func(key string, pairs ...string) string { return key },
		"add": func(a, b int) int {
			return a + b
		},
		"statusLabel": func(s status.Status) string { return string(s) },
	}
}

func parseTemplates() *template.Template {
	return template.Must(template.New("form").Funcs(baseFuncs()).ParseFS(templateFS, "templates/*.html"))
}

// Templates returns a copy of the widget templates bound to a language, so
// pages can embed the "widget" and "section" partials.
func (r *Renderer) Templates(lang string) (*template.Template, error) {
	tr := r.bundle.Translator(lang)
	t, err := r.tpl.Clone()
	if err != nil {
		return nil, err
	}
	return t.Funcs(Funcs(tr)), nil
}

// Funcs are the language-bound template helpers.
func Funcs(tr *i18n.Translator) template.FuncMap {
	return template.FuncMap{
		"t": tr.Tf,
		"statusLabel": func(s status.Status) string {
			return tr.T("status."+string(s), nil)
		},
	}
}

// SectionView is the data of a wizard step.
type SectionView struct {
	FileID string
	Step   int
	Total  int
	Widget *Widget
	Status status.Status
}

// RenderWidget writes the HTML of one widget.
func (r *Renderer) RenderWidget(w io.Writer, fileID string, widget *Widget, lang string) error {
	t, err := r.Templates(lang)
	if err != nil {
		return err
	}
	return t.ExecuteTemplate(w, "widget", WidgetData{FileID: fileID, W: widget})
}

// RenderMeta writes the status badge and character counter of a widget,
// the part of a text input refreshed while typing.
func (r *Renderer) RenderMeta(w io.Writer, fileID string, widget *Widget, lang string) error {
	t, err := r.Templates(lang)
	if err != nil {
		return err
	}
	return t.ExecuteTemplate(w, "meta", WidgetData{FileID: fileID, W: widget})
}

// RenderSection writes the HTML of a whole wizard step.
func (r *Renderer) RenderSection(w io.Writer, view SectionView, lang string) error {
	t, err := r.Templates(lang)
	if err != nil {
		return err
	}
	return t.ExecuteTemplate(w, "section", view)
}

// WidgetData is the template data of the "widget" partial.
type WidgetData struct {
	FileID string
	W      *Widget
}

// Children pairs each child widget with the file id for nested rendering.
func (d WidgetData) Children() []WidgetData {
	out := make([]WidgetData, len(d.W.Children))
	for i, c := range d.W.Children {
		out[i] = WidgetData{FileID: d.FileID, W: c}
	}
	return out
}

// Root wraps the section widget for the "widget" partial.
func (v SectionView) Root() WidgetData {
	return WidgetData{FileID: v.FileID, W: v.Widget}
}
