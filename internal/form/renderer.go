package form

import (
	"html/template"

	"github.com/aapbuilder/backend/internal/answers"
	"github.com/aapbuilder/backend/internal/country"
	"github.com/aapbuilder/backend/internal/hazard"
	"github.com/aapbuilder/backend/internal/i18n"
	"github.com/aapbuilder/backend/internal/schema"
	"github.com/aapbuilder/backend/internal/status"
	"github.com/aapbuilder/backend/internal/trigger"
	"github.com/microcosm-cc/bluemonday"
)

// CountryProvider supplies the country dropdown.
type CountryProvider interface {
	Countries(lang string) []country.Country
	Name(lang, value string) string
	Lookup(value string, langs ...string) (string, bool)
}

// Renderer builds widgets and renders them.
type Renderer struct {
	countries CountryProvider
	bundle    *i18n.Bundle
	policy    *bluemonday.Policy
	tpl       *template.Template
}

// NewRenderer returns a renderer using the embedded widget templates.
func NewRenderer(countries CountryProvider, bundle *i18n.Bundle) *Renderer {
	if bundle == nil {
		bundle = i18n.Default()
	}
	return &Renderer{
		countries: countries,
		bundle:    bundle,
		policy:    bluemonday.UGCPolicy(),
		tpl:       parseTemplates(),
	}
}

// Sanitize strips unsafe markup from template-provided help text.
func (r *Renderer) Sanitize(s string) template.HTML {
	return template.HTML(r.policy.Sanitize(s))
}

type buildCtx struct {
	r        *Renderer
	store    *answers.Store
	settings Settings
	tr       *i18n.Translator
	lang     string
	summary  bool
}

// Build returns the widget tree of node at path. It returns nil for a node
// with neither an input nor children.
func (r *Renderer) Build(node *schema.Node, path schema.Path, store *answers.Store, settings Settings, lang string) *Widget {
	if node == nil {
		return nil
	}
	if store == nil {
		store = answers.New()
	}
	ctx := &buildCtx{
		r:        r,
		store:    store,
		settings: settings,
		tr:       r.bundle.Translator(lang),
		lang:     lang,
		summary:  path.Section() == schema.SummaryID,
	}

	var root *Widget
	var stack []*Widget
	_ = schema.WalkFrom(node, path.Parent(), func(c schema.Cursor) error {
		stack = append(stack, ctx.widget(c))
		return nil
	}, func(c schema.Cursor) error {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !w.HasInput() && len(w.Children) == 0 {
			w = nil
		}
		if len(stack) == 0 {
			root = w
		} else if w != nil {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, w)
		}
		return nil
	})
	return root
}

func (ctx *buildCtx) widget(c schema.Cursor) *Widget {
	n := c.Node
	v := ctx.store.Get(c.Path)
	w := &Widget{
		Kind:        n.Kind,
		ID:          n.ID,
		Path:        c.Path,
		Field:       FieldName(c.Path),
		Title:       n.Title,
		Depth:       len(c.Path),
		Required:    n.Required,
		Summary:     ctx.summary,
		Placeholder: n.Placeholder,
		Limit:       n.CharacterLimit,
		HintKey:     HintKey(c.Path),
		ExampleKey:  ExampleKey(c.Path),
		ExpandKey:   ExpandKey(c.Path),
		Status:      status.ComputeAt(n, c.Path, ctx.store),
	}
	if !v.IsRaw() {
		w.Value = v.String()
		w.Values = v.Items()
	}
	if n.Hint != "" {
		w.Hint = ctx.r.Sanitize(n.Hint)
		w.HintVisible = ctx.settings != nil && ctx.settings.HintVisible(w.HintKey)
	}
	if n.Example != "" {
		w.Example = ctx.r.Sanitize(n.Example)
		w.ExampleVisible = ctx.settings != nil && ctx.settings.ExampleVisible(w.ExampleKey)
	}
	if n.CharacterLimit > 0 {
		w.Count = status.Length(v)
		w.OverLimit = status.OverLimit(n, v)
	}

	switch n.Kind {
	case schema.KindNone:
	case schema.KindText:
	case schema.KindTextarea:
		w.Rows = CollapsedRows
		w.Expandable = estimateLines(w.Value) > CollapsedRows
		w.Expanded = w.Expandable && ctx.settings != nil && ctx.settings.Expanded(w.ExpandKey)
	case schema.KindDropdown:
		ctx.dropdown(w, n)
	case schema.KindRadio:
		w.Options = ctx.options(n, v, n.ID == "hazard")
	case schema.KindCheckbox:
		w.Options = ctx.options(n, v, false)
	case schema.KindDatepicker:
		w.Display = ctx.tr.FormatDate(w.Value)
		if w.Placeholder == "" {
			w.Placeholder = ctx.tr.DatePlaceholder()
		}
	case schema.KindTriggerDesigner:
		w.Trigger = ctx.triggerView(c.Path, w.Value)
	}
	return w
}

func (ctx *buildCtx) dropdown(w *Widget, n *schema.Node) {
	if n.ID != "country" || ctx.r.countries == nil {
		w.Options = ctx.options(n, ctx.store.Get(w.Path), false)
		return
	}
	current := w.Value
	if code, ok := ctx.r.countries.Lookup(current, ctx.lang, i18n.DefaultLanguage); ok {
		current = code
	}
	for _, c := range ctx.r.countries.Countries(ctx.lang) {
		w.Options = append(w.Options, Option{Value: c.Code, Label: c.Name, Selected: c.Code == current})
	}
	if current != "" {
		w.Display = ctx.r.countries.Name(ctx.lang, current)
	}
}

func (ctx *buildCtx) options(n *schema.Node, v answers.Value, icons bool) []Option {
	out := make([]Option, 0, len(n.Options))
	for _, o := range n.Options {
		opt := Option{Value: o, Label: o, Selected: v.Contains(o)}
		if icons {
			opt.Icon = hazard.Icon(o)
		}
		out = append(out, opt)
	}
	return out
}

func (ctx *buildCtx) triggerView(p schema.Path, combined string) *TriggerView {
	d := trigger.Load(ctx.store, p, ctx.tr)
	hz := d.Hazard()
	view := &TriggerView{
		Hazard:           hz,
		HazardIcon:       hazard.Icon(hz),
		HasHazard:        hz != "",
		Placeholders:     d.Placeholders(),
		CanAdd:           d.CanAdd(),
		CanRemove:        d.CanRemove(),
		CanGenerate:      d.CanGenerate(),
		GeneratorVisible: combined == "",
	}
	for i, ph := range d.Phases() {
		view.Phases = append(view.Phases, PhaseView{Index: i, Number: i + 1, Phase: ph})
	}
	return view
}
