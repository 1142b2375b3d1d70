// Package form maps template nodes onto input widgets, applies edits to the
// answer store and renders the widgets as HTML fragments.
package form

import (
	"html/template"
	"strings"
	"unicode/utf8"

	"github.com/aapbuilder/backend/internal/schema"
	"github.com/aapbuilder/backend/internal/status"
	"github.com/aapbuilder/backend/internal/trigger"
)

const (
	// CollapsedRows is the height of a collapsed textarea.
	CollapsedRows = 4
	// charsPerLine approximates how many characters fit on one textarea line.
	charsPerLine = 72
)

// Settings exposes the per-instance display state of hints, examples and
// textareas.
type Settings interface {
	HintVisible(key string) bool
	ExampleVisible(key string) bool
	Expanded(key string) bool
}

// HintKey, ExampleKey and ExpandKey name the settings entries of a node.
// Path segments are joined with "." since ids are slugs that contain "-".
func HintKey(p schema.Path) string    { return "hint-" + p.Join(keySep) }
func ExampleKey(p schema.Path) string { return "example-" + p.Join(keySep) }
func ExpandKey(p schema.Path) string  { return "expand-" + p.Join(keySep) }

const (
	keySep       = "."
	legacyKeySep = "-"
)

// LegacySettingKeys maps the dash-joined settings keys older files were
// saved with to the current keys of the node at p.
func LegacySettingKeys(p schema.Path) map[string]string {
	old := p.Join(legacyKeySep)
	return map[string]string{
		"hint-" + old:    HintKey(p),
		"example-" + old: ExampleKey(p),
		"expand-" + old:  ExpandKey(p),
	}
}

// FieldName encodes a path for form posts.
func FieldName(p schema.Path) string { return p.Join(".") }

// ParseFieldName is the inverse of FieldName.
func ParseFieldName(s string) schema.Path { return schema.ParsePath(s, ".") }

// Option is one selectable choice.
type Option struct {
	Value    string
	Label    string
	Icon     string
	Selected bool
}

// PhaseView is one phase of a trigger designer.
type PhaseView struct {
	Index  int
	Number int
	trigger.Phase
}

// TriggerView is the state of a trigger designer widget.
type TriggerView struct {
	Hazard           string
	HazardIcon       string
	HasHazard        bool
	Phases           []PhaseView
	Placeholders     trigger.Placeholders
	CanAdd           bool
	CanRemove        bool
	CanGenerate      bool
	GeneratorVisible bool
}

// Widget is the view model of one node.
type Widget struct {
	Kind     schema.Kind
	ID       string
	Path     schema.Path
	Field    string
	Title    string
	Depth    int
	Required bool
	Summary  bool

	Value       string
	Values      []string
	Display     string
	Placeholder string
	Options     []Option

	Limit     int
	Count     int
	OverLimit bool

	Hint           template.HTML
	Example        template.HTML
	HintKey        string
	ExampleKey     string
	HintVisible    bool
	ExampleVisible bool

	Rows       int
	Expandable bool
	Expanded   bool
	ExpandKey  string

	Trigger *TriggerView
	Status  status.Status

	Children []*Widget
}

// KindName is used by templates to pick a partial.
func (w *Widget) KindName() string {
	if w.Kind == schema.KindNone {
		return "container"
	}
	return w.Kind.String()
}

// HasInput reports whether the widget carries an input.
func (w *Widget) HasInput() bool { return w.Kind.IsInput() }

// DOMID is a stable element id for the widget.
func (w *Widget) DOMID() string { return "field-" + w.Path.Join("-") }

// estimateLines approximates the wrapped line count of text in a collapsed
// textarea.
func estimateLines(text string) int {
	if text == "" {
		return 0
	}
	lines := 0
	for _, l := range strings.Split(text, "\n") {
		n := utf8.RuneCountInString(l)
		wrapped := (n + charsPerLine - 1) / charsPerLine
		if wrapped == 0 {
			wrapped = 1
		}
		lines += wrapped
	}
	return lines
}
