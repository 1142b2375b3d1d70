package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aapbuilder/backend/internal/answers"
	"github.com/aapbuilder/backend/internal/i18n"
	"github.com/aapbuilder/backend/internal/schema"
)

var (
	ErrInvalidOption  = errors.New("value is not one of the options")
	ErrUnknownCountry = errors.New("unknown country")
	ErrInvalidDate    = errors.New("invalid date")
	ErrNotEditable    = errors.New("node has no input")
)

// Edit is a change to one field.
type Edit struct {
	// Value replaces a single value. An empty Value clears the field.
	Value string `json:"value"`
	// Values replaces the whole selection of a checkbox.
	Values []string `json:"values,omitempty"`
	// Toggle flips one checkbox option, or clears a radio when it names the
	// current selection.
	Toggle string `json:"toggle,omitempty"`
}

// Apply validates e against node and writes the result to store at path.
// The store is left untouched when an error is returned.
func (r *Renderer) Apply(store *answers.Store, node *schema.Node, path schema.Path, e Edit, lang string) (answers.Value, error) {
	if node == nil || !node.IsLeaf() {
		return answers.Value{}, ErrNotEditable
	}
	var v answers.Value
	switch node.Kind {
	case schema.KindText, schema.KindTextarea, schema.KindTriggerDesigner:
		v = answers.Text(e.Value)
	case schema.KindDropdown:
		if node.ID == "country" && r.countries != nil {
			code, err := r.countryCode(e.Value, lang)
			if err != nil {
				return answers.Value{}, err
			}
			v = answers.Text(code)
			break
		}
		if err := checkOption(node, e.Value); err != nil {
			return answers.Value{}, err
		}
		v = answers.Text(e.Value)
	case schema.KindRadio:
		if e.Toggle != "" {
			if err := checkOption(node, e.Toggle); err != nil {
				return answers.Value{}, err
			}
			if store.Get(path).String() == e.Toggle {
				v = answers.Text("")
			} else {
				v = answers.Text(e.Toggle)
			}
			break
		}
		if err := checkOption(node, e.Value); err != nil {
			return answers.Value{}, err
		}
		v = answers.Text(e.Value)
	case schema.KindCheckbox:
		if e.Toggle != "" {
			if err := checkOption(node, e.Toggle); err != nil {
				return answers.Value{}, err
			}
			return store.Toggle(path, e.Toggle), nil
		}
		items, err := selection(node, e.Values)
		if err != nil {
			return answers.Value{}, err
		}
		v = answers.List(items...)
	case schema.KindDatepicker:
		iso, err := r.date(e.Value, lang)
		if err != nil {
			return answers.Value{}, err
		}
		v = answers.Text(iso)
	case schema.KindNone:
		return answers.Value{}, ErrNotEditable
	}
	store.Set(path, v)
	return v, nil
}

func checkOption(node *schema.Node, value string) error {
	if value == "" {
		return nil
	}
	for _, o := range node.Options {
		if o == value {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidOption, value)
}

// selection validates a checkbox list and drops duplicates, keeping order.
func selection(node *schema.Node, values []string) ([]string, error) {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if err := checkOption(node, v); err != nil {
			return nil, err
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

func (r *Renderer) countryCode(value, lang string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	code, ok := r.countries.Lookup(value, lang, i18n.DefaultLanguage)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCountry, value)
	}
	return code, nil
}

func (r *Renderer) date(value, lang string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	d, err := r.bundle.Translator(lang).ParseDate(value)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return d.Format(i18n.ISODate), nil
}
