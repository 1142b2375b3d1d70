package trigger

import (
	"github.com/aapbuilder/backend/internal/answers"
	"github.com/aapbuilder/backend/internal/schema"
	"k8s.io/klog/v2"
)

// HazardPath is where the selected hazard is stored.
var HazardPath = schema.Path{schema.SummaryID, "hazard"}

// PhasesPath returns the path of the phase list kept next to the trigger
// question at p. For a question directly under its section this is the
// legacy (section, subsection+"-phases", "phases"); deeper questions get
// their own id suffixed under their parent.
func PhasesPath(p schema.Path) schema.Path {
	switch len(p) {
	case 0:
		return nil
	case 1, 2:
		key := answers.KeyOf(p)
		return schema.Path{key.Section, key.Subsection + "-phases", "phases"}
	}
	out := make(schema.Path, 0, len(p)+1)
	out = append(out, p.Parent()...)
	return append(out, p.Last()+"-phases", "phases")
}

func legacyPhasesPath(p schema.Path) schema.Path {
	key := answers.KeyOf(p)
	return schema.Path{key.Section, key.Subsection + "-phases", "phases"}
}

// MigratePhases moves phase lists saved under the legacy key of a nested
// trigger question to PhasesPath. It returns the number moved.
func MigratePhases(sections []*schema.Node, store *answers.Store) int {
	n := 0
	for _, c := range schema.Find(sections, schema.KindTriggerDesigner) {
		if store.Rename(legacyPhasesPath(c.Path), PhasesPath(c.Path)) {
			n++
		}
	}
	return n
}

// HazardOf returns the hazard selected in the store.
func HazardOf(store *answers.Store) string {
	return store.Get(HazardPath).String()
}

// Load rebuilds the designer of the trigger question at p. Unreadable
// phase data is replaced by the default phase.
func Load(store *answers.Store, p schema.Path, t Translator) *Designer {
	hz := HazardOf(store)
	v, ok := store.Lookup(PhasesPath(p))
	if !ok {
		return New(hz, t)
	}
	var phases []Phase
	if err := v.Decode(&phases); err != nil {
		klog.Warningf("trigger phases at %s unreadable, using defaults: %v", p, err)
		return New(hz, t)
	}
	return Restore(hz, phases, t)
}

// Save writes the phase list next to the trigger question at p.
func (d *Designer) Save(store *answers.Store, p schema.Path) error {
	v, err := answers.Record(d.phases)
	if err != nil {
		return err
	}
	store.Set(PhasesPath(p), v)
	return nil
}

// GenerateInto renders the statement and stores it as the question's answer.
func (d *Designer) GenerateInto(store *answers.Store, p schema.Path) (string, error) {
	text, err := d.Generate()
	if err != nil {
		return "", err
	}
	store.Set(p, answers.Text(text))
	return text, nil
}

// ResetAll replaces the phases of every trigger question in sections with the
// default phase for the currently selected hazard. Combined texts are kept.
// It returns the number of questions reset.
func ResetAll(sections []*schema.Node, store *answers.Store, t Translator) (int, error) {
	hz := HazardOf(store)
	n := 0
	for _, c := range schema.Find(sections, schema.KindTriggerDesigner) {
		if err := New(hz, t).Save(store, c.Path); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
