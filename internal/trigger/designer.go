// Package trigger assembles trigger statements from up to three structured
// phases, with hazard-specific guidance for each input.
package trigger

import (
	"errors"
	"fmt"
)

var (
	ErrMaxPhases        = errors.New("maximum number of phases reached")
	ErrMinPhases        = errors.New("at least one phase is required")
	ErrPhaseIndex       = errors.New("phase index out of range")
	ErrUnknownField     = errors.New("unknown phase field")
	ErrPhasesIncomplete = errors.New("every phase needs a title, source, threshold and lead time")
)

// Designer edits the phase list of one trigger question.
type Designer struct {
	hazard string
	phases []Phase
	t      Translator
}

// New returns a designer holding the single default phase.
func New(hazardLabel string, t Translator) *Designer {
	d := &Designer{hazard: hazardLabel, t: t}
	d.phases = d.defaults()
	return d
}

// Restore returns a designer over previously saved phases. An empty list
// yields the default phase; extra phases beyond the maximum are dropped.
func Restore(hazardLabel string, phases []Phase, t Translator) *Designer {
	if len(phases) == 0 {
		return New(hazardLabel, t)
	}
	if len(phases) > MaxPhases {
		phases = phases[:MaxPhases]
	}
	d := &Designer{hazard: hazardLabel, t: t, phases: make([]Phase, len(phases))}
	copy(d.phases, phases)
	return d
}

func (d *Designer) defaults() []Phase {
	return []Phase{{Title: DefaultTitle(1, d.t)}}
}

// Hazard returns the hazard label the designer was built for.
func (d *Designer) Hazard() string { return d.hazard }

// Phases returns a copy of the current phases.
func (d *Designer) Phases() []Phase {
	out := make([]Phase, len(d.phases))
	copy(out, d.phases)
	return out
}

// Placeholders returns the input hints for the current hazard.
func (d *Designer) Placeholders() Placeholders {
	return PlaceholdersFor(d.hazard, d.t)
}

// CanAdd reports whether another phase fits.
func (d *Designer) CanAdd() bool { return len(d.phases) < MaxPhases }

// CanRemove reports whether a phase may be removed.
func (d *Designer) CanRemove() bool { return len(d.phases) > MinPhases }

// AddPhase appends a phase titled for its position.
func (d *Designer) AddPhase() error {
	if !d.CanAdd() {
		return ErrMaxPhases
	}
	d.phases = append(d.phases, Phase{Title: DefaultTitle(len(d.phases)+1, d.t)})
	return nil
}

// RemovePhase deletes the phase at index i.
func (d *Designer) RemovePhase(i int) error {
	if i < 0 || i >= len(d.phases) {
		return fmt.Errorf("%w: %d", ErrPhaseIndex, i)
	}
	if !d.CanRemove() {
		return ErrMinPhases
	}
	d.phases = append(d.phases[:i:i], d.phases[i+1:]...)
	return nil
}

// UpdatePhase sets one field of the phase at index i.
func (d *Designer) UpdatePhase(i int, field, value string) error {
	if i < 0 || i >= len(d.phases) {
		return fmt.Errorf("%w: %d", ErrPhaseIndex, i)
	}
	p, err := d.phases[i].With(field, value)
	if err != nil {
		return err
	}
	d.phases[i] = p
	return nil
}

// CanGenerate reports whether every phase is complete.
func (d *Designer) CanGenerate() bool {
	for _, p := range d.phases {
		if !p.Complete() {
			return false
		}
	}
	return len(d.phases) > 0
}

// Generate renders the combined trigger statement.
func (d *Designer) Generate() (string, error) {
	if !d.CanGenerate() {
		return "", ErrPhasesIncomplete
	}
	return Render(d.phases), nil
}

// Reset discards all phases and starts over for a new hazard.
func (d *Designer) Reset(hazardLabel string) {
	d.hazard = hazardLabel
	d.phases = d.defaults()
}
