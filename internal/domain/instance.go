// Package domain holds the document instance aggregate: one user-facing
// file with its answers, wizard position and display settings.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aapbuilder/backend/internal/answers"
	"github.com/aapbuilder/backend/internal/eventbus"
	"github.com/aapbuilder/backend/internal/schema"
	"github.com/google/uuid"
)

var ErrStepRange = errors.New("step out of range")

// Instance is one document being filled in.
type Instance struct {
	ID          string
	Name        string
	TemplateURL string
	Answers     *answers.Store
	ActiveStep  int
	Settings    *Settings
	CreatedAt   time.Time
	UpdatedAt   time.Time

	bus *eventbus.FileEventBus
	now func() time.Time
}

// NewInstance creates an empty instance bound to the template at url.
func NewInstance(name, templateURL string) *Instance {
	inst := &Instance{
		ID:          uuid.NewString(),
		Name:        name,
		TemplateURL: templateURL,
		Answers:     answers.New(),
		Settings:    NewSettings(),
		bus:         eventbus.NewFileEventBus(),
		now:         time.Now,
	}
	inst.CreatedAt = inst.now()
	inst.UpdatedAt = inst.CreatedAt
	return inst
}

// Bus returns the instance's event bus.
func (i *Instance) Bus() *eventbus.FileEventBus {
	if i.bus == nil {
		i.bus = eventbus.NewFileEventBus()
	}
	return i.bus
}

// SetClock replaces the time source used to stamp mutations.
func (i *Instance) SetClock(now func() time.Time) { i.now = now }

func (i *Instance) touch() {
	if i.now == nil {
		i.now = time.Now
	}
	i.UpdatedAt = i.now()
}

// AnswerChanged stamps the instance and notifies observers of an edit
// already written to Answers.
func (i *Instance) AnswerChanged(ctx context.Context, p schema.Path, old answers.Value) error {
	i.touch()
	v := i.Answers.Get(p)
	if old.Equal(v) {
		return nil
	}
	return i.Bus().Publish(ctx, eventbus.FileEventFieldChanged, eventbus.FileEvent{
		Type:   eventbus.FileEventFieldChanged,
		FileID: i.ID,
		Path:   p,
		Old:    old,
		New:    v,
	})
}

// SetStep moves the wizard to step, which must be in [0, total).
func (i *Instance) SetStep(ctx context.Context, step, total int) error {
	if step < 0 || (total > 0 && step >= total) {
		return fmt.Errorf("%w: %d of %d", ErrStepRange, step, total)
	}
	i.ActiveStep = step
	i.touch()
	return i.Bus().Publish(ctx, eventbus.FileEventStepChanged, eventbus.FileEvent{
		Type:   eventbus.FileEventStepChanged,
		FileID: i.ID,
		Step:   step,
	})
}

// ToggleSetting flips one per-node display flag.
func (i *Instance) ToggleSetting(ctx context.Context, key string) (bool, error) {
	v, err := i.Settings.Toggle(key)
	if err != nil {
		return false, err
	}
	i.touch()
	return v, i.Bus().Publish(ctx, eventbus.FileEventSettingsChanged, eventbus.FileEvent{
		Type:   eventbus.FileEventSettingsChanged,
		FileID: i.ID,
		Key:    key,
	})
}

// ReplaceSettings swaps in a whole settings value.
func (i *Instance) ReplaceSettings(ctx context.Context, s Settings) error {
	next := s.Clone()
	i.Settings = next
	i.touch()
	return i.Bus().Publish(ctx, eventbus.FileEventSettingsChanged, eventbus.FileEvent{
		Type:   eventbus.FileEventSettingsChanged,
		FileID: i.ID,
	})
}
