package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/aapbuilder/backend/internal/answers"
	"github.com/aapbuilder/backend/internal/schema"
	"github.com/aapbuilder/backend/internal/trigger"
)

// TriggerResult is the designer state after an operation.
type TriggerResult struct {
	*Workspace
	Path     schema.Path
	Designer *trigger.Designer
	Combined string
}

// editTrigger loads the designer of the trigger question at path, applies
// fn and stores the phases.
func (s *FileService) editTrigger(ctx context.Context, id string, path schema.Path, fn func(d *trigger.Designer, store *answers.Store) error) (*TriggerResult, error) {
	res := &TriggerResult{Path: path}
	ws, err := s.mutate(ctx, id, func(ws *Workspace) error {
		node := ws.Template.Lookup(path)
		if node == nil {
			return fmt.Errorf("%w: %s", ErrFieldNotFound, path)
		}
		if node.Kind != schema.KindTriggerDesigner {
			return fmt.Errorf("%w: %s", ErrNotTrigger, path)
		}
		store := ws.File.Answers
		phasesPath := trigger.PhasesPath(path)
		oldPhases := store.Get(phasesPath)
		oldText := store.Get(path)

		d := trigger.Load(store, path, ws.Translator)
		if err := fn(d, store); err != nil {
			return err
		}
		if err := d.Save(store, path); err != nil {
			return err
		}
		if err := ws.File.AnswerChanged(ctx, phasesPath, oldPhases); err != nil {
			return err
		}
		if err := ws.File.AnswerChanged(ctx, path, oldText); err != nil {
			return err
		}
		res.Designer = d
		res.Combined = store.Get(path).String()
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Workspace = ws
	return res, nil
}

func (s *FileService) AddPhase(ctx context.Context, id string, path schema.Path) (*TriggerResult, error) {
	return s.editTrigger(ctx, id, path, func(d *trigger.Designer, _ *answers.Store) error {
		return d.AddPhase()
	})
}

func (s *FileService) RemovePhase(ctx context.Context, id string, path schema.Path, index int) (*TriggerResult, error) {
	return s.editTrigger(ctx, id, path, func(d *trigger.Designer, _ *answers.Store) error {
		return d.RemovePhase(index)
	})
}

// UpdatePhase sets one field of one phase.
func (s *FileService) UpdatePhase(ctx context.Context, id string, path schema.Path, index int, field, value string) (*TriggerResult, error) {
	return s.UpdatePhaseFields(ctx, id, path, index, map[string]string{field: value})
}

// UpdatePhaseFields sets several fields of one phase at once.
func (s *FileService) UpdatePhaseFields(ctx context.Context, id string, path schema.Path, index int, fields map[string]string) (*TriggerResult, error) {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return s.editTrigger(ctx, id, path, func(d *trigger.Designer, _ *answers.Store) error {
		for _, name := range names {
			if err := d.UpdatePhase(index, name, fields[name]); err != nil {
				return err
			}
		}
		return nil
	})
}

// GenerateTrigger renders the phases into the question's combined text,
// replacing any manual edit.
func (s *FileService) GenerateTrigger(ctx context.Context, id string, path schema.Path) (*TriggerResult, error) {
	return s.editTrigger(ctx, id, path, func(d *trigger.Designer, store *answers.Store) error {
		_, err := d.GenerateInto(store, path)
		return err
	})
}
