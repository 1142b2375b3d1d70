package domain

import (
	"context"

	"github.com/aapbuilder/backend/internal/answers"
	"github.com/aapbuilder/backend/internal/eventbus"
	"github.com/aapbuilder/backend/internal/schema"
	"github.com/aapbuilder/backend/internal/trigger"
	"k8s.io/klog/v2"
)

// WatchHazard resets every trigger designer of tpl to its default phase
// when the summary hazard changes. It returns a func removing the watch.
func (i *Instance) WatchHazard(tpl *schema.Template, t trigger.Translator) func() {
	hazardKey := answers.KeyOf(trigger.HazardPath)
	return i.Bus().Subscribe(eventbus.FileEventFieldChanged, func(ctx context.Context, event eventbus.FileEvent) error {
		if answers.KeyOf(event.Path) != hazardKey {
			return nil
		}
		if tpl == nil {
			return nil
		}
		n, err := trigger.ResetAll(tpl.Sections, i.Answers, t)
		if err != nil {
			return err
		}
		if n > 0 {
			klog.V(6).Infof("hazard changed, trigger phases reset: file=%s, hazard=%q, designers=%d", i.ID, event.New.String(), n)
		}
		return nil
	})
}
