package subscriber

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/aapbuilder/backend/internal/eventbus"
	"github.com/aapbuilder/backend/internal/utils"
	"k8s.io/klog/v2"
)

// ErrMissingFileID is returned for an event that names no file.
var ErrMissingFileID = errors.New("event without file id")

// FileEventSubscriber writes an audit line for every change of a file.
type FileEventSubscriber struct {
	handled atomic.Int64
}

func NewFileEventSubscriber() *FileEventSubscriber {
	return &FileEventSubscriber{}
}

// Register subscribes to bus and returns a func removing the subscriptions.
func (s *FileEventSubscriber) Register(bus *eventbus.FileEventBus) func() {
	if bus == nil {
		return func() {}
	}
	unsubs := []func(){
		bus.Subscribe(eventbus.FileEventFieldChanged, s.handleFieldChanged),
		bus.Subscribe(eventbus.FileEventSettingsChanged, s.handleSettingsChanged),
		bus.Subscribe(eventbus.FileEventStepChanged, s.handleStepChanged),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Handled returns the number of events seen so far.
func (s *FileEventSubscriber) Handled() int64 {
	return s.handled.Load()
}

func (s *FileEventSubscriber) handleFieldChanged(ctx context.Context, event eventbus.FileEvent) error {
	if event.FileID == "" {
		return ErrMissingFileID
	}
	s.handled.Add(1)
	klog.V(6).Infof("field changed: file=%s, path=%s, old=%s, new=%s", event.FileID, event.Path, utils.Truncate(utils.ToJSON(event.Old), 200), utils.Truncate(utils.ToJSON(event.New), 200))
	return nil
}

func (s *FileEventSubscriber) handleSettingsChanged(ctx context.Context, event eventbus.FileEvent) error {
	if event.FileID == "" {
		return ErrMissingFileID
	}
	s.handled.Add(1)
	klog.V(6).Infof("setting changed: file=%s, key=%s", event.FileID, event.Key)
	return nil
}

func (s *FileEventSubscriber) handleStepChanged(ctx context.Context, event eventbus.FileEvent) error {
	if event.FileID == "" {
		return ErrMissingFileID
	}
	s.handled.Add(1)
	klog.V(6).Infof("step changed: file=%s, step=%d", event.FileID, event.Step)
	return nil
}
