package eventbus

import (
	"context"
	"errors"
	"testing"

	"github.com/aapbuilder/backend/internal/answers"
	"github.com/aapbuilder/backend/internal/schema"
)

func TestBusPublishBroadcast(t *testing.T) {
	bus := NewFileEventBus()
	var order []string

	bus.Subscribe(FileEventFieldChanged, func(ctx context.Context, event FileEvent) error {
		order = append(order, "a:"+event.Path.String())
		return nil
	})
	bus.Subscribe(FileEventFieldChanged, func(ctx context.Context, event FileEvent) error {
		order = append(order, "b:"+event.New.String())
		return nil
	})

	event := FileEvent{Type: FileEventFieldChanged, Path: schema.Path{"summary", "hazard"}, New: answers.Text("Flood")}
	if err := bus.Publish(context.Background(), FileEventFieldChanged, event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != "a:/summary/hazard" || order[1] != "b:Flood" {
		t.Fatalf("unexpected dispatch order: %v", order)
	}
}

func TestBusKeysAreIsolated(t *testing.T) {
	bus := NewFileEventBus()
	called := false
	bus.Subscribe(FileEventStepChanged, func(ctx context.Context, event FileEvent) error {
		called = true
		return nil
	})

	if err := bus.Publish(context.Background(), FileEventFieldChanged, FileEvent{Type: FileEventFieldChanged}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("handler of another key was called")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewFileEventBus()
	called := false
	unsubscribe := bus.Subscribe(FileEventFieldChanged, func(ctx context.Context, event FileEvent) error {
		called = true
		return nil
	})
	unsubscribe()
	unsubscribe()

	if err := bus.Publish(context.Background(), FileEventFieldChanged, FileEvent{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("expected handler to be unsubscribed")
	}
	if n := bus.Len(FileEventFieldChanged); n != 0 {
		t.Fatalf("expected no handlers, got %d", n)
	}
}

func TestBusPublishJoinErrors(t *testing.T) {
	bus := NewBus[string, int]()
	errA := errors.New("err-a")
	errB := errors.New("err-b")
	bus.Subscribe("k", func(ctx context.Context, event int) error { return errA })
	bus.Subscribe("k", func(ctx context.Context, event int) error { return errB })

	err := bus.Publish(context.Background(), "k", 1)
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected joined errors, got %v", err)
	}
}

func TestBusNilHandler(t *testing.T) {
	bus := NewFileEventBus()
	bus.Subscribe(FileEventFieldChanged, nil)()
	if n := bus.Len(FileEventFieldChanged); n != 0 {
		t.Fatalf("nil handler should not be registered")
	}
}
