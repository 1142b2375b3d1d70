package eventbus

import (
	"github.com/aapbuilder/backend/internal/answers"
	"github.com/aapbuilder/backend/internal/schema"
)

type FileEventType string

const (
	FileEventFieldChanged    FileEventType = "FieldChanged"
	FileEventSettingsChanged FileEventType = "SettingsChanged"
	FileEventStepChanged     FileEventType = "StepChanged"
)

type FileEvent struct {
	Type   FileEventType
	FileID string
	Path   schema.Path
	Old    answers.Value
	New    answers.Value
	// Key is the settings key for FileEventSettingsChanged.
	Key  string
	Step int
}

type FileEventHandler = Handler[FileEvent]
type FileEventBus = Bus[FileEventType, FileEvent]

func NewFileEventBus() *FileEventBus {
	return NewBus[FileEventType, FileEvent]()
}
