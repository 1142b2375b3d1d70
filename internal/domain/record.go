package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aapbuilder/backend/internal/answers"
	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

var ErrInvalidRecord = errors.New("invalid file record")

// Record is the portable JSON form of an instance, used by file export and
// import.
type Record struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	TemplateURL  string          `json:"templateUrl"`
	Data         json.RawMessage `json:"data"`
	ActiveStep   int             `json:"activeStep"`
	Settings     *Settings       `json:"settings,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	LastModified time.Time       `json:"lastModified"`
}

// Record returns the portable form of i.
func (i *Instance) Record() (Record, error) {
	data, err := json.Marshal(i.Answers)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:           i.ID,
		Name:         i.Name,
		TemplateURL:  i.TemplateURL,
		Data:         data,
		ActiveStep:   i.ActiveStep,
		Settings:     i.Settings.Clone(),
		CreatedAt:    i.CreatedAt,
		LastModified: i.UpdatedAt,
	}, nil
}

// Restore rebuilds an instance from stored parts. Corrupt answers or
// settings are replaced by empty values.
func Restore(id, name, templateURL string, data, settings []byte, step int, created, updated time.Time) *Instance {
	store, err := answers.Decode(data)
	if err != nil {
		klog.Warningf("file %s: answers unreadable, starting empty: %v", id, err)
	}
	s := NewSettings()
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, s); err != nil {
			klog.Warningf("file %s: settings unreadable, using defaults: %v", id, err)
			s = NewSettings()
		}
		s.normalize()
	}
	if step < 0 {
		step = 0
	}
	return &Instance{
		ID:          id,
		Name:        name,
		TemplateURL: templateURL,
		Answers:     store,
		ActiveStep:  step,
		Settings:    s,
		CreatedAt:   created,
		UpdatedAt:   updated,
		now:         time.Now,
	}
}

// DecodeRecord parses an exported file. A missing id gets a fresh one.
// Unlike Restore, unreadable answers are an error.
func DecodeRecord(data []byte) (*Instance, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if r.TemplateURL == "" {
		return nil, fmt.Errorf("%w: missing templateUrl", ErrInvalidRecord)
	}
	store := answers.New()
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, store); err != nil {
			return nil, fmt.Errorf("%w: data: %v", ErrInvalidRecord, err)
		}
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s := r.Settings
	if s == nil {
		s = NewSettings()
	}
	s.normalize()
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.LastModified.IsZero() {
		r.LastModified = now
	}
	if r.ActiveStep < 0 {
		r.ActiveStep = 0
	}
	return &Instance{
		ID:          r.ID,
		Name:        r.Name,
		TemplateURL: r.TemplateURL,
		Answers:     store,
		ActiveStep:  r.ActiveStep,
		Settings:    s,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.LastModified,
		now:         time.Now,
	}, nil
}
