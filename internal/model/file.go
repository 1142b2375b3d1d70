package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// File is one persisted document instance. Answers and Settings are JSON
// blobs written whole on every mutation.
type File struct {
	ID          string         `json:"id" gorm:"primaryKey;size:36"`
	Name        string         `json:"name" gorm:"size:255;not null"`
	TemplateURL string         `json:"template_url" gorm:"size:1000;not null;index"`
	Answers     datatypes.JSON `json:"answers"`
	Settings    datatypes.JSON `json:"settings"`
	ActiveStep  int            `json:"active_step" gorm:"default:0"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"autoUpdateTime:false;index"`
}

func (File) TableName() string { return "aap_files" }

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = time.Now()
	}
	return nil
}
