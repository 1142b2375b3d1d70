package model

import (
	"time"

	"gorm.io/datatypes"
)

// KeyValue is a JSON blob stored under a string key: cached templates,
// the active locale and other small preferences.
type KeyValue struct {
	Key       string         `json:"key" gorm:"primaryKey;size:512"`
	Value     datatypes.JSON `json:"value"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (KeyValue) TableName() string { return "key_values" }
