package repository

import (
	"errors"

	"github.com/aapbuilder/backend/internal/model"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("record not found")

type FileRepository interface {
	Create(file *model.File) error
	List() ([]model.File, error)
	Get(id string) (*model.File, error)
	Save(file *model.File) error
	Delete(id string) error
}

// KVRepository stores JSON blobs by key.
type KVRepository interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}
