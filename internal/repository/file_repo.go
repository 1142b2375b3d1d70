package repository

import (
	"errors"

	"github.com/aapbuilder/backend/internal/model"
	"gorm.io/gorm"
)

type fileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(file *model.File) error {
	return r.db.Create(file).Error
}

// List returns every file, most recently modified first.
func (r *fileRepository) List() ([]model.File, error) {
	var files []model.File
	err := r.db.Order("updated_at DESC").Find(&files).Error
	return files, err
}

func (r *fileRepository) Get(id string) (*model.File, error) {
	var file model.File
	err := r.db.Where("id = ?", id).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

func (r *fileRepository) Save(file *model.File) error {
	return r.db.Save(file).Error
}

func (r *fileRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&model.File{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
