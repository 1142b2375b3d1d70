package repository

import (
	"errors"
	"time"

	"github.com/aapbuilder/backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type kvRepository struct {
	db *gorm.DB
}

func NewKVRepository(db *gorm.DB) KVRepository {
	return &kvRepository{db: db}
}

func (r *kvRepository) Get(key string) ([]byte, error) {
	var kv model.KeyValue
	err := r.db.Where(&model.KeyValue{Key: key}).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return []byte(kv.Value), nil
}

// Set upserts value under key.
func (r *kvRepository) Set(key string, value []byte) error {
	kv := model.KeyValue{Key: key, Value: value, UpdatedAt: time.Now()}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&kv).Error
}

func (r *kvRepository) Delete(key string) error {
	return r.db.Delete(&model.KeyValue{Key: key}).Error
}
