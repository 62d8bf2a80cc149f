package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntry is the row shape behind GormStore.
type KVEntry struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value []byte `gorm:"type:jsonb;not null"`
}

func (KVEntry) TableName() string { return "kv_entries" }

// GormStore keeps the key space in a database table, one row per key.
// It is the deployment-grade backend; the contract is identical to
// FileStore so the service layer cannot tell them apart.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv_entries: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(key string, dest interface{}) (bool, error) {
	var entry KVEntry
	err := s.db.First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	if err := json.Unmarshal(entry.Value, dest); err != nil {
		return true, fmt.Errorf("failed to decode value for key %q: %w", key, err)
	}
	return true, nil
}

func (s *GormStore) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for key %q: %w", key, err)
	}
	entry := KVEntry{Key: key, Value: raw}
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&entry)
	return result.Error
}

func (s *GormStore) Remove(key string) error {
	return s.db.Delete(&KVEntry{}, "key = ?", key).Error
}
