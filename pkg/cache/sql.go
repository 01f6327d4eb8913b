package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one row of the state table.
type Entry struct {
	Key       string `gorm:"column:state_key;primaryKey;size:255"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName pins the table name across drivers.
func (Entry) TableName() string { return "recordshop_state" }

// SQL is a Store on a gorm database.
type SQL struct {
	db *gorm.DB
}

// NewSQL migrates the state table and returns the store.
func NewSQL(db *gorm.DB) (*SQL, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("cache: migrate state table: %w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("state_key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: sql get %s: %w", key, err)
	}
	return e.Value, nil
}

func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&Entry{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("cache: sql set %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("state_key IN ?", keys).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("cache: sql delete: %w", err)
	}
	return nil
}

func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
