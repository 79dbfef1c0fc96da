package db

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// collectionRow is one stored collection.
type collectionRow struct {
	Name  string `gorm:"primaryKey"`
	Value []byte
}

func (collectionRow) TableName() string { return "collections" }

// SQLiteStore keeps the collections in a single SQLite table.
type SQLiteStore struct {
	DB *gorm.DB
}

// NewSQLiteStore opens (and creates if needed) the database at path.
func NewSQLiteStore(path string, debug bool) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "creating database directory")
		}
	}

	level := gormlogger.Silent
	if debug {
		level = gormlogger.Info
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}
	if err := db.AutoMigrate(&collectionRow{}); err != nil {
		return nil, errors.Wrap(err, "migrating database")
	}
	return &SQLiteStore{DB: db}, nil
}

func (s *SQLiteStore) Read(ctx context.Context, key string) ([]byte, error) {
	var row collectionRow
	err := s.DB.WithContext(ctx).Where("name = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", key)
	}
	return row.Value, nil
}

func (s *SQLiteStore) Write(ctx context.Context, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, value := range entries {
			row := collectionRow{Name: key, Value: value}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
				return errors.Wrapf(err, "writing %s", key)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrap(s.DB.WithContext(ctx).Where("name IN ?", keys).Delete(&collectionRow{}).Error, "removing collections")
}

func (s *SQLiteStore) Snapshot(ctx context.Context, keys ...string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		out[key] = nil
	}
	if len(keys) == 0 {
		return out, nil
	}
	var rows []collectionRow
	if err := s.DB.WithContext(ctx).Where("name IN ?", keys).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "reading collections")
	}
	for _, row := range rows {
		out[row.Name] = row.Value
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
