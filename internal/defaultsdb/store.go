// Package defaultsdb persists userDefaults values in sqlite. Values are
// stored as msgpack blobs so dynamic typing survives the round trip.
package defaultsdb

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	_ "modernc.org/sqlite"

	"viewlink/internal/codec"
)

type Default struct {
	Key       string `gorm:"column:key;primaryKey"`
	Value     []byte `gorm:"column:value;not null"`
	UpdatedAt int64  `gorm:"column:updated_at;not null;default:0"`
}

func (Default) TableName() string { return "defaults" }

type Store struct {
	db *gorm.DB
}

// Open creates the database file (and parent directory) if needed and
// syncs the schema. The DB is held to a single connection, matching
// sqlite's writer model.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	gdb, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := gdb.Exec(`PRAGMA journal_mode=WAL;`).Error; err != nil {
		return nil, err
	}
	if err := gdb.Exec(`PRAGMA busy_timeout=5000;`).Error; err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(&Default{}); err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	return &Store{db: gdb}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Set stores a dynamic value under key. The value is normalized before
// encoding so numeric widths do not depend on who wrote them.
func (s *Store) Set(key string, value any) error {
	if s == nil || s.db == nil {
		return errors.New("defaults store is not initialized")
	}
	k := strings.TrimSpace(key)
	if k == "" {
		return errors.New("key is required")
	}
	blob, err := codec.Marshal(codec.Normalize(value))
	if err != nil {
		return err
	}
	row := Default{Key: k, Value: blob, UpdatedAt: time.Now().UTC().Unix()}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      blob,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row).Error
}

// SetRaw stores an already-encoded msgpack value, used when the value
// came straight off the wire.
func (s *Store) SetRaw(key string, blob []byte) error {
	v, err := codec.DecodeValue(blob)
	if err != nil {
		return err
	}
	return s.Set(key, v)
}

// Get returns the decoded value and whether the key was present.
func (s *Store) Get(key string) (any, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, errors.New("defaults store is not initialized")
	}
	var row Default
	err := s.db.Where("key = ?", strings.TrimSpace(key)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	v, err := codec.DecodeValue(row.Value)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// GetRaw returns the stored msgpack blob for sending back on the wire.
func (s *Store) GetRaw(key string) ([]byte, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, errors.New("defaults store is not initialized")
	}
	var row Default
	err := s.db.Where("key = ?", strings.TrimSpace(key)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row.Value, true, nil
}

func (s *Store) Remove(key string) error {
	if s == nil || s.db == nil {
		return errors.New("defaults store is not initialized")
	}
	return s.db.Where("key = ?", strings.TrimSpace(key)).Delete(&Default{}).Error
}

func (s *Store) Clear() error {
	if s == nil || s.db == nil {
		return errors.New("defaults store is not initialized")
	}
	return s.db.Where("1 = 1").Delete(&Default{}).Error
}

func (s *Store) ContainsKey(key string) (bool, error) {
	if s == nil || s.db == nil {
		return false, errors.New("defaults store is not initialized")
	}
	var count int64
	err := s.db.Model(&Default{}).Where("key = ?", strings.TrimSpace(key)).Count(&count).Error
	return count > 0, err
}

func (s *Store) Keys() ([]string, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("defaults store is not initialized")
	}
	keys := []string{}
	err := s.db.Model(&Default{}).Order("key ASC").Pluck("key", &keys).Error
	return keys, err
}
