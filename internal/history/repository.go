// Package history keeps a local record of classification attempts in SQLite.
package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned by Get when no entry has the given ID.
var ErrNotFound = errors.New("history entry not found")

// Store is the history API used by the UI.
type Store interface {
	Record(ctx context.Context, entry Entry) (Entry, error)
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

// Compile-time check to ensure Repository implements Store.
var _ Store = (*Repository)(nil)

// Repository is a GORM-backed Store.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// Open opens (creating if needed) the SQLite database at path and migrates it.
func Open(path string) (*Repository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// SQLite allows a single writer; one connection also keeps :memory: databases intact.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&EntryModel{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return New(db), nil
}

// New wraps an already-migrated database.
func New(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Close releases the underlying database handle.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record persists entry, assigning an ID and timestamp when they are unset.
func (r *Repository) Record(ctx context.Context, entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	model, err := modelFromEntry(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("encode scores: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return Entry{}, fmt.Errorf("record classification: %w", err)
	}
	return entry, nil
}

// Recent returns up to limit entries, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	var models []EntryModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	entries := make([]Entry, len(models))
	for i, m := range models {
		entries[i] = m.toEntry()
	}
	return entries, nil
}

// Get retrieves a single entry by ID.
func (r *Repository) Get(ctx context.Context, id string) (Entry, error) {
	var model EntryModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("get history entry: %w", err)
	}
	return model.toEntry(), nil
}

// Prune deletes everything except the newest keep entries and returns the
// number of rows removed.
func (r *Repository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	newest := r.db.Model(&EntryModel{}).
		Select("id").
		Order("created_at DESC").
		Order("id").
		Limit(keep)

	result := r.db.WithContext(ctx).
		Where("id NOT IN (?)", newest).
		Delete(&EntryModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("prune history: %w", result.Error)
	}
	return result.RowsAffected, nil
}
