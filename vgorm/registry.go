package vgorm

import (
	"fmt"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DialectorOpener is an alias for a function that returns a gorm.Dialector
// for a given DSN.
type DialectorOpener = func(string) gorm.Dialector

var (
	registryMu sync.RWMutex
	openers    = make(map[string]DialectorOpener)
)

func init() {
	Register("sqlite", sqlite.Open)
	Register("postgres", postgres.Open)
	Register("mysql", mysql.Open)
}

// Register adds a database driver to the registry.
func Register(name string, opener DialectorOpener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	openers[name] = opener
}

// NewStorage opens the named database, runs migrations, and returns the
// repository. TranslateError is enabled so driver-specific duplicate-key
// failures surface as gorm.ErrDuplicatedKey across all backends.
func NewStorage(name, dsn string, models ...any) (*Repository, error) {
	registryMu.RLock()
	opener, ok := openers[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("vgorm: unknown database driver %q", name)
	}

	db, err := gorm.Open(opener(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("vgorm: open %s: %w", name, err)
	}

	repo := NewRepository(db)
	if err := repo.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("vgorm: migrate: %w", err)
	}

	return repo, nil
}
