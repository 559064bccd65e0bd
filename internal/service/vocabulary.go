package service

import (
	"errors"
	"strings"
	"sync"

	"github.com/inklog/internal/db"
	"gorm.io/gorm"
)

var (
	ErrStatusNotFound = errors.New("unknown post status")
	ErrTypeNotFound   = errors.New("unknown post type")
)

// Vocabulary resolves status and content-type names to their table codes.
// The tables are read once on first use and cached until Refresh. Both
// vocabularies carry a synthetic "any" entry with code 0 that has no
// backing row.
type Vocabulary struct {
	db *gorm.DB

	mu       sync.RWMutex
	statuses map[string]int
	types    map[string]int
}

// NewVocabulary creates a Vocabulary backed by the given database.
func NewVocabulary(gdb *gorm.DB) *Vocabulary {
	return &Vocabulary{db: gdb}
}

// StatusCode resolves a status name, case-insensitively.
func (v *Vocabulary) StatusCode(name string) (int, error) {
	statuses, _, err := v.ensureLoaded()
	if err != nil {
		return 0, err
	}
	code, ok := statuses[strings.ToLower(name)]
	if !ok {
		return 0, ErrStatusNotFound
	}
	return code, nil
}

// TypeCode resolves a content-type name, case-insensitively.
func (v *Vocabulary) TypeCode(name string) (int, error) {
	_, types, err := v.ensureLoaded()
	if err != nil {
		return 0, err
	}
	code, ok := types[strings.ToLower(name)]
	if !ok {
		return 0, ErrTypeNotFound
	}
	return code, nil
}

// HasStatusCode reports whether code belongs to the status vocabulary.
// Code 0 ("any") is a query pseudo-status, not a storable one.
func (v *Vocabulary) HasStatusCode(code int) bool {
	statuses, _, err := v.ensureLoaded()
	if err != nil {
		return false
	}
	for name, candidate := range statuses {
		if candidate == code && name != "any" {
			return true
		}
	}
	return false
}

// HasTypeCode reports whether code belongs to the type vocabulary.
func (v *Vocabulary) HasTypeCode(code int) bool {
	_, types, err := v.ensureLoaded()
	if err != nil {
		return false
	}
	for name, candidate := range types {
		if candidate == code && name != "any" {
			return true
		}
	}
	return false
}

// Refresh reloads both vocabularies from their tables.
func (v *Vocabulary) Refresh() error {
	statuses, types, err := v.load()
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.statuses = statuses
	v.types = types
	v.mu.Unlock()
	return nil
}

func (v *Vocabulary) ensureLoaded() (map[string]int, map[string]int, error) {
	v.mu.RLock()
	statuses, types := v.statuses, v.types
	v.mu.RUnlock()
	if statuses != nil && types != nil {
		return statuses, types, nil
	}

	if err := v.Refresh(); err != nil {
		return nil, nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.statuses, v.types, nil
}

func (v *Vocabulary) load() (map[string]int, map[string]int, error) {
	var statusRows []db.PostStatus
	if err := v.db.Order("id asc").Find(&statusRows).Error; err != nil {
		return nil, nil, err
	}

	var typeRows []db.PostType
	if err := v.db.Order("id asc").Find(&typeRows).Error; err != nil {
		return nil, nil, err
	}

	statuses := map[string]int{"any": 0}
	for _, row := range statusRows {
		statuses[strings.ToLower(row.Name)] = int(row.ID)
	}

	types := map[string]int{"any": 0}
	for _, row := range typeRows {
		types[strings.ToLower(row.Name)] = int(row.ID)
	}

	return statuses, types, nil
}
