package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inklog/internal/db"
	"gorm.io/gorm"
)

const (
	slugSeparator = "-"

	// defaultSlugBase is used when the base text contains nothing that
	// survives slugification.
	defaultSlugBase = "post"
)

// ErrSlugExhausted reports that slug allocation kept colliding with
// concurrent writers past the retry budget.
var ErrSlugExhausted = errors.New("slug allocation retries exhausted")

// SlugAllocator derives unique, URL-safe slugs for posts. Uniqueness is
// probed per candidate with an exact match; the unique index on the slug
// column backstops the probe-then-insert race, and callers retry through
// the allocator when an insert loses that race.
type SlugAllocator struct {
	db         *gorm.DB
	retryLimit int
}

// NewSlugAllocator creates an allocator. retryLimit bounds how many
// constraint-violation retries the owning save may attempt; values below 1
// fall back to 10.
func NewSlugAllocator(gdb *gorm.DB, retryLimit int) *SlugAllocator {
	if retryLimit < 1 {
		retryLimit = 10
	}
	return &SlugAllocator{db: gdb, retryLimit: retryLimit}
}

// RetryLimit returns the configured constraint-violation retry budget.
func (a *SlugAllocator) RetryLimit() int {
	return a.retryLimit
}

// Allocate returns the slug a save should persist. When the persisted slug
// is non-empty and the staged slug is empty or identical, the persisted
// value is reused untouched. Otherwise a candidate is derived from the
// first non-empty base text and probed against existing rows, appending
// -1, -2, ... until a free value is found.
func (a *SlugAllocator) Allocate(tx *gorm.DB, persisted, staged string, baseTexts ...string) (string, error) {
	persisted = strings.ToLower(strings.TrimSpace(persisted))
	staged = strings.ToLower(strings.TrimSpace(staged))

	if persisted != "" && (staged == "" || staged == persisted) {
		return persisted, nil
	}

	base := staged
	if base == "" {
		for _, text := range baseTexts {
			if strings.TrimSpace(text) != "" {
				base = text
				break
			}
		}
	}

	candidate := Slugify(base)
	if candidate == "" {
		candidate = defaultSlugBase
	}

	if tx == nil {
		tx = a.db
	}

	slug := candidate
	for n := 1; ; n++ {
		taken, err := a.slugTaken(tx, slug)
		if err != nil {
			return "", fmt.Errorf("probe slug %q: %w", slug, err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s%s%d", candidate, slugSeparator, n)
	}
}

func (a *SlugAllocator) slugTaken(tx *gorm.DB, slug string) (bool, error) {
	var count int64
	if err := tx.Unscoped().Model(&db.Post{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Slugify lower-cases text and collapses every run of non-alphanumeric
// characters into a single separator, trimming separators from both ends.
// The result may be empty.
func Slugify(text string) string {
	var b strings.Builder
	lastSep := true
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastSep = false
			continue
		}
		if !lastSep {
			b.WriteString(slugSeparator)
			lastSep = true
		}
	}
	return strings.Trim(b.String(), slugSeparator)
}
