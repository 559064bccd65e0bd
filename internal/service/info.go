package service

import (
	"errors"
	"fmt"

	"github.com/inklog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInfoOwnerUnknown reports a sidecar commit attempted before the owning
// post has an id.
var ErrInfoOwnerUnknown = errors.New("post info commit requires a post id")

// InfoStore stages sidecar key/value attributes for one post. It is safe to
// construct and fill before the owner id exists; Commit needs a real id.
// Writes are deferred: Set and Unset only mark intent until Commit flushes
// them, so a failed save can simply retry the commit.
type InfoStore struct {
	db     *gorm.DB
	postID uint

	values map[string]string
	dirty  map[string]struct{}
	gone   map[string]struct{}
	loaded bool
}

// NewInfoStore creates an InfoStore. postID may be zero for a post that has
// not been inserted yet.
func NewInfoStore(gdb *gorm.DB, postID uint) *InfoStore {
	return &InfoStore{
		db:     gdb,
		postID: postID,
		values: make(map[string]string),
		dirty:  make(map[string]struct{}),
		gone:   make(map[string]struct{}),
	}
}

// Load reads the persisted rows for the owner into the store. Staged
// changes survive a load. A zero owner id loads nothing.
func (s *InfoStore) Load() error {
	if s.postID == 0 {
		s.loaded = true
		return nil
	}

	var rows []db.PostInfo
	if err := s.db.Where("post_id = ?", s.postID).Find(&rows).Error; err != nil {
		return fmt.Errorf("load post info for post %d: %w", s.postID, err)
	}

	for _, row := range rows {
		if _, staged := s.dirty[row.Name]; staged {
			continue
		}
		if _, removed := s.gone[row.Name]; removed {
			continue
		}
		s.values[row.Name] = row.Value
	}
	s.loaded = true
	return nil
}

// Set stages a value for name.
func (s *InfoStore) Set(name, value string) {
	s.values[name] = value
	s.dirty[name] = struct{}{}
	delete(s.gone, name)
}

// Unset stages removal of name.
func (s *InfoStore) Unset(name string) {
	delete(s.values, name)
	delete(s.dirty, name)
	s.gone[name] = struct{}{}
}

// Has reports whether name currently resolves to a value, staged or loaded.
func (s *InfoStore) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Get returns the value for name and whether it exists.
func (s *InfoStore) Get(name string) (string, bool) {
	value, ok := s.values[name]
	return value, ok
}

// Commit flushes staged writes and removals for the given owner id. The id
// becomes the store's owner for later commits. The staging state is kept
// until the owning save settles, so a failed transaction can re-run the
// commit; flushing twice writes the same rows.
func (s *InfoStore) Commit(tx *gorm.DB, postID uint) error {
	if postID == 0 {
		postID = s.postID
	}
	if postID == 0 {
		return ErrInfoOwnerUnknown
	}
	s.postID = postID

	if tx == nil {
		tx = s.db
	}

	for name := range s.dirty {
		row := db.PostInfo{PostID: postID, Name: name, Value: s.values[name]}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "name"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"value": row.Value}),
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("commit post info %q: %w", name, err)
		}
	}

	for name := range s.gone {
		if err := tx.Unscoped().
			Where("post_id = ? AND name = ?", postID, name).
			Delete(&db.PostInfo{}).Error; err != nil {
			return fmt.Errorf("remove post info %q: %w", name, err)
		}
	}

	return nil
}

// settle drops the staging markers after the owning save has durably
// committed.
func (s *InfoStore) settle() {
	s.dirty = make(map[string]struct{})
	s.gone = make(map[string]struct{})
}
