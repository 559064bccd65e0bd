package db

import (
	"time"

	"gorm.io/gorm"
)

// Post is the main content record. Status and ContentType hold codes from
// the post_statuses and post_types vocabulary tables. The unique index on
// Slug is the backstop for concurrent slug allocation: a probe can lose the
// race, but the insert cannot.
type Post struct {
	gorm.Model
	Slug          string `gorm:"uniqueIndex;not null"`
	Title         string
	GUID          string `gorm:"column:guid"`
	Content       string `gorm:"type:text"`
	CachedContent string `gorm:"type:text"`
	UserID        uint
	User          User
	Status        int `gorm:"index"`
	ContentType   int
	PubDate       time.Time `gorm:"column:pubdate"`
	Tags          []Tag     `gorm:"many2many:post_tags;"`
}
