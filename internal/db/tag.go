package db

import "gorm.io/gorm"

// Tag is a label attached to posts through the post_tags join table.
type Tag struct {
	gorm.Model
	TagText string `gorm:"uniqueIndex;not null"`
	TagSlug string `gorm:"not null"`
	Posts   []Post `gorm:"many2many:post_tags;"`
}
