package db

import "gorm.io/gorm"

// Comment is reader feedback on a post. The lifecycle only ever loads,
// counts and cascades these; moderation is out of scope.
type Comment struct {
	gorm.Model
	PostID  uint `gorm:"index;not null"`
	Author  string
	Email   string
	Content string `gorm:"type:text"`
}
