package db

import "gorm.io/gorm"

// PostInfo is one sidecar key/value attribute row. A post owns at most one
// row per name.
type PostInfo struct {
	gorm.Model
	PostID uint   `gorm:"uniqueIndex:idx_post_infos_owner_name;not null"`
	Name   string `gorm:"uniqueIndex:idx_post_infos_owner_name;not null"`
	Value  string `gorm:"type:text"`
}
