package service

import (
	"fmt"

	"github.com/inklog/internal/db"
	"gorm.io/gorm"
)

// CommentStore is the minimal comment surface the post lifecycle needs:
// load, count, and cascade delete by owning post.
type CommentStore struct {
	db *gorm.DB
}

// NewCommentStore creates a CommentStore.
func NewCommentStore(gdb *gorm.DB) *CommentStore {
	return &CommentStore{db: gdb}
}

// ByPostID returns all comments for a post, oldest first.
func (c *CommentStore) ByPostID(postID uint) ([]db.Comment, error) {
	var comments []db.Comment
	if err := c.db.Where("post_id = ?", postID).Order("id asc").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("load comments for post %d: %w", postID, err)
	}
	return comments, nil
}

// CountByPostID returns the number of comments for a post.
func (c *CommentStore) CountByPostID(postID uint) (int64, error) {
	var count int64
	if err := c.db.Model(&db.Comment{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count comments for post %d: %w", postID, err)
	}
	return count, nil
}

// DeleteForPost removes every comment owned by the post. Running it again
// for the same post is a no-op.
func (c *CommentStore) DeleteForPost(tx *gorm.DB, postID uint) error {
	if tx == nil {
		tx = c.db
	}
	if err := tx.Unscoped().Where("post_id = ?", postID).Delete(&db.Comment{}).Error; err != nil {
		return fmt.Errorf("delete comments for post %d: %w", postID, err)
	}
	return nil
}
