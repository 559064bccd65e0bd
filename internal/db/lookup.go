package db

import "gorm.io/gorm"

// PostStatus is a row of the status vocabulary table. Codes are the row
// ids, handed out in insertion order.
type PostStatus struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

// PostType is a row of the content-type vocabulary table.
type PostType struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

var (
	defaultStatuses = []string{"draft", "published", "scheduled", "deleted"}
	defaultTypes    = []string{"entry", "page"}
)

// SeedVocabulary inserts the default status and type rows that are not
// present yet. Existing rows and their codes are left alone, so re-running
// is safe.
func SeedVocabulary(gdb *gorm.DB) error {
	for _, name := range defaultStatuses {
		status := PostStatus{Name: name}
		if err := gdb.Where("name = ?", name).FirstOrCreate(&status).Error; err != nil {
			return err
		}
	}

	for _, name := range defaultTypes {
		typ := PostType{Name: name}
		if err := gdb.Where("name = ?", name).FirstOrCreate(&typ).Error; err != nil {
			return err
		}
	}

	return nil
}
