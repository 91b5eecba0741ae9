package models

import (
	"time"

	"github.com/google/uuid"
)

// Bookmark is one entry of an account's collection. The composite key keeps
// the collection a set.
type Bookmark struct {
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"userId"`
	MaterialID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"materialId"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`

	Material Material `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

func (Bookmark) TableName() string {
	return "user_bookmarks"
}
