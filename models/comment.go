package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MaxCommentLength = 500

type Comment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	MaterialID uuid.UUID `gorm:"type:uuid;not null;index" json:"materialId"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	Text       string    `gorm:"size:500;not null" json:"text"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"createdAt"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
}

func (Comment) TableName() string {
	return "material_comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Comment) Validate() ValidationErrors {
	var errs ValidationErrors
	text := strings.TrimSpace(c.Text)
	switch {
	case text == "":
		errs.Add("text", "Comment text is required")
	case runeLen(text) > MaxCommentLength:
		errs.Add("text", "Comment cannot exceed 500 characters")
	}
	return errs
}
