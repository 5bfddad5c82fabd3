package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Catalog records share slug, soft-delete flag and timestamps.
type Catalog struct {
	Slug      string    `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Category struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Label string    `gorm:"size:80;uniqueIndex;not null" json:"label"`
	Catalog
}

func (c *Category) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

type Tag struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Label string    `gorm:"size:80;uniqueIndex;not null" json:"label"`
	Catalog
}

func (t *Tag) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID, err = uuid.NewV7()
	}
	return
}

func (t *Tag) String() string {
	return "#" + t.Label
}

type Course struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_courses_category_title" json:"category_id"`
	Category    *Category `gorm:"constraint:OnDelete:CASCADE" json:"category,omitempty"`
	Title       string    `gorm:"size:100;not null;uniqueIndex:idx_courses_category_title" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	ImageURL    *string   `gorm:"type:text" json:"image_url"`
	Tags        []Tag     `gorm:"many2many:course_tags;constraint:OnDelete:CASCADE" json:"tags"`
	Catalog
}

func (c *Course) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}
