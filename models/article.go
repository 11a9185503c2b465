package models

import (
	"time"

	"gorm.io/gorm"
)

// Article is a blog post, either drafted by hand or generated by the content
// generator.
type Article struct {
	gorm.Model
	Slug    string `gorm:"not null;uniqueIndex" json:"slug"`
	Title   string `gorm:"not null" json:"title"`
	Excerpt string `json:"excerpt"`
	Body    string `gorm:"type:text" json:"body"`

	Category     string `gorm:"index" json:"category"` // condo, hdb, landed, new-launch, market-outlook
	HeroImageURL string `json:"hero_image_url"`

	Status      string     `gorm:"default:'draft';index" json:"status"` // draft, published
	PublishedAt *time.Time `json:"published_at,omitempty"`

	Source string `json:"source"` // manual, generated
}
