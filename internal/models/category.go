package models

import (
	"time"
)

// YelpCategory represents a business category from the Yelp feed, keyed by its alias
type YelpCategory struct {
	Alias string `json:"alias" db:"alias" gorm:"primaryKey;size:255"`
	Title string `json:"title" db:"title"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the YelpCategory model
func (YelpCategory) TableName() string {
	return "yelp_categories"
}
