package models

import (
	"time"
)

// YelpUser represents a review author from the Yelp feed. The feed carries no
// natural user id, so the loader assigns sequential ids at insert time.
type YelpUser struct {
	ID       int64  `json:"id" db:"id" gorm:"primaryKey;autoIncrement:false"`
	Name     string `json:"name" db:"name"`
	PhotoURL string `json:"photo_url" db:"photo_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the YelpUser model
func (YelpUser) TableName() string {
	return "yelp_users"
}
