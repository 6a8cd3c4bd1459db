package models

import (
	"time"
)

// YelpBusiness represents a business record from the Yelp syndication feed
type YelpBusiness struct {
	BusinessID  string  `json:"business_id" db:"business_id" gorm:"primaryKey;size:64"`
	Name        string  `json:"name" db:"name"`
	Phone       string  `json:"phone" db:"phone"`
	Rating      float64 `json:"rating" db:"rating"`
	URL         string  `json:"url" db:"url"`
	BusinessURL string  `json:"business_url" db:"business_url"`
	LastUpdated int64   `json:"last_updated" db:"last_updated"` // unix seconds, from the feed's time_updated
	IsClosed    bool    `json:"is_closed" db:"is_closed" gorm:"default:false"`

	LocationID string `json:"location_id" db:"location_id" gorm:"size:512;not null;index"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Location *Location    `json:"location,omitempty" gorm:"foreignKey:LocationID;references:Identifier"`
	Reviews  []YelpReview `json:"reviews,omitempty" gorm:"foreignKey:BusinessID;references:BusinessID"`
}

// TableName sets the table name for the YelpBusiness model
func (YelpBusiness) TableName() string {
	return "yelp_businesses"
}

// LastUpdatedAt returns the feed's last-updated timestamp as a time.Time
func (b *YelpBusiness) LastUpdatedAt() time.Time {
	return time.Unix(b.LastUpdated, 0)
}

// BusinessCategory links a business to a category (many-to-many)
type BusinessCategory struct {
	BusinessID string `json:"business_id" db:"business_id" gorm:"primaryKey;size:64"`
	Alias      string `json:"alias" db:"alias" gorm:"primaryKey;size:255"`
}

// TableName sets the table name for the BusinessCategory model
func (BusinessCategory) TableName() string {
	return "business_categories"
}
