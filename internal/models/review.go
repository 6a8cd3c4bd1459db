package models

import (
	"time"
)

// YelpReview represents a single review from the Yelp syndication feed
type YelpReview struct {
	ReviewID     string  `json:"review_id" db:"review_id" gorm:"column:review_id;primaryKey;size:64"`
	Text         string  `json:"text" db:"text" gorm:"type:text"`
	Rating       float64 `json:"rating" db:"rating"`
	AuthoredDate int64   `json:"authored_date" db:"authored_date"` // unix seconds

	BusinessID string `json:"business_id" db:"business_id" gorm:"size:64;not null;index"`
	UserID     int64  `json:"user_id" db:"user_id" gorm:"index"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Business *YelpBusiness `json:"business,omitempty" gorm:"foreignKey:BusinessID;references:BusinessID"`
	User     *YelpUser     `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
}

// TableName sets the table name for the YelpReview model
func (YelpReview) TableName() string {
	return "yelp_reviews"
}

// AuthoredAt returns the review's authored date as a time.Time
func (r *YelpReview) AuthoredAt() time.Time {
	return time.Unix(r.AuthoredDate, 0)
}

// DocumentID implements documents.Documentable
func (r *YelpReview) DocumentID() string {
	return r.ReviewID
}

// DocumentType implements documents.Documentable
func (r *YelpReview) DocumentType() string {
	return "yelp_reviews"
}

// DocumentText implements documents.Documentable
func (r *YelpReview) DocumentText() string {
	return r.Text
}
