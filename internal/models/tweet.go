package models

import (
	"time"

	"github.com/lib/pq"
)

// Tweet represents a tweet ingested from the streaming source. Like YelpReview
// it owns a generic Document through the association table.
type Tweet struct {
	TweetID    string         `json:"tweet_id" db:"tweet_id" gorm:"primaryKey;size:64"`
	Text       string         `json:"text" db:"text" gorm:"type:text"`
	Hashtags   pq.StringArray `json:"hashtags" db:"hashtags" gorm:"type:text[]"`
	PostedDate int64          `json:"posted_date" db:"posted_date"` // unix seconds

	UserID string `json:"user_id" db:"user_id" gorm:"size:64;index"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	User *TwitterUser `json:"user,omitempty" gorm:"foreignKey:UserID;references:TwitterID"`
}

// TableName sets the table name for the Tweet model
func (Tweet) TableName() string {
	return "tweets"
}

// PostedAt returns the tweet's posted date as a time.Time
func (t *Tweet) PostedAt() time.Time {
	return time.Unix(t.PostedDate, 0)
}

// DocumentID implements documents.Documentable
func (t *Tweet) DocumentID() string {
	return t.TweetID
}

// DocumentType implements documents.Documentable
func (t *Tweet) DocumentType() string {
	return "tweets"
}

// DocumentText implements documents.Documentable
func (t *Tweet) DocumentText() string {
	return t.Text
}

// TwitterUser represents the author of ingested tweets
type TwitterUser struct {
	TwitterID  string `json:"twitter_id" db:"twitter_id" gorm:"primaryKey;size:64"`
	ScreenName string `json:"screen_name" db:"screen_name"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Tweets []Tweet `json:"tweets,omitempty" gorm:"foreignKey:UserID;references:TwitterID"`
}

// TableName sets the table name for the TwitterUser model
func (TwitterUser) TableName() string {
	return "twitter_users"
}
