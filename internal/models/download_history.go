package models

import (
	"time"

	"github.com/google/uuid"
)

// DownloadHistory tracks, per calendar day, how far the feed sync pipeline got.
// Each phase flips its flag and saves the record, so a restarted process
// resumes at the first incomplete phase instead of repeating finished work.
type DownloadHistory struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	CreatedOn time.Time `json:"created_on" db:"created_on" gorm:"not null;index"`

	Downloaded bool `json:"downloaded" db:"downloaded" gorm:"default:false"`
	Unzipped   bool `json:"unzipped" db:"unzipped" gorm:"default:false"`
	Successful bool `json:"successful" db:"successful" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the DownloadHistory model
func (DownloadHistory) TableName() string {
	return "download_histories"
}

// NewDownloadHistory creates a fresh history record for today
func NewDownloadHistory() *DownloadHistory {
	y, m, d := time.Now().Date()
	return &DownloadHistory{
		ID:        uuid.New(),
		CreatedOn: time.Date(y, m, d, 0, 0, 0, 0, time.Local),
	}
}

// IsForToday reports whether this record belongs to the current calendar day
func (h *DownloadHistory) IsForToday() bool {
	y1, m1, d1 := h.CreatedOn.Date()
	y2, m2, d2 := time.Now().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
