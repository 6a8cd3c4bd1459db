package models

import (
	"time"
)

// Document stores the fields shared by every document type: the expert labels
// recorded by health-department reviewers and the predictions made by the
// classifier. Concrete types (YelpReview, Tweet) reach their Document through a
// DocumentAssociation row keyed by their natural id.
//
// Every label and prediction column has a paired *_time column recording when it
// was last written. The pair is always written together; use the documents
// service rather than updating these columns directly.
type Document struct {
	ID      string    `json:"id" db:"id" gorm:"primaryKey;size:64"`
	AssocID string    `json:"assoc_id" db:"assoc_id" gorm:"column:assoc_id;size:64;not null;index"`
	Created time.Time `json:"created" db:"created" gorm:"not null"`

	// Labels from public-health experts
	FPLabel   *bool `json:"fp_label" db:"fp_label" gorm:"column:fp_label"`
	MultLabel *bool `json:"mult_label" db:"mult_label" gorm:"column:mult_label"`
	IncLabel  *bool `json:"inc_label" db:"inc_label" gorm:"column:inc_label"`

	// Predictions made by the system
	FPPred   *float64 `json:"fp_pred" db:"fp_pred" gorm:"column:fp_pred"`
	MultPred *float64 `json:"mult_pred" db:"mult_pred" gorm:"column:mult_pred"`
	IncPred  *float64 `json:"inc_pred" db:"inc_pred" gorm:"column:inc_pred"`

	// Paired write timestamps
	FPLabelTime   *time.Time `json:"fp_label_time" db:"fp_label_time" gorm:"column:fp_label_time"`
	MultLabelTime *time.Time `json:"mult_label_time" db:"mult_label_time" gorm:"column:mult_label_time"`
	IncLabelTime  *time.Time `json:"inc_label_time" db:"inc_label_time" gorm:"column:inc_label_time"`
	FPPredTime    *time.Time `json:"fp_pred_time" db:"fp_pred_time" gorm:"column:fp_pred_time"`
	MultPredTime  *time.Time `json:"mult_pred_time" db:"mult_pred_time" gorm:"column:mult_pred_time"`
	IncPredTime   *time.Time `json:"inc_pred_time" db:"inc_pred_time" gorm:"column:inc_pred_time"`
}

// TableName sets the table name for the Document model
func (Document) TableName() string {
	return "documents"
}

// DocumentAssociation binds a concrete document row to its generic Document.
// AssocID doubles as the concrete row's primary key, which is what makes the
// polymorphic lookup a single indexed query: the Type discriminator selects the
// table, AssocID selects the row.
type DocumentAssociation struct {
	AssocID string `json:"assoc_id" db:"assoc_id" gorm:"column:assoc_id;primaryKey;size:64"`
	Type    string `json:"type" db:"type" gorm:"size:50;not null"`
}

// TableName sets the table name for the DocumentAssociation model
func (DocumentAssociation) TableName() string {
	return "document_associations"
}
