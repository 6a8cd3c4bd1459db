package models

import (
	"strconv"
	"strings"
	"time"
)

// Location represents a physical address shared by one or more businesses.
//
// The feed carries no natural key for locations, so Identifier is derived from
// the address fields (see AddressKey). Two feed records with the same address
// collapse onto one row, which is what the bulk loader's dedup relies on.
type Location struct {
	Identifier string `json:"identifier" db:"identifier" gorm:"primaryKey;size:512"`

	Latitude  *float64 `json:"latitude" db:"latitude"`
	Longitude *float64 `json:"longitude" db:"longitude"`

	Line1      string `json:"line1" db:"line1"`
	Line2      string `json:"line2" db:"line2"`
	Line3      string `json:"line3" db:"line3"`
	City       string `json:"city" db:"city"`
	State      string `json:"state" db:"state"`
	PostalCode string `json:"postal_code" db:"postal_code"`
	Country    string `json:"country" db:"country"`

	// Bounding-box dimensions, zero when the feed supplied coordinates and
	// null when it did not
	BBoxWidth  *float64 `json:"bbox_width" db:"bbox_width" gorm:"column:bbox_width"`
	BBoxHeight *float64 `json:"bbox_height" db:"bbox_height" gorm:"column:bbox_height"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the Location model
func (Location) TableName() string {
	return "locations"
}

// StreetAddress returns a single-line address suitable for geocoding lookups
func (l *Location) StreetAddress() string {
	parts := []string{}
	for _, p := range []string{l.Line1, l.Line2, l.Line3, l.City, l.State, l.PostalCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// identifierDelimiter separates address fields in the derived identifier.
const identifierDelimiter = " | "

// AddressKey holds the eight address attributes that participate in a
// location's derived identifier, in their fixed order. Nil pointers mark
// fields absent from the feed record and are substituted with a literal
// placeholder, so absent and empty fields produce distinct identifiers.
type AddressKey struct {
	Line1      *string
	Line2      *string
	Line3      *string
	City       *string
	State      *string
	PostalCode *string
	BBoxWidth  *float64
	BBoxHeight *float64
}

// Identifier derives the deterministic location key. It is a pure function of
// the eight fields: identical inputs always yield identical identifiers.
func (k AddressKey) Identifier() string {
	fields := []string{
		strField(k.Line1, "line1"),
		strField(k.Line2, "line2"),
		strField(k.Line3, "line3"),
		strField(k.City, "city"),
		strField(k.State, "state"),
		strField(k.PostalCode, "postal_code"),
		floatField(k.BBoxWidth, "bbox_width"),
		floatField(k.BBoxHeight, "bbox_height"),
	}
	return strings.Join(fields, identifierDelimiter)
}

func strField(v *string, name string) string {
	if v == nil {
		return "NULL_" + name
	}
	return *v
}

func floatField(v *float64, name string) string {
	if v == nil {
		return "NULL_" + name
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
