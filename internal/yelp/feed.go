// Package yelp syncs the Yelp syndication feed into the store: a per-day
// download/unzip/load state machine, per-entity normalizers, a full bulk
// loader for an empty store and an incremental upserter for later runs.
package yelp

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"foodwatch/internal/models"
)

// Source date layouts used by the feed.
const (
	businessTimeLayout = "2006-01-02T15:04:05"
	reviewDateLayout   = "2006-01-02"
)

// FeedBusiness mirrors one line of the newline-JSON feed: a business with its
// nested location, categories and reviews.
type FeedBusiness struct {
	ID          string         `json:"id"`
	Name        *string        `json:"name"`
	Phone       *string        `json:"phone"`
	Rating      float64        `json:"rating"`
	URL         *string        `json:"url"`
	BusinessURL *string        `json:"business_url"`
	TimeUpdated string         `json:"time_updated"`
	IsClosed    bool           `json:"is_closed"`
	Location    FeedLocation   `json:"location"`
	Categories  []FeedCategory `json:"categories"`
	Reviews     []FeedReview   `json:"reviews"`
}

// FeedLocation is the nested address object of a feed business
type FeedLocation struct {
	Address    []*string       `json:"address"`
	City       *string         `json:"city"`
	Country    *string         `json:"country"`
	PostalCode *string         `json:"postal_code"`
	State      *string         `json:"state"`
	Coordinate *FeedCoordinate `json:"coordinate"`
}

// FeedCoordinate carries optional latitude/longitude
type FeedCoordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FeedCategory is one category entry of a feed business
type FeedCategory struct {
	Alias *string `json:"alias"`
	Title *string `json:"title"`
}

// FeedReview is one review of a feed business, with its nested author
type FeedReview struct {
	ID      string   `json:"id"`
	Text    *string  `json:"text"`
	Rating  float64  `json:"rating"`
	Created string   `json:"created"`
	User    FeedUser `json:"user"`
}

// FeedUser is the nested author of a feed review
type FeedUser struct {
	Name     *string `json:"name"`
	PhotoURL *string `json:"photo_url"`
}

// ParseFeedLine decodes a single feed line
func ParseFeedLine(line []byte) (FeedBusiness, error) {
	var fb FeedBusiness
	if err := json.Unmarshal(line, &fb); err != nil {
		return FeedBusiness{}, fmt.Errorf("broken JSON element: %w", err)
	}
	return fb, nil
}

// strOrEmpty collapses feed nulls to empty strings so no text field is ever
// persisted as NULL.
func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func addressLine(address []*string, i int) string {
	if i >= len(address) {
		return ""
	}
	return strOrEmpty(address[i])
}

// NormalizeLocation maps a raw feed location onto a Location row, deriving its
// deterministic identifier from the address fields.
func NormalizeLocation(fl FeedLocation) models.Location {
	loc := models.Location{
		Line1:      addressLine(fl.Address, 0),
		Line2:      addressLine(fl.Address, 1),
		Line3:      addressLine(fl.Address, 2),
		City:       strOrEmpty(fl.City),
		State:      strOrEmpty(fl.State),
		PostalCode: strOrEmpty(fl.PostalCode),
		Country:    strOrEmpty(fl.Country),
	}
	if fl.Coordinate != nil {
		lat, lon := fl.Coordinate.Latitude, fl.Coordinate.Longitude
		loc.Latitude, loc.Longitude = &lat, &lon
		// known coordinates need no bounding box
		zero := 0.0
		w, h := zero, zero
		loc.BBoxWidth, loc.BBoxHeight = &w, &h
	}
	loc.Identifier = models.AddressKey{
		Line1:      &loc.Line1,
		Line2:      &loc.Line2,
		Line3:      &loc.Line3,
		City:       &loc.City,
		State:      &loc.State,
		PostalCode: &loc.PostalCode,
		BBoxWidth:  loc.BBoxWidth,
		BBoxHeight: loc.BBoxHeight,
	}.Identifier()
	return loc
}

// NormalizeBusiness maps a raw feed business onto a YelpBusiness row
func NormalizeBusiness(fb FeedBusiness, locationID string) (models.YelpBusiness, error) {
	updated, err := time.ParseInLocation(businessTimeLayout, fb.TimeUpdated, time.Local)
	if err != nil {
		return models.YelpBusiness{}, fmt.Errorf("business %s: bad time_updated %q: %w", fb.ID, fb.TimeUpdated, err)
	}
	return models.YelpBusiness{
		BusinessID:  fb.ID,
		Name:        strOrEmpty(fb.Name),
		Phone:       strOrEmpty(fb.Phone),
		Rating:      fb.Rating,
		URL:         strOrEmpty(fb.URL),
		BusinessURL: strOrEmpty(fb.BusinessURL),
		LastUpdated: updated.Unix(),
		IsClosed:    fb.IsClosed,
		LocationID:  locationID,
	}, nil
}

// NormalizeCategory maps a raw feed category onto a YelpCategory row
func NormalizeCategory(fc FeedCategory) models.YelpCategory {
	return models.YelpCategory{
		Alias: strOrEmpty(fc.Alias),
		Title: strOrEmpty(fc.Title),
	}
}

// NormalizeReview maps a raw feed review onto a YelpReview row. Backslashes in
// the text are replaced with forward slashes; a trailing backslash escapes the
// closing quote when the bulk CSV is re-read downstream.
func NormalizeReview(fr FeedReview) (models.YelpReview, error) {
	authored, err := time.ParseInLocation(reviewDateLayout, fr.Created, time.Local)
	if err != nil {
		return models.YelpReview{}, fmt.Errorf("review %s: bad created %q: %w", fr.ID, fr.Created, err)
	}
	return models.YelpReview{
		ReviewID:     fr.ID,
		Text:         strings.ReplaceAll(strOrEmpty(fr.Text), `\`, "/"),
		Rating:       fr.Rating,
		AuthoredDate: authored.Unix(),
	}, nil
}

// NormalizeUser maps a raw feed user onto a YelpUser row. The feed has no user
// ids; the loader assigns one before insert.
func NormalizeUser(fu FeedUser) models.YelpUser {
	return models.YelpUser{
		Name:     strOrEmpty(fu.Name),
		PhotoURL: strOrEmpty(fu.PhotoURL),
	}
}

// Fixed column orders for the bulk-load CSV exports. The header row is written
// on the first record of each file.
var (
	locationColumns = []string{"created", "modified", "latitude", "longitude",
		"line1", "line2", "line3", "city", "state", "postal_code", "country",
		"bbox_width", "bbox_height", "identifier"}
	businessColumns = []string{"created", "modified", "business_id", "name", "phone",
		"rating", "url", "business_url", "last_updated", "is_closed", "location_id"}
	categoryColumns         = []string{"created", "modified", "alias", "title"}
	categoryBusinessColumns = []string{"business_id", "alias"}
	reviewColumns           = []string{"created", "modified", "review_id", "text", "rating",
		"authored_date", "business_id", "user_id"}
	userColumns = []string{"created", "modified", "id", "name", "photo_url"}
)

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func fmtFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return fmtFloat(*v)
}

func fmtUnix(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

func locationRow(l models.Location, stamp time.Time) []string {
	return []string{fmtUnix(stamp), fmtUnix(stamp),
		fmtFloatPtr(l.Latitude), fmtFloatPtr(l.Longitude),
		l.Line1, l.Line2, l.Line3, l.City, l.State, l.PostalCode, l.Country,
		fmtFloatPtr(l.BBoxWidth), fmtFloatPtr(l.BBoxHeight), l.Identifier}
}

func businessRow(b models.YelpBusiness, stamp time.Time) []string {
	return []string{fmtUnix(stamp), fmtUnix(stamp), b.BusinessID, b.Name, b.Phone,
		fmtFloat(b.Rating), b.URL, b.BusinessURL,
		strconv.FormatInt(b.LastUpdated, 10), strconv.FormatBool(b.IsClosed), b.LocationID}
}

func categoryRow(c models.YelpCategory, stamp time.Time) []string {
	return []string{fmtUnix(stamp), fmtUnix(stamp), c.Alias, c.Title}
}

func categoryBusinessRow(link models.BusinessCategory) []string {
	return []string{link.BusinessID, link.Alias}
}

func reviewRow(r models.YelpReview, stamp time.Time) []string {
	return []string{fmtUnix(stamp), fmtUnix(stamp), r.ReviewID, r.Text,
		fmtFloat(r.Rating), strconv.FormatInt(r.AuthoredDate, 10),
		r.BusinessID, strconv.FormatInt(r.UserID, 10)}
}

func userRow(u models.YelpUser, stamp time.Time) []string {
	return []string{fmtUnix(stamp), fmtUnix(stamp),
		strconv.FormatInt(u.ID, 10), u.Name, u.PhotoURL}
}
