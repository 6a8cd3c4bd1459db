package yelp

import (
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func sampleLocation() FeedLocation {
	return FeedLocation{
		Address:    []*string{strPtr("548 Riverside Dr"), nil, nil},
		City:       strPtr("New York"),
		State:      strPtr("NY"),
		PostalCode: strPtr("10027"),
		Country:    strPtr("US"),
		Coordinate: &FeedCoordinate{Latitude: 40.815, Longitude: -73.961},
	}
}

func TestParseFeedLineRejectsBrokenJSON(t *testing.T) {
	if _, err := ParseFeedLine([]byte(`{"id": "b1", "nope`)); err == nil {
		t.Error("Expected broken JSON to fail parsing")
	}
}

func TestNormalizeLocationMissingTextBecomesEmpty(t *testing.T) {
	fl := sampleLocation()
	fl.City = nil
	fl.Address = []*string{strPtr("1 Main St")}

	loc := NormalizeLocation(fl)

	if loc.City != "" {
		t.Errorf("Expected missing city to normalize to empty string, got %q", loc.City)
	}
	if loc.Line2 != "" || loc.Line3 != "" {
		t.Error("Expected short address array to normalize to empty lines")
	}
}

func TestNormalizeLocationCoordinates(t *testing.T) {
	loc := NormalizeLocation(sampleLocation())

	if loc.Latitude == nil || *loc.Latitude != 40.815 {
		t.Error("Expected latitude to be carried over")
	}
	if loc.BBoxWidth == nil || *loc.BBoxWidth != 0 {
		t.Error("Expected zero bbox when coordinates are present")
	}

	fl := sampleLocation()
	fl.Coordinate = nil
	loc = NormalizeLocation(fl)

	if loc.Latitude != nil {
		t.Error("Expected nil latitude without a coordinate")
	}
	if loc.BBoxWidth != nil {
		t.Error("Expected nil bbox without a coordinate")
	}
}

func TestNormalizeLocationSameAddressSameIdentifier(t *testing.T) {
	a := NormalizeLocation(sampleLocation())
	b := NormalizeLocation(sampleLocation())

	if a.Identifier != b.Identifier {
		t.Errorf("Expected identical addresses to collapse to one identifier, got %q and %q",
			a.Identifier, b.Identifier)
	}

	fl := sampleLocation()
	fl.PostalCode = strPtr("10028")
	c := NormalizeLocation(fl)

	if c.Identifier == a.Identifier {
		t.Error("Expected a different postal code to change the identifier")
	}
}

func TestNormalizeBusinessParsesTimeUpdated(t *testing.T) {
	fb := FeedBusiness{
		ID:          "b1",
		Name:        strPtr("Clean Plate Club"),
		TimeUpdated: "2016-03-01T12:30:00",
		Rating:      4.5,
	}

	business, err := NormalizeBusiness(fb, "loc1")
	if err != nil {
		t.Fatalf("NormalizeBusiness failed: %v", err)
	}

	expected := time.Date(2016, 3, 1, 12, 30, 0, 0, time.Local)
	if !business.LastUpdatedAt().Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, business.LastUpdatedAt())
	}
	if business.LocationID != "loc1" {
		t.Errorf("Expected location id loc1, got %q", business.LocationID)
	}
	if business.Phone != "" {
		t.Errorf("Expected missing phone to normalize to empty string, got %q", business.Phone)
	}
}

func TestNormalizeBusinessRejectsBadDate(t *testing.T) {
	fb := FeedBusiness{ID: "b1", TimeUpdated: "not-a-date"}

	if _, err := NormalizeBusiness(fb, "loc1"); err == nil {
		t.Error("Expected a bad time_updated to fail normalization")
	}
}

func TestNormalizeReviewReplacesBackslashes(t *testing.T) {
	fr := FeedReview{
		ID:      "r1",
		Text:    strPtr(`great "food"\`),
		Rating:  4,
		Created: "2016-01-01",
	}

	review, err := NormalizeReview(fr)
	if err != nil {
		t.Fatalf("NormalizeReview failed: %v", err)
	}

	if review.Text != `great "food"/` {
		t.Errorf("Expected backslash replaced with slash, got %q", review.Text)
	}

	expected := time.Date(2016, 1, 1, 0, 0, 0, 0, time.Local)
	if !review.AuthoredAt().Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, review.AuthoredAt())
	}
}

func TestNormalizeReviewRejectsBadDate(t *testing.T) {
	fr := FeedReview{ID: "r1", Created: "01/01/2016"}

	if _, err := NormalizeReview(fr); err == nil {
		t.Error("Expected a bad created date to fail normalization")
	}
}

func TestNormalizeUserAndCategory(t *testing.T) {
	user := NormalizeUser(FeedUser{Name: strPtr("sam")})
	if user.Name != "sam" || user.PhotoURL != "" {
		t.Errorf("Unexpected user normalization: %+v", user)
	}

	category := NormalizeCategory(FeedCategory{Alias: strPtr("food"), Title: strPtr("Food")})
	if category.Alias != "food" || category.Title != "Food" {
		t.Errorf("Unexpected category normalization: %+v", category)
	}
}
