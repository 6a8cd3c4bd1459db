package models

import (
	"strings"
	"testing"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func fullKey() AddressKey {
	return AddressKey{
		Line1:      strPtr("548 Riverside Dr"),
		Line2:      strPtr("Apt 4"),
		Line3:      strPtr(""),
		City:       strPtr("New York"),
		State:      strPtr("NY"),
		PostalCode: strPtr("10027"),
		BBoxWidth:  floatPtr(0),
		BBoxHeight: floatPtr(0),
	}
}

func TestAddressKeyIdentifierDeterministic(t *testing.T) {
	a := fullKey().Identifier()
	b := fullKey().Identifier()

	if a != b {
		t.Errorf("Expected identical keys to derive identical identifiers, got %q and %q", a, b)
	}
}

func TestAddressKeyIdentifierChangesWithAnyField(t *testing.T) {
	base := fullKey().Identifier()

	mutations := map[string]AddressKey{}

	k := fullKey()
	k.Line1 = strPtr("1 Main St")
	mutations["line1"] = k

	k = fullKey()
	k.Line2 = strPtr("Apt 5")
	mutations["line2"] = k

	k = fullKey()
	k.Line3 = strPtr("Floor 2")
	mutations["line3"] = k

	k = fullKey()
	k.City = strPtr("Brooklyn")
	mutations["city"] = k

	k = fullKey()
	k.State = strPtr("NJ")
	mutations["state"] = k

	k = fullKey()
	k.PostalCode = strPtr("11201")
	mutations["postal_code"] = k

	k = fullKey()
	k.BBoxWidth = floatPtr(1.5)
	mutations["bbox_width"] = k

	k = fullKey()
	k.BBoxHeight = floatPtr(2.5)
	mutations["bbox_height"] = k

	for field, mutated := range mutations {
		if mutated.Identifier() == base {
			t.Errorf("Changing %s did not change the identifier", field)
		}
	}
}

func TestAddressKeyIdentifierPlaceholders(t *testing.T) {
	id := AddressKey{}.Identifier()

	for _, placeholder := range []string{
		"NULL_line1", "NULL_line2", "NULL_line3", "NULL_city", "NULL_state",
		"NULL_postal_code", "NULL_bbox_width", "NULL_bbox_height",
	} {
		if !strings.Contains(id, placeholder) {
			t.Errorf("Expected identifier %q to contain placeholder %s", id, placeholder)
		}
	}

	// absent and empty are distinct values
	empty := ""
	withEmpty := AddressKey{Line1: &empty}.Identifier()
	if withEmpty == id {
		t.Error("Expected an empty field to derive a different identifier than an absent field")
	}
}

func TestAddressKeyIdentifierFieldOrder(t *testing.T) {
	id := fullKey().Identifier()
	fields := strings.Split(id, " | ")

	if len(fields) != 8 {
		t.Fatalf("Expected 8 fields in identifier, got %d: %q", len(fields), id)
	}
	if fields[0] != "548 Riverside Dr" {
		t.Errorf("Expected line1 first, got %q", fields[0])
	}
	if fields[7] != "0" {
		t.Errorf("Expected bbox_height last, got %q", fields[7])
	}
}

func TestStreetAddressSkipsEmptyParts(t *testing.T) {
	loc := Location{
		Line1:      "548 Riverside Dr",
		City:       "New York",
		State:      "NY",
		PostalCode: "10027",
	}

	expected := "548 Riverside Dr, New York, NY, 10027"
	if got := loc.StreetAddress(); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}
