package yelp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"foodwatch/internal/models"

	"gorm.io/gorm"
)

// geocodeSaveEvery is how many geocoded locations accumulate before a batch save
const geocodeSaveEvery = 100

// Geocoder fills in coordinates for locations the feed delivered without any,
// using the OpenStreetMap Nominatim service.
type Geocoder struct {
	db      *gorm.DB
	client  *http.Client
	baseURL string
}

// NewGeocoder creates a new geocoder against the public Nominatim endpoint
func NewGeocoder(db *gorm.DB) *Geocoder {
	return &Geocoder{
		db:      db,
		client:  &http.Client{},
		baseURL: getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
	}
}

// GeocodeUnknown looks up coordinates for locations with no latitude, for at
// most runTime. The candidates are shuffled so repeated time-boxed runs give
// every pending location a fair chance instead of always retrying the same
// prefix. Individual lookup failures leave the location's coordinates null
// and processing continues.
func (g *Geocoder) GeocodeUnknown(waitTime, runTime time.Duration) error {
	var unknowns []models.Location
	if err := g.db.Where("latitude IS NULL").Find(&unknowns).Error; err != nil {
		return fmt.Errorf("failed to list unknown locations: %w", err)
	}

	rand.Shuffle(len(unknowns), func(i, j int) {
		unknowns[i], unknowns[j] = unknowns[j], unknowns[i]
	})

	log.Printf("Attempting to geocode %d unknown locations for %s", len(unknowns), runTime)
	deadline := time.Now().Add(runTime)

	var pending []models.Location
	geocoded := 0
	for i := range unknowns {
		if time.Now().After(deadline) {
			log.Println("Max geocoding time elapsed, stopping for this run")
			break
		}

		location := unknowns[i]
		lat, lon, err := g.lookup(location.StreetAddress(), waitTime)
		if err != nil {
			log.Printf("Geocode failed for %q: %v", location.StreetAddress(), err)
			continue
		}

		location.Latitude, location.Longitude = &lat, &lon
		pending = append(pending, location)
		geocoded++

		if len(pending) >= geocodeSaveEvery {
			if err := g.save(pending); err != nil {
				return err
			}
			pending = nil
		}
	}

	if err := g.save(pending); err != nil {
		return err
	}
	log.Printf("Finished geocode attempts, %d locations updated", geocoded)
	return nil
}

func (g *Geocoder) save(locations []models.Location) error {
	for i := range locations {
		err := g.db.Model(&models.Location{}).
			Where("identifier = ?", locations[i].Identifier).
			Updates(map[string]interface{}{
				"latitude":  locations[i].Latitude,
				"longitude": locations[i].Longitude,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to save geocoded location: %w", err)
		}
	}
	return nil
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// lookup resolves a street address to coordinates with a per-request timeout
func (g *Geocoder) lookup(address string, waitTime time.Duration) (float64, float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), waitTime)
	defer cancel()

	query := url.Values{}
	query.Set("format", "json")
	query.Set("limit", "1")
	query.Set("q", address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.baseURL+"/search?"+query.Encode(), nil)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("User-Agent", "foodwatch/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, err
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return 0, 0, err
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("no match for %q", address)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, err
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}
