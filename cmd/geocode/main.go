package main

import (
	"flag"
	"log"
	"time"

	"foodwatch/internal/database"
	"foodwatch/internal/yelp"

	"github.com/joho/godotenv"
)

func main() {
	// Command line flags
	wait := flag.Int("wait", 2, "Per-lookup timeout in seconds")
	minutes := flag.Int("minutes", 240, "Overall run time budget in minutes")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Connect to database
	dbConfig := database.LoadConfig()
	db, err := database.Connect(dbConfig)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close(db)

	log.Println("🌍 Geocoding locations with unknown coordinates...")

	geocoder := yelp.NewGeocoder(db)
	err = geocoder.GeocodeUnknown(
		time.Duration(*wait)*time.Second,
		time.Duration(*minutes)*time.Minute,
	)
	if err != nil {
		log.Fatal("Geocoding failed:", err)
	}

	log.Println("✅ Geocoding run completed")
}
