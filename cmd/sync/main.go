package main

import (
	"errors"
	"log"

	"foodwatch/internal/database"
	"foodwatch/internal/yelp"

	"github.com/joho/godotenv"
)

func main() {
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

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	log.Println("🔄 Syncing Yelp feed...")

	syncer := yelp.NewSyncer(db, yelp.LoadConfig())
	if err := syncer.Run(); err != nil {
		if errors.Is(err, yelp.ErrFeedUnavailable) {
			log.Fatal("❌ No feed data available for the past month")
		}
		log.Fatal("Feed sync failed:", err)
	}

	log.Println("✅ Feed sync completed successfully")
}
