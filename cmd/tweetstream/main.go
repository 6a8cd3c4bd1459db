package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"foodwatch/internal/database"
	"foodwatch/internal/documents"
	"foodwatch/internal/twitter"

	"github.com/joho/godotenv"
)

func main() {
	// Command line flags
	streamURL := flag.String("url", os.Getenv("TWEET_STREAM_URL"), "Websocket URL of the tweet stream")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	if *streamURL == "" {
		*streamURL = os.Getenv("TWEET_STREAM_URL")
	}
	if *streamURL == "" {
		log.Fatal("No stream URL given; pass -url or set TWEET_STREAM_URL")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := twitter.NewStreamConsumer(db, documents.NewService(db), *streamURL)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("Tweet stream failed:", err)
	}

	log.Println("Tweet stream stopped")
}
