// Package twitter ingests tweets from a streaming source, giving the document
// layer its second concrete subtype alongside Yelp reviews.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"foodwatch/internal/documents"
	"foodwatch/internal/models"

	"github.com/gorilla/websocket"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// reconnectDelay is how long to wait before re-dialing a dropped stream
const reconnectDelay = 10 * time.Second

// StreamConsumer handles the websocket connection and tweet processing
type StreamConsumer struct {
	db     *gorm.DB
	docs   *documents.Service
	dialer *websocket.Dialer
	url    string
}

// NewStreamConsumer creates a new stream consumer for the given websocket URL
func NewStreamConsumer(db *gorm.DB, docs *documents.Service, streamURL string) *StreamConsumer {
	return &StreamConsumer{
		db:     db,
		docs:   docs,
		dialer: websocket.DefaultDialer,
		url:    streamURL,
	}
}

// TweetEvent represents one tweet from the stream
type TweetEvent struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Hashtags  []string  `json:"hashtags,omitempty"`
	User      TweetUser `json:"user"`
}

// TweetUser represents the author of a streamed tweet
type TweetUser struct {
	ID         string `json:"id"`
	ScreenName string `json:"screen_name"`
}

// Start consumes the stream until the context is cancelled, reconnecting
// after connection errors.
func (c *StreamConsumer) Start(ctx context.Context) error {
	log.Printf("Connecting to tweet stream: %s", c.url)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.connectAndConsume(ctx); err != nil {
				log.Printf("Tweet stream error: %v. Reconnecting in %s...", err, reconnectDelay)

				select {
				case <-time.After(reconnectDelay):
					continue
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

// connectAndConsume handles a single connection to the stream
func (c *StreamConsumer) connectAndConsume(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to stream: %w", err)
	}
	defer conn.Close()

	// unblock ReadMessage when the context ends
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	log.Println("Successfully connected to tweet stream")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		var event TweetEvent
		if err := json.Unmarshal(message, &event); err != nil {
			log.Printf("Skipping malformed stream message: %v", err)
			continue
		}

		if err := c.handleTweet(&event); err != nil {
			log.Printf("Failed to process tweet %s: %v", event.ID, err)
		}
	}
}

// handleTweet persists the author and tweet, then attaches a Document so the
// classifier picks the tweet up like any other ingested content.
func (c *StreamConsumer) handleTweet(event *TweetEvent) error {
	if event.ID == "" {
		return fmt.Errorf("tweet has no id")
	}
	if event.User.ID == "" {
		return fmt.Errorf("tweet has no author")
	}

	user := models.TwitterUser{
		TwitterID:  event.User.ID,
		ScreenName: event.User.ScreenName,
	}
	if err := c.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	tweet := models.Tweet{
		TweetID:    event.ID,
		Text:       event.Text,
		Hashtags:   event.Hashtags,
		PostedDate: event.CreatedAt.Unix(),
		UserID:     event.User.ID,
	}
	if err := c.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&tweet).Error; err != nil {
		return fmt.Errorf("failed to create tweet: %w", err)
	}

	if _, err := c.docs.Attach(&tweet); err != nil {
		return fmt.Errorf("failed to attach document: %w", err)
	}
	return nil
}
