package twitter

import (
	"testing"
	"time"

	"foodwatch/internal/documents"
	"foodwatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func newTestConsumer(t *testing.T) (*StreamConsumer, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	return NewStreamConsumer(db, documents.NewService(db), "ws://stream.invalid"), db
}

func sampleEvent(id string) *TweetEvent {
	return &TweetEvent{
		ID:        id,
		Text:      "pretty sure that taco truck gave me food poisoning",
		CreatedAt: time.Date(2016, 3, 1, 12, 0, 0, 0, time.UTC),
		Hashtags:  []string{"foodpoisoning", "nyc"},
		User:      TweetUser{ID: "u1", ScreenName: "sickofit"},
	}
}

func TestHandleTweetPersistsEverything(t *testing.T) {
	consumer, db := newTestConsumer(t)

	require.NoError(t, consumer.handleTweet(sampleEvent("t1")))

	var user models.TwitterUser
	require.NoError(t, db.First(&user, "twitter_id = ?", "u1").Error)
	assert.Equal(t, "sickofit", user.ScreenName)

	var tweet models.Tweet
	require.NoError(t, db.First(&tweet, "tweet_id = ?", "t1").Error)
	assert.Equal(t, "u1", tweet.UserID)
	assert.Equal(t, []string{"foodpoisoning", "nyc"}, []string(tweet.Hashtags))
	assert.Equal(t, time.Date(2016, 3, 1, 12, 0, 0, 0, time.UTC).Unix(), tweet.PostedDate)

	var assoc models.DocumentAssociation
	require.NoError(t, db.First(&assoc, "assoc_id = ?", "t1").Error)
	assert.Equal(t, "tweets", assoc.Type)

	var doc models.Document
	require.NoError(t, db.First(&doc, "id = ?", "t1").Error)
	assert.Nil(t, doc.IncPred)
}

func TestHandleTweetIsIdempotent(t *testing.T) {
	consumer, db := newTestConsumer(t)

	require.NoError(t, consumer.handleTweet(sampleEvent("t1")))
	require.NoError(t, consumer.handleTweet(sampleEvent("t1")))

	var userCount, tweetCount, docCount int64
	db.Model(&models.TwitterUser{}).Count(&userCount)
	db.Model(&models.Tweet{}).Count(&tweetCount)
	db.Model(&models.Document{}).Count(&docCount)
	assert.Equal(t, int64(1), userCount)
	assert.Equal(t, int64(1), tweetCount)
	assert.Equal(t, int64(1), docCount)
}

func TestHandleTweetRejectsIncompleteEvents(t *testing.T) {
	consumer, db := newTestConsumer(t)

	noID := sampleEvent("")
	assert.Error(t, consumer.handleTweet(noID))

	noAuthor := sampleEvent("t1")
	noAuthor.User.ID = ""
	assert.Error(t, consumer.handleTweet(noAuthor))

	var tweetCount int64
	db.Model(&models.Tweet{}).Count(&tweetCount)
	assert.Equal(t, int64(0), tweetCount)
}

func TestClassifierReadsStreamedTweets(t *testing.T) {
	consumer, db := newTestConsumer(t)
	require.NoError(t, consumer.handleTweet(sampleEvent("t1")))

	docs := documents.NewService(db)
	var doc models.Document
	require.NoError(t, db.First(&doc, "id = ?", "t1").Error)

	owner, err := docs.Source(&doc)
	require.NoError(t, err)

	tweet, ok := owner.(*models.Tweet)
	require.True(t, ok)
	assert.Contains(t, tweet.DocumentText(), "food poisoning")
}
