package classifier

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

// fixedModel always predicts the same score
type fixedModel struct {
	score float64
}

func (m fixedModel) Predict(string) (float64, error) {
	return m.score, nil
}

func seedReview(t *testing.T, db *gorm.DB, docs *documents.Service, id string, created time.Time) *models.Document {
	t.Helper()

	require.NoError(t, db.Create(&models.Location{Identifier: "loc-" + id}).Error)
	require.NoError(t, db.Create(&models.YelpBusiness{BusinessID: "biz-" + id, LocationID: "loc-" + id}).Error)
	require.NoError(t, db.Create(&models.YelpUser{ID: int64(len(id))}).Error)

	review := models.YelpReview{
		ReviewID:   id,
		Text:       "the fish made me sick",
		BusinessID: "biz-" + id,
		UserID:     int64(len(id)),
	}
	require.NoError(t, db.Create(&review).Error)

	doc, err := docs.Attach(&review)
	require.NoError(t, err)
	require.NoError(t, db.Model(doc).Update("created", created).Error)
	doc.Created = created
	return doc
}

func TestClassifyScoresRecentDocuments(t *testing.T) {
	db := setupTestDB(t)
	docs := documents.NewService(db)
	seedReview(t, db, docs, "r1", time.Now())

	runner := NewRunner(db, docs, map[documents.Field]Model{
		documents.Incident: fixedModel{score: 0.8},
	})
	require.NoError(t, runner.Classify(Selection{}, false))

	var stored models.Document
	require.NoError(t, db.First(&stored, "id = ?", "r1").Error)
	require.NotNil(t, stored.IncPred)
	assert.InDelta(t, 0.8, *stored.IncPred, 1e-9)
	assert.NotNil(t, stored.IncPredTime)

	// unconfigured fields stay unscored
	assert.Nil(t, stored.FPPred)
	assert.Nil(t, stored.FPPredTime)
}

func TestClassifyHonorsRecencyWindow(t *testing.T) {
	db := setupTestDB(t)
	docs := documents.NewService(db)
	seedReview(t, db, docs, "old", time.Now().AddDate(0, 0, -30))

	runner := NewRunner(db, docs, map[documents.Field]Model{
		documents.Incident: fixedModel{score: 0.8},
	})

	// default window is 7 days
	require.NoError(t, runner.Classify(Selection{}, false))
	var stored models.Document
	require.NoError(t, db.First(&stored, "id = ?", "old").Error)
	assert.Nil(t, stored.IncPred)

	// All overrides the window
	require.NoError(t, runner.Classify(Selection{All: true}, false))
	require.NoError(t, db.First(&stored, "id = ?", "old").Error)
	require.NotNil(t, stored.IncPred)
	assert.InDelta(t, 0.8, *stored.IncPred, 1e-9)
}

func TestClassifyUnseenSkipsScoredDocuments(t *testing.T) {
	db := setupTestDB(t)
	docs := documents.NewService(db)
	seedReview(t, db, docs, "r1", time.Now())

	first := NewRunner(db, docs, map[documents.Field]Model{
		documents.Incident: fixedModel{score: 0.8},
	})
	require.NoError(t, first.Classify(Selection{}, false))

	second := NewRunner(db, docs, map[documents.Field]Model{
		documents.Incident: fixedModel{score: 0.2},
	})
	require.NoError(t, second.Classify(Selection{Unseen: true}, false))

	var stored models.Document
	require.NoError(t, db.First(&stored, "id = ?", "r1").Error)
	require.NotNil(t, stored.IncPred)
	assert.InDelta(t, 0.8, *stored.IncPred, 1e-9, "unseen runs must not rescore documents")

	// without Unseen the newer model rescores
	require.NoError(t, second.Classify(Selection{}, false))
	require.NoError(t, db.First(&stored, "id = ?", "r1").Error)
	assert.InDelta(t, 0.2, *stored.IncPred, 1e-9)
}

func TestClassifyNeverTouchesLabels(t *testing.T) {
	db := setupTestDB(t)
	docs := documents.NewService(db)
	doc := seedReview(t, db, docs, "r1", time.Now())
	require.NoError(t, docs.SetLabel(doc, documents.Incident, true))

	runner := NewRunner(db, docs, map[documents.Field]Model{
		documents.Incident: fixedModel{score: 0.8},
	})
	require.NoError(t, runner.Classify(Selection{}, false))

	var stored models.Document
	require.NoError(t, db.First(&stored, "id = ?", "r1").Error)
	require.NotNil(t, stored.IncLabel)
	assert.True(t, *stored.IncLabel)
	require.NotNil(t, stored.IncPred)
	assert.InDelta(t, 0.8, *stored.IncPred, 1e-9)
}

func TestClassifyRequiresModels(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, documents.NewService(db), nil)

	assert.Error(t, runner.Classify(Selection{}, false))
}
