package yelp

import (
	"bufio"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"foodwatch/internal/documents"
	"foodwatch/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Upserter is the incremental load path for a store that already holds feed
// data. It processes the feed record by record, skips businesses unchanged
// since the prior successful run, and match-or-creates everything else in
// fixed-size batches.
type Upserter struct {
	db   *gorm.DB
	docs *documents.Service
}

// NewUpserter creates a new incremental upserter
func NewUpserter(db *gorm.DB, docs *documents.Service) *Upserter {
	return &Upserter{db: db, docs: docs}
}

// Load upserts the newline-JSON feed at path. Businesses whose last-updated
// timestamp precedes cutoff are skipped; a nil cutoff processes everything.
func (u *Upserter) Load(path string, cutoff *time.Time) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open feed: %w", err)
	}
	defer file.Close()

	nextUserID, err := u.nextUserID()
	if err != nil {
		return err
	}

	batch := newUpsertBatch(u.db)
	stamp := time.Now()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), maxFeedLineBytes)

	lineNo, skipped := 0, 0
	for scanner.Scan() {
		lineNo++
		fb, err := ParseFeedLine(scanner.Bytes())
		if err != nil {
			log.Printf("Skipping line %d: %v", lineNo, err)
			continue
		}

		location := NormalizeLocation(fb.Location)
		business, err := NormalizeBusiness(fb, location.Identifier)
		if err != nil {
			log.Printf("Skipping line %d: %v", lineNo, err)
			continue
		}

		// unchanged since the prior run, nothing to sync
		if cutoff != nil && business.LastUpdatedAt().Before(*cutoff) {
			skipped++
			continue
		}

		batch.locations = append(batch.locations, location)
		batch.businesses = append(batch.businesses, business)

		for _, fc := range fb.Categories {
			category := NormalizeCategory(fc)
			batch.categories = append(batch.categories, category)
			batch.links = append(batch.links, models.BusinessCategory{
				BusinessID: business.BusinessID,
				Alias:      category.Alias,
			})
		}

		for _, fr := range fb.Reviews {
			review, err := NormalizeReview(fr)
			if err != nil {
				log.Printf("Skipping review on line %d: %v", lineNo, err)
				continue
			}

			user := NormalizeUser(fr.User)
			user.ID = nextUserID
			nextUserID++
			batch.users = append(batch.users, user)

			review.BusinessID = business.BusinessID
			review.UserID = user.ID
			batch.reviews = append(batch.reviews, review)

			batch.assocs = append(batch.assocs, models.DocumentAssociation{
				AssocID: review.ReviewID,
				Type:    review.DocumentType(),
			})
			batch.documents = append(batch.documents, models.Document{
				ID:      review.ReviewID,
				AssocID: review.ReviewID,
				Created: stamp,
			})
		}

		if batch.size() >= uploadBatchSize {
			if err := batch.flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed reading feed: %w", err)
	}

	if err := batch.flush(); err != nil {
		return err
	}

	log.Printf("Incremental upsert completed: %d lines processed, %d unchanged businesses skipped",
		lineNo, skipped)
	return nil
}

// nextUserID continues the loader-assigned user id sequence
func (u *Upserter) nextUserID() (int64, error) {
	var maxID sql.NullInt64
	if err := u.db.Model(&models.YelpUser{}).Select("MAX(id)").Scan(&maxID).Error; err != nil {
		return 0, err
	}
	if !maxID.Valid {
		return 0, nil
	}
	return maxID.Int64 + 1, nil
}

// upsertBatch accumulates rows and writes them in one pass, match-or-create
// per entity. The batch is flushed, never discarded, when the size threshold
// is reached.
type upsertBatch struct {
	db *gorm.DB

	locations  []models.Location
	categories []models.YelpCategory
	users      []models.YelpUser
	businesses []models.YelpBusiness
	reviews    []models.YelpReview
	links      []models.BusinessCategory
	assocs     []models.DocumentAssociation
	documents  []models.Document
}

func newUpsertBatch(db *gorm.DB) *upsertBatch {
	return &upsertBatch{db: db}
}

func (b *upsertBatch) size() int {
	return len(b.locations) + len(b.categories) + len(b.users) +
		len(b.businesses) + len(b.reviews) + len(b.links)
}

// flush writes the accumulated rows in dependency order and resets the batch.
// Businesses and reviews take updated feed values on conflict; everything
// else, documents in particular, is create-if-missing so labels and
// predictions written since the row first appeared are never clobbered.
func (b *upsertBatch) flush() error {
	if b.size() == 0 && len(b.documents) == 0 {
		return nil
	}

	steps := []struct {
		name string
		run  func(tx *gorm.DB) error
	}{
		{"locations", func(tx *gorm.DB) error {
			return upsertIgnore(tx, b.locations)
		}},
		{"categories", func(tx *gorm.DB) error {
			return upsertIgnore(tx, b.categories)
		}},
		{"users", func(tx *gorm.DB) error {
			return upsertIgnore(tx, b.users)
		}},
		{"businesses", func(tx *gorm.DB) error {
			return upsertReplace(tx, b.businesses)
		}},
		{"reviews", func(tx *gorm.DB) error {
			return upsertReplace(tx, b.reviews)
		}},
		{"business categories", func(tx *gorm.DB) error {
			return upsertIgnore(tx, b.links)
		}},
		{"document associations", func(tx *gorm.DB) error {
			return upsertIgnore(tx, b.assocs)
		}},
		{"documents", func(tx *gorm.DB) error {
			return upsertIgnore(tx, b.documents)
		}},
	}

	err := b.db.Transaction(func(tx *gorm.DB) error {
		for _, step := range steps {
			if err := step.run(tx); err != nil {
				return fmt.Errorf("upsert of %s failed: %w", step.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	*b = upsertBatch{db: b.db}
	return nil
}

// upsertIgnore inserts rows, leaving existing ones untouched
func upsertIgnore[T any](db *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, uploadBatchSize).Error
}

// upsertReplace inserts rows, overwriting existing ones with feed values
func upsertReplace[T any](db *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(rows, uploadBatchSize).Error
}
