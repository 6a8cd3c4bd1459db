package yelp

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"foodwatch/internal/documents"
	"foodwatch/internal/models"

	"gorm.io/gorm"
)

// uploadBatchSize bounds each insert/upsert transaction
const uploadBatchSize = 500

// maxFeedLineBytes bounds a single feed line; some businesses carry hundreds
// of reviews on one line.
const maxFeedLineBytes = 16 * 1024 * 1024

// BulkLoader performs the one-time full ingestion of an entire feed. It
// streams the feed once, deduplicates locations and categories in memory
// across the whole file, writes the CSV exports, then inserts entities in
// dependency order so no relationship ever references a missing row.
type BulkLoader struct {
	db     *gorm.DB
	docs   *documents.Service
	csvDir string
}

// NewBulkLoader creates a new bulk loader writing CSV exports under csvDir
func NewBulkLoader(db *gorm.DB, docs *documents.Service, csvDir string) *BulkLoader {
	return &BulkLoader{db: db, docs: docs, csvDir: csvDir}
}

// Load ingests the newline-JSON feed at path into an empty store
func (l *BulkLoader) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open feed: %w", err)
	}
	defer file.Close()

	tables, err := newCSVTables(l.csvDir)
	if err != nil {
		return err
	}
	defer tables.Close()

	stamp := time.Now()

	// locations and categories repeat across businesses; dedupe across the
	// entire feed by derived key
	locations := map[string]models.Location{}
	categories := map[string]models.YelpCategory{}

	var (
		businesses []models.YelpBusiness
		reviews    []models.YelpReview
		users      []models.YelpUser
		links      []models.BusinessCategory
		assocs     []models.DocumentAssociation
		docs       []models.Document
	)
	nextUserID := int64(0)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), maxFeedLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fb, err := ParseFeedLine(scanner.Bytes())
		if err != nil {
			log.Printf("Skipping line %d: %v", lineNo, err)
			continue
		}

		location := NormalizeLocation(fb.Location)
		locations[location.Identifier] = location

		business, err := NormalizeBusiness(fb, location.Identifier)
		if err != nil {
			log.Printf("Skipping line %d: %v", lineNo, err)
			continue
		}
		businesses = append(businesses, business)
		if err := tables.businesses.Write(businessRow(business, stamp)); err != nil {
			return err
		}

		for _, fc := range fb.Categories {
			category := NormalizeCategory(fc)
			categories[category.Alias] = category
			link := models.BusinessCategory{BusinessID: business.BusinessID, Alias: category.Alias}
			links = append(links, link)
			if err := tables.categoryBusinesses.Write(categoryBusinessRow(link)); err != nil {
				return err
			}
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
			users = append(users, user)
			if err := tables.users.Write(userRow(user, stamp)); err != nil {
				return err
			}

			review.BusinessID = business.BusinessID
			review.UserID = user.ID
			reviews = append(reviews, review)
			if err := tables.reviews.Write(reviewRow(review, stamp)); err != nil {
				return err
			}

			// every review carries a generic Document from the moment it is
			// ingested
			assocs = append(assocs, models.DocumentAssociation{
				AssocID: review.ReviewID,
				Type:    review.DocumentType(),
			})
			docs = append(docs, models.Document{
				ID:      review.ReviewID,
				AssocID: review.ReviewID,
				Created: stamp,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed reading feed: %w", err)
	}

	for _, location := range locations {
		if err := tables.locations.Write(locationRow(location, stamp)); err != nil {
			return err
		}
	}
	for _, category := range categories {
		if err := tables.categories.Write(categoryRow(category, stamp)); err != nil {
			return err
		}
	}
	if err := tables.Close(); err != nil {
		return err
	}

	log.Printf("Feed parsed: %d businesses, %d reviews, %d locations, %d categories",
		len(businesses), len(reviews), len(locations), len(categories))

	if err := l.insertAll(locations, categories, users, businesses, reviews, links, assocs, docs); err != nil {
		return err
	}
	if err := l.createIndexes(); err != nil {
		return err
	}

	log.Println("Bulk load completed")
	return nil
}

// insertAll writes all entities in dependency order: every referenced row
// exists before anything that points at it.
func (l *BulkLoader) insertAll(
	locations map[string]models.Location,
	categories map[string]models.YelpCategory,
	users []models.YelpUser,
	businesses []models.YelpBusiness,
	reviews []models.YelpReview,
	links []models.BusinessCategory,
	assocs []models.DocumentAssociation,
	docs []models.Document,
) error {
	locationRows := make([]models.Location, 0, len(locations))
	for _, location := range locations {
		locationRows = append(locationRows, location)
	}
	categoryRows := make([]models.YelpCategory, 0, len(categories))
	for _, category := range categories {
		categoryRows = append(categoryRows, category)
	}

	steps := []struct {
		name  string
		batch func() error
	}{
		{"locations", func() error { return createInBatches(l.db, locationRows) }},
		{"categories", func() error { return createInBatches(l.db, categoryRows) }},
		{"users", func() error { return createInBatches(l.db, users) }},
		{"businesses", func() error { return createInBatches(l.db, businesses) }},
		{"reviews", func() error { return createInBatches(l.db, reviews) }},
		{"business categories", func() error { return createInBatches(l.db, links) }},
		{"document associations", func() error { return createInBatches(l.db, assocs) }},
		{"documents", func() error { return createInBatches(l.db, docs) }},
	}
	for _, step := range steps {
		if err := step.batch(); err != nil {
			return fmt.Errorf("bulk insert of %s failed: %w", step.name, err)
		}
	}
	return nil
}

func createInBatches[T any](db *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return db.CreateInBatches(rows, uploadBatchSize).Error
}

// createIndexes adds the lookup indexes the upsert and classifier paths rely
// on. Natural and derived keys are already indexed as primary keys.
func (l *BulkLoader) createIndexes() error {
	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_yelp_businesses_last_updated ON yelp_businesses (last_updated)",
		"CREATE INDEX IF NOT EXISTS idx_yelp_reviews_authored_date ON yelp_reviews (authored_date)",
		"CREATE INDEX IF NOT EXISTS idx_documents_created ON documents (created)",
	}
	for _, stmt := range statements {
		if err := l.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// csvTable writes one entity's export file, emitting the fixed header row
// before the first record.
type csvTable struct {
	file    *os.File
	writer  *csv.Writer
	columns []string
	started bool
}

func newCSVTable(dir, name string, columns []string) (*csvTable, error) {
	file, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", name, err)
	}
	return &csvTable{file: file, writer: csv.NewWriter(file), columns: columns}, nil
}

// Write writes one row, preceded by the header when this is the first record
func (t *csvTable) Write(row []string) error {
	if !t.started {
		if err := t.writer.Write(t.columns); err != nil {
			return err
		}
		t.started = true
	}
	return t.writer.Write(row)
}

// Close flushes and closes the underlying file. Safe to call twice.
func (t *csvTable) Close() error {
	if t.file == nil {
		return nil
	}
	t.writer.Flush()
	err := t.writer.Error()
	if cerr := t.file.Close(); err == nil {
		err = cerr
	}
	t.file = nil
	return err
}

// csvTables bundles the six export files of a full bulk load
type csvTables struct {
	locations          *csvTable
	businesses         *csvTable
	categories         *csvTable
	categoryBusinesses *csvTable
	reviews            *csvTable
	users              *csvTable
}

func newCSVTables(dir string) (*csvTables, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	tables := &csvTables{}
	specs := []struct {
		dest    **csvTable
		name    string
		columns []string
	}{
		{&tables.locations, "locations.csv", locationColumns},
		{&tables.businesses, "businesses.csv", businessColumns},
		{&tables.categories, "categories.csv", categoryColumns},
		{&tables.categoryBusinesses, "categories_businesses.csv", categoryBusinessColumns},
		{&tables.reviews, "reviews.csv", reviewColumns},
		{&tables.users, "users.csv", userColumns},
	}
	for _, spec := range specs {
		table, err := newCSVTable(dir, spec.name, spec.columns)
		if err != nil {
			tables.Close()
			return nil, err
		}
		*spec.dest = table
	}
	return tables, nil
}

// Close closes every open export file
func (t *csvTables) Close() error {
	var err error
	for _, table := range []*csvTable{
		t.locations, t.businesses, t.categories, t.categoryBusinesses, t.reviews, t.users,
	} {
		if table == nil {
			continue
		}
		if cerr := table.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
