package yelp

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"foodwatch/internal/documents"
	"foodwatch/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrFeedUnavailable means no feed file could be retrieved for any of the
	// past 30 days. Fatal for the run; the history stays at its current phase.
	ErrFeedUnavailable = errors.New("yelp: no feed available for the past 30 days")

	// ErrNotDownloaded means unzip was attempted before a successful download
	ErrNotDownloaded = errors.New("yelp: feed not downloaded")

	// ErrNotUnzipped means load was attempted before a successful unzip
	ErrNotUnzipped = errors.New("yelp: feed not unzipped")
)

// maxLookbackDays is how far into the past the downloader will probe for a
// feed file. The provider publishes with lag and occasional gaps.
const maxLookbackDays = 30

// Config holds feed sync configuration
type Config struct {
	BaseURL  string // feed host, e.g. https://feeds.example.com/nychealth
	DataDir  string // where the gzip and unzipped feed files live
	CSVDir   string // where the bulk-load CSV exports are written
	FeedFile string // local name for the downloaded archive
}

// LoadConfig loads feed sync configuration from environment variables
func LoadConfig() Config {
	return Config{
		BaseURL:  getEnv("FEED_BASE_URL", "https://yelp-syndication.s3.amazonaws.com/nychealth"),
		DataDir:  getEnv("FEED_DATA_DIR", "data"),
		CSVDir:   getEnv("FEED_CSV_DIR", "data/csv"),
		FeedFile: getEnv("FEED_FILE", "yelp_businesses.json.gz"),
	}
}

// GzipPath is where the downloaded archive is written
func (c Config) GzipPath() string {
	return filepath.Join(c.DataDir, c.FeedFile)
}

// RawPath is where the decompressed newline-JSON feed is written
func (c Config) RawPath() string {
	return strings.TrimSuffix(c.GzipPath(), ".gz")
}

// Syncer drives the download → unzip → load pipeline against the per-day
// DownloadHistory record. Transitions are idempotent and each one persists the
// record immediately, so a crashed run resumes at the first incomplete phase.
//
// The history record is not a distributed lock: at most one sync process may
// run at a time.
type Syncer struct {
	db     *gorm.DB
	docs   *documents.Service
	client *http.Client
	cfg    Config
}

// NewSyncer creates a new feed syncer
func NewSyncer(db *gorm.DB, cfg Config) *Syncer {
	return &Syncer{
		db:   db,
		docs: documents.NewService(db),
		client: &http.Client{
			Timeout: 15 * time.Minute, // covers streaming the full archive
		},
		cfg: cfg,
	}
}

// Run executes the full sync pipeline for today
func (s *Syncer) Run() error {
	history, err := s.EnsureToday()
	if err != nil {
		return fmt.Errorf("failed to prepare download history: %w", err)
	}

	if err := s.Download(history); err != nil {
		return err
	}
	if err := s.Unzip(history); err != nil {
		return err
	}
	return s.Load(history)
}

// EnsureToday returns today's download history, creating a fresh record when
// none exists or the latest one belongs to a prior day.
func (s *Syncer) EnsureToday() (*models.DownloadHistory, error) {
	var history models.DownloadHistory
	err := s.db.Order("created_on DESC").First(&history).Error
	if err == nil && history.IsForToday() {
		return &history, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	log.Println("Creating new download history for today")
	fresh := models.NewDownloadHistory()
	if err := s.db.Create(fresh).Error; err != nil {
		return nil, err
	}
	return fresh, nil
}

// Download retrieves the most recent feed archive, probing back day by day up
// to 30 days. No-op when today's history is already marked downloaded.
func (s *Syncer) Download(history *models.DownloadHistory) error {
	if history.Downloaded {
		log.Println("Already downloaded the feed for today, skipping")
		return nil
	}

	for delta := 0; delta <= maxLookbackDays; delta++ {
		day := time.Now().AddDate(0, 0, -delta)
		filename := day.Format("20060102") + "_businesses.json.gz"
		feedURL := strings.TrimRight(s.cfg.BaseURL, "/") + "/" + filename

		log.Printf("Attempting to get Yelp businesses from %s...", day.Format("01/02/2006"))
		if err := s.downloadToFile(feedURL, s.cfg.GzipPath()); err != nil {
			log.Printf("No feed for %s: %v", day.Format("01/02/2006"), err)
			continue
		}

		log.Println("Latest feed successfully downloaded")
		history.Downloaded = true
		return s.db.Save(history).Error
	}

	return ErrFeedUnavailable
}

func (s *Syncer) downloadToFile(feedURL, dest string) error {
	resp, err := s.client.Get(feedURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	// stream to disk to keep a flat memory footprint
	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("failed writing %s: %w", dest, err)
	}
	log.Printf("Feed size: %d MB", written/(1024*1024))
	return out.Sync()
}

// Unzip decompresses the downloaded archive. Requires a completed download;
// no-op when today's history is already marked unzipped.
func (s *Syncer) Unzip(history *models.DownloadHistory) error {
	if !history.Downloaded {
		return ErrNotDownloaded
	}
	if history.Unzipped {
		log.Println("Today's feed already unzipped, skipping")
		return nil
	}

	in, err := os.Open(s.cfg.GzipPath())
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	defer gz.Close()

	out, err := os.Create(s.cfg.RawPath())
	if err != nil {
		return err
	}
	defer out.Close()

	log.Printf("Extracting %s", s.cfg.GzipPath())
	if _, err := io.Copy(out, gz); err != nil {
		return fmt.Errorf("failed extracting feed: %w", err)
	}
	if err := out.Sync(); err != nil {
		return err
	}
	log.Printf("Done extracting %s", s.cfg.RawPath())

	history.Unzipped = true
	return s.db.Save(history).Error
}

// Load syncs the unzipped feed into the store. An empty store takes the full
// bulk path; otherwise the incremental upsert path runs with the prior
// successful run's date as its cutoff. Successful is flipped only after the
// chosen path completes cleanly, so a failed load is retried on the next run
// without repeating download or unzip.
func (s *Syncer) Load(history *models.DownloadHistory) error {
	if !history.Unzipped {
		return ErrNotUnzipped
	}
	if history.Successful {
		log.Println("Today's feed already loaded, skipping")
		return nil
	}

	empty, err := s.storeIsEmpty()
	if err != nil {
		return err
	}

	if empty {
		log.Println("Empty store, running full bulk load")
		err = NewBulkLoader(s.db, s.docs, s.cfg.CSVDir).Load(s.cfg.RawPath())
	} else {
		cutoff, cerr := s.lastSuccessfulDate(history)
		if cerr != nil {
			return cerr
		}
		log.Println("Store has prior data, running incremental upsert")
		err = NewUpserter(s.db, s.docs).Load(s.cfg.RawPath(), cutoff)
	}
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	history.Successful = true
	return s.db.Save(history).Error
}

// storeIsEmpty reports whether any Yelp entities exist yet
func (s *Syncer) storeIsEmpty() (bool, error) {
	for _, model := range []interface{}{
		&models.YelpBusiness{}, &models.YelpReview{}, &models.YelpUser{}, &models.YelpCategory{},
	} {
		var n int64
		if err := s.db.Model(model).Count(&n).Error; err != nil {
			return false, err
		}
		if n > 0 {
			return false, nil
		}
	}
	return true, nil
}

// lastSuccessfulDate returns the date of the most recent completed load before
// the given history record, or nil when there is none.
func (s *Syncer) lastSuccessfulDate(current *models.DownloadHistory) (*time.Time, error) {
	var prior models.DownloadHistory
	err := s.db.Where("successful = ? AND id <> ?", true, current.ID).
		Order("created_on DESC").First(&prior).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prior.CreatedOn, nil
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
