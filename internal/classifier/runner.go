package classifier

import (
	"fmt"
	"log"
	"time"

	"foodwatch/internal/documents"
	"foodwatch/internal/models"

	"gorm.io/gorm"
)

// defaultSinceDays is the recency window when none is given
const defaultSinceDays = 7

// Selection picks which documents a classify run scores.
//
// SinceDays restricts to documents created in the last N days (default 7).
// Unseen restricts to fields whose prediction timestamp is absent. All
// overrides both and processes every document.
type Selection struct {
	SinceDays int
	Unseen    bool
	All       bool
}

// Runner scores selected documents and writes predictions back through the
// documents service. Expert labels are never touched.
type Runner struct {
	db     *gorm.DB
	docs   *documents.Service
	models map[documents.Field]Model
}

// NewRunner creates a classify runner with one model per prediction field.
// Fields without a model are left unscored.
func NewRunner(db *gorm.DB, docs *documents.Service, byField map[documents.Field]Model) *Runner {
	return &Runner{db: db, docs: docs, models: byField}
}

// Classify scores every document matched by the selection
func (r *Runner) Classify(sel Selection, verbose bool) error {
	if len(r.models) == 0 {
		return fmt.Errorf("classifier: no models configured")
	}

	query := r.db.Model(&models.Document{})
	if !sel.All {
		days := sel.SinceDays
		if days <= 0 {
			days = defaultSinceDays
		}
		query = query.Where("created >= ?", time.Now().AddDate(0, 0, -days))
	}

	var docs []models.Document
	if err := query.Find(&docs).Error; err != nil {
		return fmt.Errorf("failed to select documents: %w", err)
	}
	log.Printf("Classifying %d candidate documents", len(docs))

	scored := 0
	for i := range docs {
		doc := &docs[i]

		owner, err := r.docs.Source(doc)
		if err != nil {
			log.Printf("Skipping document %s: %v", doc.ID, err)
			continue
		}
		text := owner.DocumentText()

		wrote := false
		for field, model := range r.models {
			if sel.Unseen && !sel.All && predictionTime(doc, field) != nil {
				continue
			}

			score, err := model.Predict(text)
			if err != nil {
				log.Printf("Prediction failed for document %s field %s: %v", doc.ID, field, err)
				continue
			}
			if err := r.docs.SetPrediction(doc, field, score); err != nil {
				return err
			}
			wrote = true

			if verbose {
				log.Printf("Document %s: %s_pred = %.4f", doc.ID, field, score)
			}
		}
		if wrote {
			scored++
		}
	}

	log.Printf("Classification complete: %d documents scored", scored)
	return nil
}

func predictionTime(doc *models.Document, field documents.Field) *time.Time {
	switch field {
	case documents.FalsePositive:
		return doc.FPPredTime
	case documents.MultipleIllness:
		return doc.MultPredTime
	case documents.Incident:
		return doc.IncPredTime
	}
	return nil
}
