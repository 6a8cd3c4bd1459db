// Package documents implements the polymorphic association layer that gives
// every concrete document type (Yelp reviews, tweets) a shared Document record
// carrying expert labels and classifier predictions.
package documents

import (
	"errors"
	"fmt"
	"time"

	"foodwatch/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrTypeConflict means an association already exists for an id under a
	// different discriminator, i.e. two document types collide on a natural key.
	ErrTypeConflict = errors.New("documents: id already associated under a different type")

	// ErrMultipleOwners means more than one concrete row matched an
	// association, which violates the unique-key invariant.
	ErrMultipleOwners = errors.New("documents: multiple concrete rows match association")

	// ErrUnknownType means an association carries a discriminator no concrete
	// model registers.
	ErrUnknownType = errors.New("documents: unknown association type")
)

// Field selects one of the three label/prediction slots on a Document.
type Field string

const (
	FalsePositive   Field = "fp"
	MultipleIllness Field = "mult"
	Incident        Field = "inc"
)

// Documentable is implemented by any concrete model that owns a Document.
// DocumentID must be the model's natural primary key and globally unique
// across all documentable types.
type Documentable interface {
	DocumentID() string
	DocumentType() string
	DocumentText() string
}

// Service performs all reads and writes of documents and their associations.
// All operations are transactional; Resolve's lazy-create path is the only
// implicit write.
type Service struct {
	db *gorm.DB
}

// NewService creates a new documents service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Attach creates the association and Document for an owner. It is idempotent
// for an owner already attached under the same type and fails with
// ErrTypeConflict when the id is taken by a different type.
func (s *Service) Attach(owner Documentable) (*models.Document, error) {
	var doc *models.Document
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		doc, err = attachTx(tx, owner)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func attachTx(tx *gorm.DB, owner Documentable) (*models.Document, error) {
	id := owner.DocumentID()

	var assoc models.DocumentAssociation
	err := tx.Where("assoc_id = ?", id).First(&assoc).Error
	switch {
	case err == nil:
		if assoc.Type != owner.DocumentType() {
			return nil, fmt.Errorf("%w: id %q is %q, requested %q",
				ErrTypeConflict, id, assoc.Type, owner.DocumentType())
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		assoc = models.DocumentAssociation{AssocID: id, Type: owner.DocumentType()}
		if err := tx.Create(&assoc).Error; err != nil {
			return nil, fmt.Errorf("failed to create association: %w", err)
		}
	default:
		return nil, err
	}

	var doc models.Document
	err = tx.Where("id = ?", id).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		doc = models.Document{ID: id, AssocID: id, Created: time.Now()}
		if err := tx.Create(&doc).Error; err != nil {
			return nil, fmt.Errorf("failed to create document: %w", err)
		}
		return &doc, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Resolve returns the Document for an owner, creating the association and
// Document on first access. Callers should expect a write the first time a
// given owner is resolved.
func (s *Service) Resolve(owner Documentable) (*models.Document, error) {
	var doc models.Document
	err := s.db.Where("id = ?", owner.DocumentID()).First(&doc).Error
	if err == nil {
		return &doc, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.Attach(owner)
}

// Source resolves a Document back to its concrete owner via the association's
// discriminator. Exactly one concrete row must match; zero rows is
// gorm.ErrRecordNotFound and more than one is ErrMultipleOwners.
func (s *Service) Source(doc *models.Document) (Documentable, error) {
	var assoc models.DocumentAssociation
	if err := s.db.Where("assoc_id = ?", doc.AssocID).First(&assoc).Error; err != nil {
		return nil, fmt.Errorf("failed to load association for document %s: %w", doc.ID, err)
	}

	switch assoc.Type {
	case (&models.YelpReview{}).DocumentType():
		var rows []models.YelpReview
		if err := s.db.Where("review_id = ?", assoc.AssocID).Limit(2).Find(&rows).Error; err != nil {
			return nil, err
		}
		return singleOwner(len(rows), assoc.AssocID, func(i int) Documentable { return &rows[i] })
	case (&models.Tweet{}).DocumentType():
		var rows []models.Tweet
		if err := s.db.Where("tweet_id = ?", assoc.AssocID).Limit(2).Find(&rows).Error; err != nil {
			return nil, err
		}
		return singleOwner(len(rows), assoc.AssocID, func(i int) Documentable { return &rows[i] })
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, assoc.Type)
	}
}

func singleOwner(n int, id string, at func(int) Documentable) (Documentable, error) {
	switch n {
	case 0:
		return nil, fmt.Errorf("no concrete row for association %s: %w", id, gorm.ErrRecordNotFound)
	case 1:
		return at(0), nil
	default:
		return nil, fmt.Errorf("%w: id %s", ErrMultipleOwners, id)
	}
}

// SetLabel writes an expert label and its paired timestamp in one update.
func (s *Service) SetLabel(doc *models.Document, field Field, value bool) error {
	now := time.Now()
	updates := map[string]interface{}{
		string(field) + "_label":      value,
		string(field) + "_label_time": now,
	}
	if err := s.db.Model(&models.Document{}).Where("id = ?", doc.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to set %s_label on %s: %w", field, doc.ID, err)
	}

	switch field {
	case FalsePositive:
		doc.FPLabel, doc.FPLabelTime = &value, &now
	case MultipleIllness:
		doc.MultLabel, doc.MultLabelTime = &value, &now
	case Incident:
		doc.IncLabel, doc.IncLabelTime = &value, &now
	}
	return nil
}

// SetPrediction writes a classifier score and its paired timestamp in one
// update. Labels are never touched.
func (s *Service) SetPrediction(doc *models.Document, field Field, score float64) error {
	now := time.Now()
	updates := map[string]interface{}{
		string(field) + "_pred":      score,
		string(field) + "_pred_time": now,
	}
	if err := s.db.Model(&models.Document{}).Where("id = ?", doc.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to set %s_pred on %s: %w", field, doc.ID, err)
	}

	switch field {
	case FalsePositive:
		doc.FPPred, doc.FPPredTime = &score, &now
	case MultipleIllness:
		doc.MultPred, doc.MultPredTime = &score, &now
	case Incident:
		doc.IncPred, doc.IncPredTime = &score, &now
	}
	return nil
}
