package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"tenderquote/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a new document row. The composite unique index on
// (content_hash, document_type) makes concurrent identical uploads collide;
// callers should treat gorm.ErrDuplicatedKey as "someone else won the race".
func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(id uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) GetByHashAndType(hash, docType string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("content_hash = ? AND document_type = ?", hash, docType).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document by hash failed: %w", err)
	}
	return &doc, nil
}

// ListByType returns documents of one category in insertion order.
func (r *DocumentRepository) ListByType(docType string) ([]model.Document, error) {
	var docs []model.Document
	if err := r.db.Where("document_type = ?", docType).Order("id ASC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

// ListTemplates returns the stored writing templates in insertion order.
func (r *DocumentRepository) ListTemplates() ([]model.Document, error) {
	var docs []model.Document
	if err := r.db.Where("document_type = ?", model.DocumentTypeTemplate).
		Order("id ASC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list templates failed: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) Search(term string) ([]model.Document, error) {
	pattern := "%" + term + "%"
	var docs []model.Document
	if err := r.db.Where("title LIKE ? OR reference LIKE ? OR extracted_text LIKE ?", pattern, pattern, pattern).
		Order("id ASC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("search documents failed: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) CountByType(docType string) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Document{}).Where("document_type = ?", docType).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count documents failed: %w", err)
	}
	return count, nil
}

// AttachExtractedText is the extraction worker's one-shot text write.
func (r *DocumentRepository) AttachExtractedText(id uint, text string) error {
	result := r.db.Model(&model.Document{}).Where("id = ?", id).Updates(map[string]interface{}{
		"extracted_text": text,
		"extract_error":  "",
		"status":         model.DocumentStatusCompleted,
	})
	if result.Error != nil {
		return fmt.Errorf("attach extracted text failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkExtractionError records an extraction failure without touching the
// stored bytes; the document stays retrievable but is not generation-ready.
func (r *DocumentRepository) MarkExtractionError(id uint, message string) error {
	result := r.db.Model(&model.Document{}).Where("id = ?", id).Updates(map[string]interface{}{
		"extract_error": message,
		"status":        model.DocumentStatusError,
	})
	if result.Error != nil {
		return fmt.Errorf("mark extraction error failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateTenderMetadata fills reference and title sniffed from extracted text.
func (r *DocumentRepository) UpdateTenderMetadata(id uint, reference, title string) error {
	updates := map[string]interface{}{}
	if reference != "" {
		updates["reference"] = reference
	}
	if title != "" {
		updates["title"] = title
	}
	if len(updates) == 0 {
		return nil
	}
	if err := r.db.Model(&model.Document{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update tender metadata failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Document{}, id).Error; err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}
