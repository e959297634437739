package repository

import (
	"fmt"

	"gorm.io/gorm"

	"tenderquote/internal/model"
)

type GenerationRepository struct {
	db *gorm.DB
}

func NewGenerationRepository(db *gorm.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

func (r *GenerationRepository) Create(job *model.GenerationJob) error {
	if err := r.db.Create(job).Error; err != nil {
		return fmt.Errorf("create generation job failed: %w", err)
	}
	return nil
}

func (r *GenerationRepository) SetStreaming(id uint) error {
	if err := r.db.Model(&model.GenerationJob{}).Where("id = ?", id).
		Update("status", model.GenerationStatusStreaming).Error; err != nil {
		return fmt.Errorf("set job streaming failed: %w", err)
	}
	return nil
}

// Complete freezes the job in its terminal success state.
func (r *GenerationRepository) Complete(id uint, accumulatedText string, resultDocumentID uint, elapsedSeconds float64) error {
	if err := r.db.Model(&model.GenerationJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":             model.GenerationStatusCompleted,
		"accumulated_text":   accumulatedText,
		"result_document_id": resultDocumentID,
		"elapsed_seconds":    elapsedSeconds,
	}).Error; err != nil {
		return fmt.Errorf("complete generation job failed: %w", err)
	}
	return nil
}

// Fail freezes the job in its terminal failure state. The partial text is
// deliberately not stored; only the artifact of a completed run survives.
func (r *GenerationRepository) Fail(id uint, message string, elapsedSeconds float64) error {
	if err := r.db.Model(&model.GenerationJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":          model.GenerationStatusFailed,
		"error_message":   message,
		"elapsed_seconds": elapsedSeconds,
	}).Error; err != nil {
		return fmt.Errorf("fail generation job failed: %w", err)
	}
	return nil
}

// List returns jobs newest first; sourceID 0 means all jobs.
func (r *GenerationRepository) List(sourceID uint) ([]model.GenerationJob, error) {
	query := r.db.Model(&model.GenerationJob{})
	if sourceID != 0 {
		query = query.Where("tender_document_id = ?", sourceID)
	}
	var jobs []model.GenerationJob
	if err := query.Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list generation jobs failed: %w", err)
	}
	return jobs, nil
}
