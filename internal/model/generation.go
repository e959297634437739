package model

import "time"

// GenerationJob statuses. Completed and Failed are terminal; a failed job is
// never resumed, a new request creates a fresh job.
const (
	GenerationStatusPending   = "pending"
	GenerationStatusStreaming = "streaming"
	GenerationStatusCompleted = "completed"
	GenerationStatusFailed    = "failed"
)

// GenerationJob is one orchestrator run and doubles as the generation
// history record. ResultDocumentID is set if and only if the job completed.
type GenerationJob struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	TenderDocumentID  uint      `gorm:"not null;index" json:"tender_document_id"`
	TemplateIDs       string    `gorm:"size:500" json:"template_ids"` // JSON array, selection order
	AdditionalContext string    `gorm:"type:text" json:"additional_context,omitempty"`
	Status            string    `gorm:"size:16;not null;index" json:"status"`
	AccumulatedText   string    `gorm:"type:longtext" json:"-"`
	ResultDocumentID  uint      `json:"result_document_id,omitempty"`
	PromptExcerpt     string    `gorm:"type:text" json:"-"`
	ModelUsed         string    `gorm:"size:100" json:"model_used"`
	ErrorMessage      string    `gorm:"size:500" json:"error_message,omitempty"`
	ElapsedSeconds    float64   `json:"elapsed_seconds"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
