package model

import "time"

// Document categories. Tenders are the inputs, templates shape the writing
// style, generated documents are the produced offers.
const (
	DocumentTypeTender    = "appel_offre"
	DocumentTypeTemplate  = "offre_prix"
	DocumentTypeGenerated = "generated"
)

// Document statuses. Extraction runs asynchronously after upload, so a
// document stays "uploaded" until the worker attaches its text.
const (
	DocumentStatusUploaded  = "uploaded"
	DocumentStatusCompleted = "completed"
	DocumentStatusError     = "error"
)

type Document struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Filename         string    `gorm:"size:255;not null" json:"filename"`
	OriginalFilename string    `gorm:"size:255;not null" json:"original_filename"`
	FilePath         string    `gorm:"size:500;not null" json:"-"`
	FileType         string    `gorm:"size:10;not null" json:"file_type"`
	DocumentType     string    `gorm:"size:32;not null;index;uniqueIndex:idx_hash_type,priority:2" json:"document_type"`
	Reference        string    `gorm:"size:100;index" json:"reference"`
	Title            string    `gorm:"size:500" json:"title"`
	Description      string    `gorm:"type:text" json:"description,omitempty"`
	ExtractedText    *string   `gorm:"type:longtext" json:"-"`
	ExtractError     string    `gorm:"size:500" json:"extract_error,omitempty"`
	Status           string    `gorm:"size:16;not null" json:"status"`
	ContentHash      string    `gorm:"size:64;not null;uniqueIndex:idx_hash_type,priority:1" json:"content_hash"`
	ParentID         uint      `json:"parent_id,omitempty"`
	IsTemplate       bool      `json:"is_template"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Text returns the extracted text, empty when extraction has not completed.
func (d *Document) Text() string {
	if d.ExtractedText == nil {
		return ""
	}
	return *d.ExtractedText
}

// Ready reports whether the document can feed a generation.
func (d *Document) Ready() bool {
	return d.Status == DocumentStatusCompleted && d.ExtractedText != nil && *d.ExtractedText != ""
}
