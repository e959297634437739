package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"tenderquote/internal/extract"
	"tenderquote/internal/model"
	"tenderquote/internal/platform/rabbitmq"
)

type DocumentService struct {
	docRepo     DocumentRepo
	blobs       BlobStore
	publisher   TaskPublisher
	textCache   TextCache
	maxFileSize int64
}

type UploadInput struct {
	Content          []byte
	OriginalFilename string
	DocumentType     string
	Reference        string
	Title            string
	Description      string
	IsTemplate       bool
}

type StoreGeneratedInput struct {
	Content  []byte
	Filename string
	Text     string
	Tender   *model.Document
}

type Stats struct {
	Tenders   int64 `json:"tenders"`
	Templates int64 `json:"templates"`
	Generated int64 `json:"generated"`
	Total     int64 `json:"total"`
}

func NewDocumentService(
	docRepo DocumentRepo,
	blobs BlobStore,
	publisher TaskPublisher,
	textCache TextCache,
	maxFileSize int64,
) *DocumentService {
	return &DocumentService{
		docRepo:     docRepo,
		blobs:       blobs,
		publisher:   publisher,
		textCache:   textCache,
		maxFileSize: maxFileSize,
	}
}

// MaxFileSize returns the configured upload limit in bytes, 0 when unlimited.
func (s *DocumentService) MaxFileSize() int64 {
	return s.maxFileSize
}

// Upload stores a tender or template. Identical bytes under the same
// category return the already-stored document; the upload never fails on an
// extraction problem, only on invalid input or a storage write error.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*model.Document, error) {
	if len(input.Content) == 0 || strings.TrimSpace(input.OriginalFilename) == "" {
		return nil, ErrInvalidInput
	}
	if input.DocumentType != model.DocumentTypeTender && input.DocumentType != model.DocumentTypeTemplate {
		return nil, fmt.Errorf("%w: unknown document type %q", ErrInvalidInput, input.DocumentType)
	}
	if s.maxFileSize > 0 && int64(len(input.Content)) > s.maxFileSize {
		return nil, ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(input.OriginalFilename))
	if !extract.Supported(input.DocumentType, ext) {
		return nil, fmt.Errorf("%w: %s (accepted: %s)",
			ErrUnsupportedFormat, ext, strings.Join(extract.AllowedExtensions(input.DocumentType), ", "))
	}

	hash := contentHash(input.Content)
	if existing, err := s.docRepo.GetByHashAndType(hash, input.DocumentType); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	filename, path, err := s.blobs.Save(input.DocumentType, ext, input.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	doc := &model.Document{
		Filename:         filename,
		OriginalFilename: input.OriginalFilename,
		FilePath:         path,
		FileType:         strings.TrimPrefix(ext, "."),
		DocumentType:     input.DocumentType,
		Reference:        defaultReference(input.Reference),
		Title:            defaultTitle(input.Title, input.OriginalFilename),
		Description:      input.Description,
		Status:           model.DocumentStatusUploaded,
		ContentHash:      hash,
		IsTemplate:       input.IsTemplate && input.DocumentType == model.DocumentTypeTemplate,
	}

	if err := s.docRepo.Create(doc); err != nil {
		// Lost the race against a concurrent identical upload; hand back
		// the winner's row and drop our duplicate bytes.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			_ = s.blobs.Remove(path)
			winner, getErr := s.docRepo.GetByHashAndType(hash, input.DocumentType)
			if getErr != nil {
				return nil, getErr
			}
			if winner == nil {
				return nil, fmt.Errorf("%w: duplicate document disappeared", ErrStorage)
			}
			return winner, nil
		}
		_ = s.blobs.Remove(path)
		return nil, err
	}

	if err := s.publisher.Publish(ctx, rabbitmq.ExtractTask{
		DocumentID:   doc.ID,
		FilePath:     doc.FilePath,
		DocumentType: doc.DocumentType,
	}); err != nil {
		// The document stays stored; without text it is simply not
		// generation-ready yet.
		log.Printf("enqueue extraction for document %d failed: %v", doc.ID, err)
	}

	return doc, nil
}

// StoreGenerated persists a finished offer artifact. The generated text is
// already known, so no extraction round-trip is needed.
func (s *DocumentService) StoreGenerated(ctx context.Context, input StoreGeneratedInput) (*model.Document, error) {
	hash := contentHash(input.Content)
	if existing, err := s.docRepo.GetByHashAndType(hash, model.DocumentTypeGenerated); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	filename, path, err := s.blobs.Save(model.DocumentTypeGenerated, filepath.Ext(input.Filename), input.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	text := input.Text
	doc := &model.Document{
		Filename:         filename,
		OriginalFilename: input.Filename,
		FilePath:         path,
		FileType:         strings.TrimPrefix(strings.ToLower(filepath.Ext(input.Filename)), "."),
		DocumentType:     model.DocumentTypeGenerated,
		Reference:        "OFF-" + input.Tender.Reference,
		Title:            "Offre générée pour " + input.Tender.Reference,
		Description:      fmt.Sprintf("Offre automatiquement générée à partir de l'appel d'offre %s", input.Tender.Reference),
		ExtractedText:    &text,
		Status:           model.DocumentStatusCompleted,
		ContentHash:      hash,
		ParentID:         input.Tender.ID,
	}

	if err := s.docRepo.Create(doc); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			_ = s.blobs.Remove(path)
			winner, getErr := s.docRepo.GetByHashAndType(hash, model.DocumentTypeGenerated)
			if getErr != nil {
				return nil, getErr
			}
			if winner != nil {
				return winner, nil
			}
		}
		_ = s.blobs.Remove(path)
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) Get(id uint) (*model.Document, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	doc, err := s.docRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

// Text resolves a document's extracted text, through the cache when one is
// wired. Returns ErrPrecondition while extraction has not completed.
func (s *DocumentService) Text(ctx context.Context, doc *model.Document) (string, error) {
	if s.textCache != nil {
		if cached, hit, err := s.textCache.GetText(ctx, doc.ID); err == nil && hit {
			return cached, nil
		}
	}
	if !doc.Ready() {
		return "", fmt.Errorf("%w: document %d", ErrPrecondition, doc.ID)
	}
	text := doc.Text()
	if s.textCache != nil {
		_ = s.textCache.SetText(ctx, doc.ID, text)
	}
	return text, nil
}

func (s *DocumentService) List(docType string) ([]model.Document, error) {
	switch docType {
	case model.DocumentTypeTender, model.DocumentTypeTemplate, model.DocumentTypeGenerated:
		return s.docRepo.ListByType(docType)
	default:
		return nil, fmt.Errorf("%w: unknown document type %q", ErrInvalidInput, docType)
	}
}

func (s *DocumentService) ListAll() ([]model.Document, error) {
	var all []model.Document
	for _, docType := range []string{model.DocumentTypeTender, model.DocumentTypeTemplate, model.DocumentTypeGenerated} {
		docs, err := s.docRepo.ListByType(docType)
		if err != nil {
			return nil, err
		}
		all = append(all, docs...)
	}
	return all, nil
}

func (s *DocumentService) Search(term string) ([]model.Document, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrInvalidInput
	}
	return s.docRepo.Search(term)
}

func (s *DocumentService) Stats() (*Stats, error) {
	tenders, err := s.docRepo.CountByType(model.DocumentTypeTender)
	if err != nil {
		return nil, err
	}
	templates, err := s.docRepo.CountByType(model.DocumentTypeTemplate)
	if err != nil {
		return nil, err
	}
	generated, err := s.docRepo.CountByType(model.DocumentTypeGenerated)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Tenders:   tenders,
		Templates: templates,
		Generated: generated,
		Total:     tenders + templates + generated,
	}, nil
}

// ResolveDownload returns the stored path and download name for a generated
// offer. Only generated documents are downloadable.
func (s *DocumentService) ResolveDownload(id uint) (path, downloadName string, err error) {
	doc, err := s.Get(id)
	if err != nil {
		return "", "", err
	}
	if doc.DocumentType != model.DocumentTypeGenerated {
		return "", "", ErrNotFound
	}
	return doc.FilePath, doc.OriginalFilename, nil
}

// Delete removes a document row and its stored bytes. Administrative only;
// nothing in the generation pipeline deletes documents.
func (s *DocumentService) Delete(ctx context.Context, id uint) error {
	doc, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.blobs.Remove(doc.FilePath); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := s.docRepo.Delete(doc.ID); err != nil {
		return err
	}
	if s.textCache != nil {
		_ = s.textCache.DeleteText(ctx, doc.ID)
	}
	return nil
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func defaultReference(reference string) string {
	reference = strings.TrimSpace(reference)
	if reference != "" {
		return reference
	}
	return "DOC-" + time.Now().Format("20060102150405")
}

func defaultTitle(title, fallback string) string {
	title = strings.TrimSpace(title)
	if title != "" {
		return title
	}
	return fallback
}
