package app

import (
	"context"

	"tenderquote/internal/ai"
	"tenderquote/internal/model"
	"tenderquote/internal/platform/rabbitmq"
)

// DocumentRepo is the persistence surface the services need from the
// document store.
type DocumentRepo interface {
	Create(doc *model.Document) error
	GetByID(id uint) (*model.Document, error)
	GetByHashAndType(hash, docType string) (*model.Document, error)
	ListByType(docType string) ([]model.Document, error)
	ListTemplates() ([]model.Document, error)
	Search(term string) ([]model.Document, error)
	CountByType(docType string) (int64, error)
	Delete(id uint) error
}

type GenerationRepo interface {
	Create(job *model.GenerationJob) error
	SetStreaming(id uint) error
	Complete(id uint, accumulatedText string, resultDocumentID uint, elapsedSeconds float64) error
	Fail(id uint, message string, elapsedSeconds float64) error
	List(sourceID uint) ([]model.GenerationJob, error)
}

// BlobStore owns the raw document bytes.
type BlobStore interface {
	Save(category, ext string, data []byte) (filename, path string, err error)
	Remove(path string) error
}

// TaskPublisher hands extraction work to the queue.
type TaskPublisher interface {
	Publish(ctx context.Context, task rabbitmq.ExtractTask) error
}

// TextCache is a best-effort cache for extracted text; all errors are
// ignorable.
type TextCache interface {
	GetText(ctx context.Context, documentID uint) (string, bool, error)
	SetText(ctx context.Context, documentID uint, text string) error
	DeleteText(ctx context.Context, documentID uint) error
}

// InferenceClient is the language-model collaborator.
type InferenceClient interface {
	Generate(ctx context.Context, cfg ai.GenerateConfig, systemPrompt, userPrompt string) (string, error)
	GenerateStream(ctx context.Context, cfg ai.GenerateConfig, systemPrompt, userPrompt string, onChunk func(string) error) (string, error)
	CheckHealth(ctx context.Context, baseURL string) error
	ListModels(ctx context.Context, baseURL string) ([]string, error)
}
