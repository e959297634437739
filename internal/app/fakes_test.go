package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"

	"tenderquote/internal/ai"
	"tenderquote/internal/model"
	"tenderquote/internal/platform/rabbitmq"
)

// fakeDocRepo mirrors the MySQL repository contract in memory, including the
// composite unique index on (content_hash, document_type).
type fakeDocRepo struct {
	mu     sync.Mutex
	nextID uint
	docs   map[uint]*model.Document
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{docs: make(map[uint]*model.Document)}
}

func (r *fakeDocRepo) Create(doc *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.docs {
		if existing.ContentHash == doc.ContentHash && existing.DocumentType == doc.DocumentType {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	doc.ID = r.nextID
	stored := *doc
	r.docs[doc.ID] = &stored
	return nil
}

func (r *fakeDocRepo) GetByID(id uint) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	copied := *doc
	return &copied, nil
}

func (r *fakeDocRepo) GetByHashAndType(hash, docType string) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if doc.ContentHash == hash && doc.DocumentType == docType {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeDocRepo) ListByType(docType string) ([]model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Document
	for _, doc := range r.docs {
		if doc.DocumentType == docType {
			out = append(out, *doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeDocRepo) ListTemplates() ([]model.Document, error) {
	return r.ListByType(model.DocumentTypeTemplate)
}

func (r *fakeDocRepo) Search(term string) ([]model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Document
	for _, doc := range r.docs {
		if strings.Contains(doc.Title, term) || strings.Contains(doc.Reference, term) || strings.Contains(doc.Text(), term) {
			out = append(out, *doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeDocRepo) CountByType(docType string) (int64, error) {
	docs, _ := r.ListByType(docType)
	return int64(len(docs)), nil
}

func (r *fakeDocRepo) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	return nil
}

func (r *fakeDocRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

type fakeBlobStore struct {
	mu     sync.Mutex
	nextID int
	blobs  map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (b *fakeBlobStore) Save(category, ext string, data []byte) (string, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	filename := fmt.Sprintf("blob-%d%s", b.nextID, ext)
	path := category + "/" + filename
	b.blobs[path] = append([]byte(nil), data...)
	return filename, path, nil
}

func (b *fakeBlobStore) Remove(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, path)
	return nil
}

func (b *fakeBlobStore) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.blobs)
}

type fakePublisher struct {
	mu    sync.Mutex
	tasks []rabbitmq.ExtractTask
}

func (p *fakePublisher) Publish(ctx context.Context, task rabbitmq.ExtractTask) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, task)
	return nil
}

func (p *fakePublisher) published() []rabbitmq.ExtractTask {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]rabbitmq.ExtractTask(nil), p.tasks...)
}

type fakeGenRepo struct {
	mu     sync.Mutex
	nextID uint
	jobs   map[uint]*model.GenerationJob
}

func newFakeGenRepo() *fakeGenRepo {
	return &fakeGenRepo{jobs: make(map[uint]*model.GenerationJob)}
}

func (r *fakeGenRepo) Create(job *model.GenerationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	job.ID = r.nextID
	stored := *job
	r.jobs[job.ID] = &stored
	return nil
}

func (r *fakeGenRepo) SetStreaming(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	job.Status = model.GenerationStatusStreaming
	return nil
}

func (r *fakeGenRepo) Complete(id uint, accumulatedText string, resultDocumentID uint, elapsedSeconds float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	job.Status = model.GenerationStatusCompleted
	job.AccumulatedText = accumulatedText
	job.ResultDocumentID = resultDocumentID
	job.ElapsedSeconds = elapsedSeconds
	return nil
}

func (r *fakeGenRepo) Fail(id uint, message string, elapsedSeconds float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	job.Status = model.GenerationStatusFailed
	job.ErrorMessage = message
	job.ElapsedSeconds = elapsedSeconds
	return nil
}

func (r *fakeGenRepo) List(sourceID uint) ([]model.GenerationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.GenerationJob
	for _, job := range r.jobs {
		if sourceID == 0 || job.TenderDocumentID == sourceID {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeGenRepo) get(id uint) *model.GenerationJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

// fakeInference replays scripted chunks; failAfter >= 0 aborts the stream
// with streamErr once that many chunks were delivered. With hangAfterChunks
// set, the stream stalls after its chunks until the context ends, the way a
// wedged model server would.
type fakeInference struct {
	mu              sync.Mutex
	chunks          []string
	failAfter       int
	streamErr       error
	hangAfterChunks bool
	calls           int
}

func newFakeInference(chunks ...string) *fakeInference {
	return &fakeInference{chunks: chunks, failAfter: -1}
}

func (f *fakeInference) Generate(ctx context.Context, cfg ai.GenerateConfig, systemPrompt, userPrompt string) (string, error) {
	return f.GenerateStream(ctx, cfg, systemPrompt, userPrompt, func(string) error { return nil })
}

func (f *fakeInference) GenerateStream(ctx context.Context, cfg ai.GenerateConfig, systemPrompt, userPrompt string, onChunk func(string) error) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	var full strings.Builder
	for i, chunk := range f.chunks {
		if f.failAfter >= 0 && i == f.failAfter {
			return "", f.streamErr
		}
		full.WriteString(chunk)
		if err := onChunk(chunk); err != nil {
			return "", err
		}
	}
	if f.failAfter >= 0 && f.failAfter >= len(f.chunks) {
		return "", f.streamErr
	}
	if f.hangAfterChunks {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return full.String(), nil
}

func (f *fakeInference) CheckHealth(ctx context.Context, baseURL string) error { return nil }

func (f *fakeInference) ListModels(ctx context.Context, baseURL string) ([]string, error) {
	return []string{"mistral-small:latest"}, nil
}

func (f *fakeInference) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// collectSink records every event it is handed, in order.
type collectSink struct {
	events []StreamEvent
}

func (s *collectSink) Send(event StreamEvent) {
	s.events = append(s.events, event)
}
