package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"tenderquote/internal/ai"
	"tenderquote/internal/export"
	"tenderquote/internal/model"
	"tenderquote/internal/prompt"
)

const promptExcerptLimit = 5000

// GenerationService coordinates one quote generation end to end: resolve
// texts, build the prompt, stream the model, export the artifact, record
// history. Each run is owned by a single goroutine; independent runs only
// share the database.
type GenerationService struct {
	docService      *DocumentService
	genRepo         GenerationRepo
	inference       InferenceClient
	builder         *prompt.Builder
	inferConfig     ai.GenerateConfig
	generateTimeout time.Duration
}

type QuoteInput struct {
	TenderDocumentID  uint
	TemplateIDs       []uint
	AdditionalContext string
}

// HistoryEntry is a generation job enriched with its source and result
// document metadata.
type HistoryEntry struct {
	ID                uint      `json:"id"`
	Status            string    `json:"status"`
	SourceDocumentID  uint      `json:"source_document_id"`
	SourceTitle       string    `json:"source_title"`
	SourceReference   string    `json:"source_reference"`
	ResultDocumentID  uint      `json:"result_document_id,omitempty"`
	GeneratedFilename string    `json:"generated_filename,omitempty"`
	ModelUsed         string    `json:"model_used"`
	ElapsedSeconds    float64   `json:"elapsed_seconds"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func NewGenerationService(
	docService *DocumentService,
	genRepo GenerationRepo,
	inference InferenceClient,
	builder *prompt.Builder,
	inferConfig ai.GenerateConfig,
	generateTimeout time.Duration,
) *GenerationService {
	if generateTimeout <= 0 {
		generateTimeout = 30 * time.Minute
	}
	return &GenerationService{
		docService:      docService,
		genRepo:         genRepo,
		inference:       inference,
		builder:         builder,
		inferConfig:     inferConfig,
		generateTimeout: generateTimeout,
	}
}

// QuoteRun is a prepared generation job, ready to stream. StartQuote has
// already validated every precondition, so any later failure is reported on
// the event stream rather than as a synchronous error.
type QuoteRun struct {
	svc          *GenerationService
	job          *model.GenerationJob
	tender       *model.Document
	systemPrompt string
	userPrompt   string
}

// StartQuote validates the request, resolves the tender and template texts,
// builds the prompt and creates the job in its pending state. The inference
// collaborator is not contacted here.
func (s *GenerationService) StartQuote(ctx context.Context, input QuoteInput) (*QuoteRun, error) {
	if input.TenderDocumentID == 0 {
		return nil, fmt.Errorf("%w: no tender selected", ErrInvalidInput)
	}

	tender, err := s.resolveTender(ctx, input.TenderDocumentID)
	if err != nil {
		return nil, err
	}
	tenderText, err := s.docService.Text(ctx, tender)
	if err != nil {
		return nil, err
	}

	templateTexts, usedIDs, err := s.resolveTemplates(ctx, input.TemplateIDs)
	if err != nil {
		return nil, err
	}

	systemPrompt, userPrompt := s.builder.BuildQuote(tenderText, templateTexts, input.AdditionalContext)

	idsJSON, _ := json.Marshal(usedIDs)
	job := &model.GenerationJob{
		TenderDocumentID:  tender.ID,
		TemplateIDs:       string(idsJSON),
		AdditionalContext: input.AdditionalContext,
		Status:            model.GenerationStatusPending,
		PromptExcerpt:     excerpt(userPrompt, promptExcerptLimit),
		ModelUsed:         s.inferConfig.Model,
	}
	if err := s.genRepo.Create(job); err != nil {
		return nil, err
	}

	return &QuoteRun{
		svc:          s,
		job:          job,
		tender:       tender,
		systemPrompt: systemPrompt,
		userPrompt:   userPrompt,
	}, nil
}

// Stream drives the job through streaming to its terminal state, emitting
// chunk events as the model produces text and exactly one done or error
// event last. The run is cancelled when ctx is; a client disconnect
// therefore aborts the inference call.
func (r *QuoteRun) Stream(ctx context.Context, sink EventSink) {
	s := r.svc
	start := time.Now()

	if err := s.genRepo.SetStreaming(r.job.ID); err != nil {
		log.Printf("generation job %d: set streaming failed: %v", r.job.ID, err)
	}

	streamCtx, cancel := context.WithTimeout(ctx, s.generateTimeout)
	defer cancel()

	var accumulated strings.Builder
	full, err := s.inference.GenerateStream(streamCtx, s.inferConfig, r.systemPrompt, r.userPrompt, func(chunk string) error {
		accumulated.WriteString(chunk)
		sink.Send(chunkEvent(chunk))
		return nil
	})
	if err != nil {
		// Partial text is discarded from the stored record; whatever the
		// client already received stays visible on its side only.
		r.fail(sink, start, fmt.Errorf("%w: %v", ErrInference, err))
		return
	}

	artifact, renderErr := export.RenderDocx(full, "Offre de Prix - "+r.tender.Reference, r.tender.Reference)
	if renderErr != nil {
		r.fail(sink, start, fmt.Errorf("render offer document failed: %w", renderErr))
		return
	}

	filename := fmt.Sprintf("Offre_%s_%s.docx", r.tender.Reference, time.Now().Format("20060102_150405"))
	resultDoc, storeErr := s.docService.StoreGenerated(ctx, StoreGeneratedInput{
		Content:  artifact,
		Filename: filename,
		Text:     full,
		Tender:   r.tender,
	})
	if storeErr != nil {
		r.fail(sink, start, storeErr)
		return
	}

	elapsed := time.Since(start).Seconds()
	if err := s.genRepo.Complete(r.job.ID, full, resultDoc.ID, elapsed); err != nil {
		// The artifact exists and is downloadable, only the history row is
		// stale. Degraded but recoverable, so the stream still succeeds.
		log.Printf("generation job %d: record completion failed: %v", r.job.ID, err)
	}

	sink.Send(StreamEvent{
		Type:           EventTypeDone,
		DocumentID:     resultDoc.ID,
		Filename:       resultDoc.OriginalFilename,
		ElapsedSeconds: elapsed,
	})
}

func (r *QuoteRun) fail(sink EventSink, start time.Time, cause error) {
	elapsed := time.Since(start).Seconds()
	if err := r.svc.genRepo.Fail(r.job.ID, cause.Error(), elapsed); err != nil {
		log.Printf("generation job %d: record failure failed: %v", r.job.ID, err)
	}
	sink.Send(errorEvent(cause.Error()))
}

// AnalysisRun is the simplified machine: same streaming and error policy as
// a quote run, but the result is analysis text only, nothing is exported or
// stored.
type AnalysisRun struct {
	svc          *GenerationService
	systemPrompt string
	userPrompt   string
}

func (s *GenerationService) StartAnalysis(ctx context.Context, tenderDocumentID uint) (*AnalysisRun, error) {
	if tenderDocumentID == 0 {
		return nil, fmt.Errorf("%w: no tender selected", ErrInvalidInput)
	}
	tender, err := s.resolveTender(ctx, tenderDocumentID)
	if err != nil {
		return nil, err
	}
	tenderText, err := s.docService.Text(ctx, tender)
	if err != nil {
		return nil, err
	}

	systemPrompt, userPrompt := s.builder.BuildAnalysis(tenderText)
	return &AnalysisRun{
		svc:          s,
		systemPrompt: systemPrompt,
		userPrompt:   userPrompt,
	}, nil
}

func (r *AnalysisRun) Stream(ctx context.Context, sink EventSink) {
	s := r.svc
	start := time.Now()

	streamCtx, cancel := context.WithTimeout(ctx, s.generateTimeout)
	defer cancel()

	_, err := s.inference.GenerateStream(streamCtx, s.inferConfig, r.systemPrompt, r.userPrompt, func(chunk string) error {
		sink.Send(chunkEvent(chunk))
		return nil
	})
	if err != nil {
		sink.Send(errorEvent(fmt.Sprintf("%v: %v", ErrInference, err)))
		return
	}

	sink.Send(StreamEvent{
		Type:           EventTypeDone,
		ElapsedSeconds: time.Since(start).Seconds(),
	})
}

// History returns generation jobs enriched with document metadata, newest
// first. sourceID 0 lists everything.
func (s *GenerationService) History(sourceID uint) ([]HistoryEntry, error) {
	jobs, err := s.genRepo.List(sourceID)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(jobs))
	for _, job := range jobs {
		entry := HistoryEntry{
			ID:               job.ID,
			Status:           job.Status,
			SourceDocumentID: job.TenderDocumentID,
			ResultDocumentID: job.ResultDocumentID,
			ModelUsed:        job.ModelUsed,
			ElapsedSeconds:   job.ElapsedSeconds,
			ErrorMessage:     job.ErrorMessage,
			CreatedAt:        job.CreatedAt,
		}
		if source, err := s.docService.docRepo.GetByID(job.TenderDocumentID); err == nil && source != nil {
			entry.SourceTitle = source.Title
			entry.SourceReference = source.Reference
		}
		if job.ResultDocumentID != 0 {
			if result, err := s.docService.docRepo.GetByID(job.ResultDocumentID); err == nil && result != nil {
				entry.GeneratedFilename = result.OriginalFilename
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// CheckInference reports whether the model collaborator is reachable.
func (s *GenerationService) CheckInference(ctx context.Context) error {
	return s.inference.CheckHealth(ctx, s.inferConfig.BaseURL)
}

// Models lists the models served by the inference collaborator.
func (s *GenerationService) Models(ctx context.Context) ([]string, error) {
	names, err := s.inference.ListModels(ctx, s.inferConfig.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	return names, nil
}

func (s *GenerationService) resolveTender(ctx context.Context, id uint) (*model.Document, error) {
	tender, err := s.docService.Get(id)
	if err != nil {
		return nil, err
	}
	if tender.DocumentType != model.DocumentTypeTender {
		return nil, fmt.Errorf("%w: document %d is not a tender", ErrInvalidInput, id)
	}
	return tender, nil
}

// resolveTemplates loads the selected template texts in selection order.
// Missing or text-less templates are skipped; an empty selection falls back
// to every stored template.
func (s *GenerationService) resolveTemplates(ctx context.Context, templateIDs []uint) ([]string, []uint, error) {
	if len(templateIDs) == 0 {
		templates, err := s.docService.docRepo.ListTemplates()
		if err != nil {
			return nil, nil, err
		}
		for _, tpl := range templates {
			templateIDs = append(templateIDs, tpl.ID)
		}
	}

	texts := make([]string, 0, len(templateIDs))
	usedIDs := make([]uint, 0, len(templateIDs))
	for _, id := range templateIDs {
		tpl, err := s.docService.docRepo.GetByID(id)
		if err != nil {
			return nil, nil, err
		}
		if tpl == nil || tpl.DocumentType != model.DocumentTypeTemplate || !tpl.Ready() {
			continue
		}
		text, err := s.docService.Text(ctx, tpl)
		if err != nil {
			continue
		}
		texts = append(texts, text)
		usedIDs = append(usedIDs, id)
	}
	return texts, usedIDs, nil
}

func excerpt(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
