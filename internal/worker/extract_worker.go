package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/gorm"

	"tenderquote/internal/extract"
	"tenderquote/internal/model"
	"tenderquote/internal/platform/rabbitmq"
)

// DocumentStore is the persistence surface the worker writes through.
type DocumentStore interface {
	GetByID(id uint) (*model.Document, error)
	AttachExtractedText(id uint, text string) error
	MarkExtractionError(id uint, message string) error
	UpdateTenderMetadata(id uint, reference, title string) error
}

// ExtractWorker consumes upload-time extraction tasks and attaches the
// extracted text to the document. An extraction failure never deletes the
// document; it is recorded on the row so generation can refuse it later.
type ExtractWorker struct {
	conn      *amqp.Connection
	repo      DocumentStore
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewExtractWorker(conn *amqp.Connection, repo DocumentStore, queueName string) *ExtractWorker {
	return &ExtractWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
	}
}

func (w *ExtractWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var task rabbitmq.ExtractTask
				if err := json.Unmarshal(d.Body, &task); err != nil {
					log.Printf("worker decode extract task failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.process(task); err != nil {
					log.Printf("worker process document %d failed, requeueing: %v", task.DocumentID, err)
					_ = d.Nack(false, true)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

// process handles one extraction task. A non-nil return means a transient
// store failure: the document's state does not yet reflect the outcome and
// the delivery must be requeued, not acknowledged.
func (w *ExtractWorker) process(task rabbitmq.ExtractTask) error {
	text, err := extract.Text(task.FilePath)
	if err != nil {
		log.Printf("worker extract document %d failed: %v", task.DocumentID, err)
		if markErr := w.repo.MarkExtractionError(task.DocumentID, err.Error()); markErr != nil {
			if errors.Is(markErr, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("mark extraction error for document %d failed: %w", task.DocumentID, markErr)
		}
		return nil
	}

	if err := w.repo.AttachExtractedText(task.DocumentID, text); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("worker document %d vanished before text attach", task.DocumentID)
			return nil
		}
		return fmt.Errorf("attach text for document %d failed: %w", task.DocumentID, err)
	}

	if task.DocumentType == model.DocumentTypeTender {
		w.fillTenderMetadata(task.DocumentID, text)
	}
	return nil
}

// fillTenderMetadata backfills reference and title sniffed from the text,
// but never overwrites values the uploader provided.
func (w *ExtractWorker) fillTenderMetadata(documentID uint, text string) {
	doc, err := w.repo.GetByID(documentID)
	if err != nil || doc == nil {
		return
	}

	info := extract.SniffKeyInformation(text)
	reference, title := "", ""
	if info.Reference != "" && strings.HasPrefix(doc.Reference, "DOC-") {
		reference = info.Reference
	}
	if info.Title != "" && doc.Title == doc.OriginalFilename {
		title = info.Title
	}
	if err := w.repo.UpdateTenderMetadata(documentID, reference, title); err != nil {
		log.Printf("worker update tender metadata failed for document %d: %v", documentID, err)
	}
}

func (w *ExtractWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
