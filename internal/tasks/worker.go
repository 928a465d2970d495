// Package tasks runs document analysis as explicit queued work instead of
// fire-and-forget goroutines. A document moves uploaded → processing →
// completed or failed; evidence generation only ever accepts completed
// documents.
package tasks

import (
	"context"
	"log/slog"

	"github.com/Adithya6721/lexplain-veritas-sync/pkg/domain"
)

type Analyzer interface {
	Analyze(ctx context.Context, documentID, ocrText string) (domain.AnalysisResult, error)
}

type TaskStore interface {
	SetDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus) error
	CreateAnalysis(ctx context.Context, a domain.AnalysisResult) error
}

// Task carries a document whose text the upload pipeline has already
// extracted. OCR itself happens upstream.
type Task struct {
	DocumentID string
	OCRText    string
}

type Worker struct {
	store    TaskStore
	analyzer Analyzer
	queue    chan Task
	logger   *slog.Logger
}

func NewWorker(store TaskStore, analyzer Analyzer, queueSize int, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Worker{
		store:    store,
		analyzer: analyzer,
		queue:    make(chan Task, queueSize),
		logger:   logger.With("component", "task-worker"),
	}
}

// Enqueue queues a document for analysis. Returns false when the queue is
// full; the caller decides whether to retry or fail the upload.
func (w *Worker) Enqueue(task Task) bool {
	select {
	case w.queue <- task:
		return true
	default:
		return false
	}
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-w.queue:
			w.process(ctx, task)
		}
	}
}

func (w *Worker) process(ctx context.Context, task Task) {
	if err := w.store.SetDocumentStatus(ctx, task.DocumentID, domain.DocumentProcessing); err != nil {
		w.logger.Warn("status transition failed", "document_id", task.DocumentID, "err", err)
		return
	}

	result, err := w.analyzer.Analyze(ctx, task.DocumentID, task.OCRText)
	if err != nil {
		w.logger.Warn("analysis failed, marking document failed", "document_id", task.DocumentID, "err", err)
		if err := w.store.SetDocumentStatus(ctx, task.DocumentID, domain.DocumentFailed); err != nil {
			w.logger.Warn("failed-status transition failed", "document_id", task.DocumentID, "err", err)
		}
		return
	}

	if err := w.store.CreateAnalysis(ctx, result); err != nil {
		w.logger.Warn("persist analysis failed, marking document failed", "document_id", task.DocumentID, "err", err)
		if err := w.store.SetDocumentStatus(ctx, task.DocumentID, domain.DocumentFailed); err != nil {
			w.logger.Warn("failed-status transition failed", "document_id", task.DocumentID, "err", err)
		}
		return
	}

	if err := w.store.SetDocumentStatus(ctx, task.DocumentID, domain.DocumentCompleted); err != nil {
		w.logger.Warn("completed-status transition failed", "document_id", task.DocumentID, "err", err)
	}
}
