// Package worker runs the text-extraction pipeline: it consumes queued
// jobs, pulls the uploaded blob, extracts plain text, and stores it back
// on the file record.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/student3964/MindVault/internal/extract"
	"github.com/student3964/MindVault/pkg/domain"
	"github.com/student3964/MindVault/pkg/queue"
	"github.com/student3964/MindVault/pkg/storage"
	"github.com/student3964/MindVault/pkg/store"
)

// Config wires the worker's dependencies.
type Config struct {
	Store       store.Store
	Objects     storage.ObjectStore
	Queue       *queue.RedisJobQueue
	Concurrency int
	// MaxRetries should match the queue's retry budget so the file row is
	// marked failed on the final attempt.
	MaxRetries int
}

// Worker consumes extraction jobs from the queue.
type Worker struct {
	store       store.Store
	objects     storage.ObjectStore
	queue       *queue.RedisJobQueue
	concurrency int
	maxRetries  int
}

// New builds a worker.
func New(cfg Config) (*Worker, error) {
	if cfg.Store == nil || cfg.Objects == nil || cfg.Queue == nil {
		return nil, fmt.Errorf("store, object store and queue required")
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Worker{
		store:       cfg.Store,
		objects:     cfg.Objects,
		queue:       cfg.Queue,
		concurrency: concurrency,
		maxRetries:  maxRetries,
	}, nil
}

// Run starts the consumers and blocks until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	w.queue.Start(ctx, w.concurrency, w.Handle)
	<-ctx.Done()
}

// Handle processes one extraction job.
func (w *Worker) Handle(ctx context.Context, job queue.JobStatus) error {
	file, ok, err := w.store.GetFile(job.FileID)
	if err != nil {
		return w.fail(job, fmt.Errorf("get file: %w", err))
	}
	if !ok {
		// File deleted while queued; nothing to do.
		return nil
	}
	if err := w.store.SetFileStatus(file.ID, domain.StatusProcessing, ""); err != nil {
		return w.fail(job, fmt.Errorf("mark processing: %w", err))
	}

	text, err := w.extractText(ctx, file)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupported) {
			// Permanent; no point retrying.
			_ = w.store.SetFileStatus(file.ID, domain.StatusFailed, err.Error())
			return nil
		}
		return w.fail(job, err)
	}
	if err := w.store.SetFileText(file.ID, text); err != nil {
		return w.fail(job, fmt.Errorf("store text: %w", err))
	}
	slog.Info("file extracted", "file_id", file.ID, "chars", len(text))
	return nil
}

func (w *Worker) extractText(ctx context.Context, file domain.StudyFile) (string, error) {
	rc, err := w.objects.Get(ctx, file.StorageKey)
	if err != nil {
		return "", fmt.Errorf("fetch blob: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read blob: %w", err)
	}
	return extract.Text(file.Name, data)
}

// fail marks the file failed once the retry budget is exhausted, then
// returns the error so the queue can retry or give up.
func (w *Worker) fail(job queue.JobStatus, err error) error {
	if job.Attempts >= w.maxRetries {
		_ = w.store.SetFileStatus(job.FileID, domain.StatusFailed, err.Error())
	}
	slog.Warn("extraction attempt failed", "file_id", job.FileID, "attempt", job.Attempts, "err", err)
	return err
}
