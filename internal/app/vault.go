package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/student3964/MindVault/internal/util"
	"github.com/student3964/MindVault/pkg/domain"
)

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".pptx": true,
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
}

// UploadFile stores the blob, records metadata, and enqueues extraction.
func (a *App) UploadFile(ctx context.Context, owner domain.User, filename, contentType string, r io.Reader, size int64) (domain.StudyFile, error) {
	filename = strings.TrimSpace(filepath.Base(filename))
	if filename == "" {
		return domain.StudyFile{}, fmt.Errorf("%w: filename required", ErrValidation)
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(filename))] {
		return domain.StudyFile{}, ErrUnsupportedFileType
	}

	id := util.NewID()
	now := time.Now().UTC()
	file := domain.StudyFile{
		ID:          id,
		OwnerID:     owner.ID,
		Name:        filename,
		ContentType: contentType,
		SizeBytes:   size,
		StorageKey:  fmt.Sprintf("%s/%s/%s", owner.ID, id, filename),
		Status:      domain.StatusQueued,
		UploadedAt:  now,
		UpdatedAt:   now,
	}
	if err := a.objects.Put(ctx, file.StorageKey, r, size, contentType); err != nil {
		return domain.StudyFile{}, fmt.Errorf("store blob: %w", err)
	}
	if err := a.store.SaveFile(file); err != nil {
		// Roll back the blob so orphans do not pile up.
		_ = a.objects.Delete(ctx, file.StorageKey)
		return domain.StudyFile{}, fmt.Errorf("save file: %w", err)
	}
	if a.queue != nil {
		if _, err := a.queue.Enqueue(ctx, id); err != nil {
			_ = a.store.SetFileStatus(id, domain.StatusFailed, "could not queue extraction")
			return domain.StudyFile{}, fmt.Errorf("enqueue extraction: %w", err)
		}
	}
	return file, nil
}

// ListFiles returns the owner's files, optionally filtered by name substring.
func (a *App) ListFiles(owner domain.User, search string) ([]domain.StudyFile, error) {
	return a.store.ListFilesByOwner(owner.ID, search)
}

// FileContent streams the stored blob for an owned file.
func (a *App) FileContent(ctx context.Context, owner domain.User, fileID string) (domain.StudyFile, io.ReadCloser, error) {
	file, err := a.ownedFile(owner, fileID)
	if err != nil {
		return domain.StudyFile{}, nil, err
	}
	rc, err := a.objects.Get(ctx, file.StorageKey)
	if err != nil {
		return domain.StudyFile{}, nil, fmt.Errorf("fetch blob: %w", err)
	}
	return file, rc, nil
}

// DeleteFile removes the blob, metadata, and per-file chat history.
func (a *App) DeleteFile(ctx context.Context, owner domain.User, fileID string) error {
	file, err := a.ownedFile(owner, fileID)
	if err != nil {
		return err
	}
	if err := a.store.DeleteFile(file.ID); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if err := a.objects.Delete(ctx, file.StorageKey); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// ownedFile fetches a file and enforces ownership.
func (a *App) ownedFile(owner domain.User, fileID string) (domain.StudyFile, error) {
	file, ok, err := a.store.GetFile(fileID)
	if err != nil {
		return domain.StudyFile{}, fmt.Errorf("get file: %w", err)
	}
	if !ok {
		return domain.StudyFile{}, ErrNotFound
	}
	if file.OwnerID != owner.ID {
		return domain.StudyFile{}, ErrForbidden
	}
	return file, nil
}
