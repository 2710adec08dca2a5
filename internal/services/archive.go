// Package services holds the background collaborators around the record
// store: the script archive and the rollup reconciler.
package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	storage "github.com/supabase-community/storage-go"

	"script-analysis-backend/internal/config"
	"script-analysis-backend/internal/logging"
)

const archiveListLimit = 1000

// ArchiveService keeps a copy of every uploaded script PDF in object storage.
// The service is optional; NewArchiveService returns nil when storage is not
// configured, and the background helpers treat a nil receiver as disabled.
type ArchiveService struct {
	client *storage.Client
	bucket string
	logger *logging.Logger
}

func NewArchiveService(cfg *config.Config, logger *logging.Logger) *ArchiveService {
	if !cfg.StorageConfigured() {
		return nil
	}

	baseURL := strings.TrimSuffix(cfg.StorageURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", cfg.StorageServiceKey, nil)

	return &ArchiveService{
		client: client,
		bucket: cfg.StorageBucket,
		logger: logger,
	}
}

// Enabled reports whether archiving is configured.
func (s *ArchiveService) Enabled() bool {
	return s != nil
}

// Store uploads a script PDF under scripts/{scriptID}/{filename} and returns
// the object path.
func (s *ArchiveService) Store(scriptID, filename string, data []byte) (string, error) {
	path := fmt.Sprintf("scripts/%s/%s", scriptID, filename)

	contentType := "application/pdf"
	upsert := true
	_, err := s.client.UploadFile(s.bucket, path, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload script: %w", err)
	}
	return path, nil
}

// Remove deletes every archived object belonging to a script record.
func (s *ArchiveService) Remove(scriptID string) error {
	prefix := fmt.Sprintf("scripts/%s", scriptID)

	files, err := s.client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{
		Limit: archiveListLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to list archived files: %w", err)
	}
	if len(files) == 0 {
		return nil
	}

	// ListFiles returns names relative to the prefix folder.
	paths := make([]string, len(files))
	for i, file := range files {
		paths[i] = prefix + "/" + file.Name
	}
	if _, err := s.client.RemoveFile(s.bucket, paths); err != nil {
		return fmt.Errorf("failed to remove archived files: %w", err)
	}
	return nil
}

// Fetch downloads an archived object by path.
func (s *ArchiveService) Fetch(path string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, path)
	if err != nil {
		return nil, fmt.Errorf("failed to download archived file: %w", err)
	}
	return data, nil
}

// ArchiveInBackground uploads without blocking the request path, retrying
// with backoff. Failures are logged and never surfaced to the caller.
func (s *ArchiveService) ArchiveInBackground(scriptID, filename string, data []byte) {
	if s == nil {
		return
	}
	go func() {
		err := RetryWithBackoff(func() error {
			_, err := s.Store(scriptID, filename, data)
			return err
		}, 3)
		if err != nil {
			s.logger.Errorw("failed to archive script",
				"script_id", scriptID,
				"filename", filename,
				"error", err)
		}
	}()
}

// RemoveInBackground deletes archived objects without blocking the request.
func (s *ArchiveService) RemoveInBackground(scriptID string) {
	if s == nil {
		return
	}
	go func() {
		if err := RetryWithBackoff(func() error { return s.Remove(scriptID) }, 3); err != nil {
			s.logger.Errorw("failed to remove archived script",
				"script_id", scriptID,
				"error", err)
		}
	}()
}

// RetryWithBackoff executes a function with exponential backoff retry logic
func RetryWithBackoff(fn func() error, maxRetries int) error {
	backoffs := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if i < len(backoffs) {
			time.Sleep(backoffs[i])
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
