package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorageService keeps files on the local disk. It is used when R2 is not
// configured and as the fallback when R2 uploads fail.
type LocalStorageService struct {
	basePath string
	baseURL  string
}

// NewLocalStorageService creates a local storage service rooted at basePath
func NewLocalStorageService(basePath, baseURL string) (*LocalStorageService, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &LocalStorageService{
		basePath: filepath.Clean(basePath),
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// BasePath returns the directory files are written to
func (f *LocalStorageService) BasePath() string {
	return f.basePath
}

// Upload writes the file through a temporary file so readers never see a
// partial image
func (f *LocalStorageService) Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (string, error) {
	fullPath, err := f.path(key)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, reader)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", fullPath, err)
	}
	if size >= 0 && written != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, wrote %d bytes", size, written)
	}

	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", fmt.Errorf("failed to store file %s: %w", fullPath, err)
	}
	return f.GetURL(key), nil
}

// Delete removes a file and any directories it leaves empty
func (f *LocalStorageService) Delete(ctx context.Context, key string) error {
	fullPath, err := f.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}
	f.cleanupEmptyDirs(filepath.Dir(fullPath))
	return nil
}

func (f *LocalStorageService) GetURL(key string) string {
	return fmt.Sprintf("%s/%s", f.baseURL, strings.TrimPrefix(key, "/"))
}

func (f *LocalStorageService) KeyForURL(url string) (string, bool) {
	return keyForURL(f.baseURL, url)
}

// path resolves key inside basePath, refusing keys that escape it
func (f *LocalStorageService) path(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	fullPath := filepath.Join(f.basePath, filepath.FromSlash(key))
	if key == "" || !strings.HasPrefix(fullPath, f.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return fullPath, nil
}

// cleanupEmptyDirs removes empty directories up to the base path
func (f *LocalStorageService) cleanupEmptyDirs(dir string) {
	for dir != f.basePath && strings.HasPrefix(dir, f.basePath) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// StorageServiceWithFallback writes to the primary storage and falls back to
// the secondary one when the primary fails
type StorageServiceWithFallback struct {
	primary  StorageService
	fallback StorageService
	logger   *slog.Logger
}

// NewStorageServiceWithFallback creates a storage service with fallback capability
func NewStorageServiceWithFallback(primary, fallback StorageService, logger *slog.Logger) *StorageServiceWithFallback {
	return &StorageServiceWithFallback{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Upload tries the primary storage first. The reader must be seekable for the
// fallback to replay it.
func (s *StorageServiceWithFallback) Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (string, error) {
	url, err := s.primary.Upload(ctx, key, reader, contentType, size)
	if err == nil {
		return url, nil
	}

	seeker, ok := reader.(io.Seeker)
	if !ok {
		return "", fmt.Errorf("primary storage failed and cannot reset reader for fallback: %w", err)
	}
	if _, seekErr := seeker.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("primary storage failed and cannot reset reader for fallback: %w", err)
	}

	s.logger.Warn("primary storage failed, using fallback", "key", key, "error", err)
	return s.fallback.Upload(ctx, key, reader, contentType, size)
}

// Delete removes the key from whichever storage holds it
func (s *StorageServiceWithFallback) Delete(ctx context.Context, key string) error {
	primaryErr := s.primary.Delete(ctx, key)
	fallbackErr := s.fallback.Delete(ctx, key)
	if primaryErr != nil && fallbackErr != nil {
		return fmt.Errorf("both storages failed: primary: %v, fallback: %w", primaryErr, fallbackErr)
	}
	return nil
}

func (s *StorageServiceWithFallback) GetURL(key string) string {
	return s.primary.GetURL(key)
}

func (s *StorageServiceWithFallback) KeyForURL(url string) (string, bool) {
	if key, ok := s.primary.KeyForURL(url); ok {
		return key, true
	}
	return s.fallback.KeyForURL(url)
}
