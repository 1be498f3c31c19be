package services

import (
	"context"
	"io"
	"strings"
)

// StorageService stores uploaded files and serves them from a public URL
type StorageService interface {
	// Upload stores the content under key and returns its public URL
	Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (string, error)

	// Delete removes a file. Deleting a missing file is not an error.
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for a key
	GetURL(key string) string

	// KeyForURL maps a URL produced by this storage back to its key
	KeyForURL(url string) (string, bool)
}

// keyForURL strips baseURL from url when url points into it
func keyForURL(baseURL, url string) (string, bool) {
	prefix := strings.TrimSuffix(baseURL, "/") + "/"
	if baseURL == "" || !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}
