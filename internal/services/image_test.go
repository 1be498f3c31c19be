package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"

	"eventhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const memStorageURL = "https://cdn.example.com"

// memStorage keeps uploaded files in a map
type memStorage struct {
	mu      sync.Mutex
	files   map[string][]byte
	deleted []string
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}}
}

func (m *memStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key] = data
	return m.GetURL(key), nil
}

func (m *memStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memStorage) GetURL(key string) string {
	return memStorageURL + "/" + key
}

func (m *memStorage) KeyForURL(url string) (string, bool) {
	return keyForURL(memStorageURL, url)
}

func (m *memStorage) file(t *testing.T, url string) []byte {
	t.Helper()
	key, ok := m.KeyForURL(url)
	require.True(t, ok, "url %s is not stored", url)
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[key]
	require.True(t, ok, "key %s missing", key)
	return data
}

func (m *memStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

func pngImage(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 10 {
		img.Set(x, height/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newImageEnv(t *testing.T, maxBytes int64) (*testEnv, *memStorage, *ImageService) {
	t.Helper()
	env := newTestEnv(t)
	storage := newMemStorage()
	images := NewImageService(storage, fakeEvents{env.store}, maxBytes, discardLogger())
	env.events.SetImageCleaner(images)
	return env, storage, images
}

func TestImageService_UploadEventImage(t *testing.T) {
	env, storage, images := newImageEnv(t, 0)
	ctx := context.Background()
	organizer := env.addUser(t, models.RoleOrganizer)
	event := env.addEvent(t, organizer, 10, 5, models.StatusApproved)

	updated, err := images.UploadEventImage(ctx, organizer, event.ID, bytes.NewReader(pngImage(t, 3200, 1000)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(updated.ImageURL, memStorageURL+"/events/"))
	assert.True(t, strings.HasSuffix(updated.ImageURL, ".jpg"))
	assert.Equal(t, models.StatusApproved, updated.Status)

	stored, err := jpeg.DecodeConfig(bytes.NewReader(storage.file(t, updated.ImageURL)))
	require.NoError(t, err)
	assert.Equal(t, 1600, stored.Width)
	assert.Equal(t, 500, stored.Height)

	// Small images are not upscaled and replace the previous file
	first := updated.ImageURL
	updated, err = images.UploadEventImage(ctx, organizer, event.ID, bytes.NewReader(pngImage(t, 300, 200)))
	require.NoError(t, err)
	assert.NotEqual(t, first, updated.ImageURL)
	assert.Equal(t, 1, storage.count())

	stored, err = jpeg.DecodeConfig(bytes.NewReader(storage.file(t, updated.ImageURL)))
	require.NoError(t, err)
	assert.Equal(t, 300, stored.Width)
}

func TestImageService_UploadErrors(t *testing.T) {
	env, storage, images := newImageEnv(t, 2048)
	ctx := context.Background()
	organizer := env.addUser(t, models.RoleOrganizer)
	other := env.addUser(t, models.RoleOrganizer)
	admin := env.addUser(t, models.RoleAdmin)
	event := env.addEvent(t, organizer, 10, 5, models.StatusPending)

	tests := []struct {
		name    string
		caller  *models.User
		eventID int
		data    []byte
		kind    models.ErrorKind
	}{
		{"anonymous", nil, event.ID, pngImage(t, 10, 10), models.KindAuthentication},
		{"other organizer", other, event.ID, pngImage(t, 10, 10), models.KindAuthorization},
		{"admin", admin, event.ID, pngImage(t, 10, 10), models.KindAuthorization},
		{"missing event", organizer, 999999, pngImage(t, 10, 10), models.KindNotFound},
		{"empty", organizer, event.ID, nil, models.KindValidation},
		{"not an image", organizer, event.ID, []byte("definitely not an image"), models.KindValidation},
		{"too large", organizer, event.ID, bytes.Repeat([]byte{0xff}, 4096), models.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := images.UploadEventImage(ctx, tt.caller, tt.eventID, bytes.NewReader(tt.data))
			require.Error(t, err)
			assert.Equal(t, tt.kind, models.KindOf(err))
		})
	}
	assert.Zero(t, storage.count())
}

func TestImageService_RemoveAndCleanup(t *testing.T) {
	env, storage, images := newImageEnv(t, 0)
	ctx := context.Background()
	organizer := env.addUser(t, models.RoleOrganizer)
	event := env.addEvent(t, organizer, 10, 5, models.StatusApproved)

	updated, err := images.UploadEventImage(ctx, organizer, event.ID, bytes.NewReader(pngImage(t, 40, 40)))
	require.NoError(t, err)
	require.Equal(t, 1, storage.count())
	assert.NotEmpty(t, storage.file(t, updated.ImageURL))

	cleared, err := images.RemoveEventImage(ctx, organizer, event.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared.ImageURL)
	assert.Zero(t, storage.count())

	// Removing again is a no-op
	_, err = images.RemoveEventImage(ctx, organizer, event.ID)
	require.NoError(t, err)

	// External URLs are never deleted
	images.DiscardStored(ctx, "https://elsewhere.example.com/a.jpg")
	assert.Len(t, storage.deleted, 1)

	t.Run("event update replacing the image", func(t *testing.T) {
		_, err := images.UploadEventImage(ctx, organizer, event.ID, bytes.NewReader(pngImage(t, 40, 40)))
		require.NoError(t, err)

		external := "https://elsewhere.example.com/poster.jpg"
		patched, err := env.events.Update(ctx, organizer, event.ID, &models.EventUpdateRequest{ImageURL: &external})
		require.NoError(t, err)
		assert.Equal(t, external, patched.ImageURL)
		assert.Zero(t, storage.count())
	})

	t.Run("event delete", func(t *testing.T) {
		_, err := images.UploadEventImage(ctx, organizer, event.ID, bytes.NewReader(pngImage(t, 40, 40)))
		require.NoError(t, err)
		require.Equal(t, 1, storage.count())

		_, err = env.events.Delete(ctx, organizer, event.ID)
		require.NoError(t, err)
		assert.Zero(t, storage.count())
	})
}

func TestKeyForURL(t *testing.T) {
	tests := []struct {
		base string
		url  string
		key  string
		ok   bool
	}{
		{"https://cdn.example.com", "https://cdn.example.com/events/1/a.jpg", "events/1/a.jpg", true},
		{"https://cdn.example.com/", "https://cdn.example.com/events/1/a.jpg", "events/1/a.jpg", true},
		{"https://cdn.example.com", "https://cdn.example.com.evil.io/a.jpg", "", false},
		{"https://cdn.example.com", "https://cdn.example.com/", "", false},
		{"", "https://cdn.example.com/a.jpg", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			key, ok := keyForURL(tt.base, tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, key)
		})
	}
}
