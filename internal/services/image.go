package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"

	"eventhub/internal/models"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	// DefaultMaxImageBytes bounds the size of an uploaded image file
	DefaultMaxImageBytes = 5 << 20

	maxImagePixels = 40_000_000
	imageQuality   = 85
)

// ImageVariantConfig is the box an uploaded image is fitted into
type ImageVariantConfig struct {
	Name   string
	Width  int
	Height int
}

// EventImageVariant is the stored rendition of an event image
var EventImageVariant = ImageVariantConfig{Name: "large", Width: 1600, Height: 1200}

// ImageService processes event images and keeps them in storage
type ImageService struct {
	storage  StorageService
	events   EventStore
	maxBytes int64
	logger   *slog.Logger
}

// NewImageService creates a new image service. maxBytes <= 0 selects
// DefaultMaxImageBytes.
func NewImageService(storage StorageService, events EventStore, maxBytes int64, logger *slog.Logger) *ImageService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &ImageService{
		storage:  storage,
		events:   events,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// MaxBytes returns the largest accepted upload
func (s *ImageService) MaxBytes() int64 {
	return s.maxBytes
}

// UploadEventImage resizes an uploaded JPEG, PNG or GIF, stores it as JPEG and
// makes it the event's image. The previous stored image is removed.
func (s *ImageService) UploadEventImage(ctx context.Context, caller *models.User, eventID int, reader io.Reader) (*models.Event, error) {
	event, err := s.authorizeOwner(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(reader, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) == 0 {
		return nil, models.NewValidationError("image file is required")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, models.NewValidationError("image must be at most %d bytes", s.maxBytes)
	}

	processed, err := processImage(data, EventImageVariant)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("events/%d/%s.jpg", eventID, uuid.NewString())
	url, err := s.storage.Upload(ctx, key, bytes.NewReader(processed), "image/jpeg", int64(len(processed)))
	if err != nil {
		return nil, fmt.Errorf("failed to store event image: %w", err)
	}

	updated, err := s.events.SetImage(ctx, eventID, url)
	if err != nil {
		s.deleteKey(ctx, key)
		return nil, err
	}

	s.logger.Info("event image updated", "event_id", eventID, "user_id", caller.ID, "bytes", len(processed))
	s.DiscardStored(ctx, event.ImageURL)
	return updated, nil
}

// RemoveEventImage clears the event's image and deletes the stored file
func (s *ImageService) RemoveEventImage(ctx context.Context, caller *models.User, eventID int) (*models.Event, error) {
	event, err := s.authorizeOwner(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	if event.ImageURL == "" {
		return event, nil
	}

	updated, err := s.events.SetImage(ctx, eventID, "")
	if err != nil {
		return nil, err
	}
	s.DiscardStored(ctx, event.ImageURL)
	return updated, nil
}

// DiscardStored deletes the file behind imageURL when it lives in our
// storage. External URLs are left alone.
func (s *ImageService) DiscardStored(ctx context.Context, imageURL string) {
	if imageURL == "" {
		return
	}
	if key, ok := s.storage.KeyForURL(imageURL); ok {
		s.deleteKey(ctx, key)
	}
}

func (s *ImageService) deleteKey(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete stored image", "key", key, "error", err)
	}
}

func (s *ImageService) authorizeOwner(ctx context.Context, caller *models.User, eventID int) (*models.Event, error) {
	if caller == nil {
		return nil, models.ErrUnauthenticated
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(caller, OwnerOrAdmin(event.OrganizerID)).Err(); err != nil {
		return nil, err
	}
	if event.OrganizerID != caller.ID {
		return nil, models.NewAuthorizationError("administrators may only change an event's status")
	}
	return event, nil
}

// processImage decodes data, fits it into variant and re-encodes it as JPEG.
// Re-encoding drops metadata such as EXIF location.
func processImage(data []byte, variant ImageVariantConfig) ([]byte, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, models.NewValidationError("image must be a JPEG, PNG or GIF file")
	}
	if !isValidImageFormat(format) {
		return nil, models.NewValidationError("unsupported image format: %s", format)
	}
	if cfg.Width*cfg.Height > maxImagePixels {
		return nil, models.NewValidationError("image dimensions %dx%d are too large", cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, models.NewValidationError("image could not be decoded")
	}

	bounds := img.Bounds()
	if bounds.Dx() > variant.Width || bounds.Dy() > variant.Height {
		img = imaging.Fit(img, variant.Width, variant.Height, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(imageQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func isValidImageFormat(format string) bool {
	switch format {
	case "jpeg", "png", "gif":
		return true
	}
	return false
}
