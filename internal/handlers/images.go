package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"eventhub/internal/middleware"
	"eventhub/internal/models"
)

// UploadImage replaces the event image. The file is sent either as the
// "image" field of a multipart form or as a raw image/* body.
func (h *EventHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.images.MaxBytes()+maxBodyBytes)
	file, err := imageFromRequest(r)
	if err != nil {
		writeError(w, r, h.logger, uploadError(err))
		return
	}

	event, err := h.images.UploadEventImage(r.Context(), middleware.GetUserFromContext(r.Context()), id, file)
	if err != nil {
		writeError(w, r, h.logger, uploadError(err))
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// DeleteImage removes the event image
func (h *EventHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	event, err := h.images.RemoveEventImage(r.Context(), middleware.GetUserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func imageFromRequest(r *http.Request) (io.Reader, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, models.NewValidationError("Content-Type must be multipart/form-data or an image type")
	}

	switch {
	case mediaType == "multipart/form-data":
		mr, err := r.MultipartReader()
		if err != nil {
			return nil, models.NewValidationError("invalid multipart body: %v", err)
		}
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				return nil, models.NewValidationError("image file is required")
			}
			if err != nil {
				return nil, models.NewValidationError("invalid multipart body: %v", err)
			}
			if part.FormName() == "image" {
				return part, nil
			}
		}
	case strings.HasPrefix(mediaType, "image/"):
		return r.Body, nil
	default:
		return nil, models.NewValidationError("Content-Type must be multipart/form-data or an image type")
	}
}

// uploadError reports a body cut off by MaxBytesReader as a validation error
func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return models.NewValidationError("image is too large")
	}
	return err
}

// FileServer serves stored uploads. Directory listings are not exposed.
func FileServer(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "file not found"})
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		files.ServeHTTP(w, r)
	})
}
