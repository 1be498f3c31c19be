package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"eventhub/internal/middleware"
	"eventhub/internal/models"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = models.NewValidationError("request body is required")

type errorResponse struct {
	Error            string `json:"error"`
	RemainingTickets *int   `json:"remaining_tickets,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// statusForKind maps an error kind to its HTTP status code
func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.KindValidation, models.KindState:
		return http.StatusBadRequest
	case models.KindAuthentication:
		return http.StatusUnauthorized
	case models.KindAuthorization:
		return http.StatusForbidden
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindCapacity, models.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError translates err into a JSON error response. Errors outside the
// taxonomy are logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *models.Error
	if !errors.As(err, &appErr) || appErr.Kind == models.KindInternal {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	body := errorResponse{Error: appErr.Message}
	if appErr.Kind == models.KindCapacity {
		body.RemainingTickets = appErr.Remaining
	}
	writeJSON(w, statusForKind(appErr.Kind), body)
}

// decodeJSON reads a JSON request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return models.NewValidationError("request body is too large")
		}
		return models.NewValidationError("invalid JSON body: %v", err)
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := decodeJSON(w, r, v); err != nil && !errors.Is(err, errEmptyBody) {
		return err
	}
	return nil
}

func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		return 0, models.NewValidationError("invalid %s", name)
	}
	return id, nil
}

func pageFromQuery(r *http.Request) (models.Page, error) {
	q := r.URL.Query()
	page, err := optionalInt(q.Get("page"), "page")
	if err != nil {
		return models.Page{}, err
	}
	limit, err := optionalInt(q.Get("limit"), "limit")
	if err != nil {
		return models.Page{}, err
	}
	return models.NewPage(page, limit), nil
}

func optionalInt(value, name string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, models.NewValidationError("%s must be an integer", name)
	}
	return n, nil
}

// optionalTime parses an RFC 3339 timestamp or a plain YYYY-MM-DD date
func optionalTime(value, name string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, models.NewValidationError("%s must be an RFC 3339 timestamp or a YYYY-MM-DD date", name)
}

type listResponse struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}
