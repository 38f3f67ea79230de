// Package handler provides the HTTP request handlers of the orchestration
// API.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/roosterd/roosterd/pkg/errors"
	"github.com/roosterd/roosterd/pkg/model"
)

// dateFormat is the wire format of civil dates.
const dateFormat = "2006-01-02"

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, err error) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.CodeInternal, "internal error")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
		"fields":  appErr.Fields,
	})
}

// pathUUID parses the named path segment as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, *apperrors.AppError) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "invalid "+name)
	}
	return id, nil
}

// queryProduct parses an optional product query parameter, accepting wire
// aliases. Absent means all products.
func queryProduct(r *http.Request) (model.Product, *apperrors.AppError) {
	raw := r.URL.Query().Get("product")
	if raw == "" {
		return "", nil
	}
	p, ok := model.ParseProduct(raw)
	if !ok {
		return "", apperrors.UnknownProduct(raw)
	}
	return p, nil
}

// queryDate parses a YYYY-MM-DD query parameter in the given zone, falling
// back to a default when absent.
func queryDate(r *http.Request, name string, loc *time.Location, fallback time.Time) (time.Time, *apperrors.AppError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	t, err := time.ParseInLocation(dateFormat, raw, loc)
	if err != nil {
		return time.Time{}, apperrors.Wrap(err, apperrors.CodeInvalidInput,
			name+" must be a YYYY-MM-DD date")
	}
	return t, nil
}
