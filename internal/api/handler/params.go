package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/clearskies/clearskies/internal/api/models"
)

// queryInt parses an optional integer query parameter within [min, max].
// A missing parameter returns def.
func queryInt(r *http.Request, name string, def, min, max int) (int, *models.FieldError) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &models.FieldError{Field: name, Message: "must be an integer", Code: "INVALID"}
	}
	if n < min || n > max {
		return 0, &models.FieldError{
			Field:   name,
			Message: "must be between " + strconv.Itoa(min) + " and " + strconv.Itoa(max),
			Code:    "OUT_OF_RANGE",
		}
	}
	return n, nil
}

// queryFloat parses an optional float query parameter. NaN is passed
// through for the caller to reject.
func queryFloat(r *http.Request, name string, def float64) (float64, *models.FieldError) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &models.FieldError{Field: name, Message: "must be a number", Code: "INVALID"}
	}
	return f, nil
}
