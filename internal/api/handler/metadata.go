package handler

import (
	"net/http"

	"github.com/clearskies/clearskies/internal/alert"
	"github.com/clearskies/clearskies/internal/api/response"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct {
	defaultThreshold float64
}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler(defaultThreshold float64) *MetadataHandler {
	if defaultThreshold == 0 {
		defaultThreshold = alert.DefaultThreshold
	}
	return &MetadataHandler{defaultThreshold: defaultThreshold}
}

// GetEnums handles GET /v1/metadata/enums - get enum values used by the API.
func (h *MetadataHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, toEnums(h.defaultThreshold))
}
