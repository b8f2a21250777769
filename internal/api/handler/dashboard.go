package handler

import (
	"context"
	"net/http"

	"github.com/clearskies/clearskies/internal/api/response"
	"github.com/clearskies/clearskies/internal/dashboard"
)

// DashboardBuilder builds the aggregated dashboard view.
type DashboardBuilder interface {
	Build(ctx context.Context) *dashboard.View
}

// DashboardHandler handles the aggregated dashboard endpoint.
type DashboardHandler struct {
	builder DashboardBuilder
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(builder DashboardBuilder) *DashboardHandler {
	return &DashboardHandler{builder: builder}
}

// GetDashboard handles GET /v1/dashboard. Failed sources are null in the
// body and listed in sources; the response is still 200.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	view := h.builder.Build(r.Context())
	response.JSON(w, r, http.StatusOK, toDashboard(view))
}
