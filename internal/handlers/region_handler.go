package handlers

import (
	"errors"
	"net/http"

	"github.com/georegions/regions/internal/middleware"
	"github.com/georegions/regions/internal/models"
	"github.com/georegions/regions/internal/query"
	"github.com/georegions/regions/internal/services"
	"github.com/georegions/regions/pkg/logger"
)

// RegionHandler serves the regions listing endpoint.
type RegionHandler struct {
	service services.RegionService
	log     *logger.Logger
}

// NewRegionHandler creates a new RegionHandler. A nil log discards output.
func NewRegionHandler(svc services.RegionService, log *logger.Logger) *RegionHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RegionHandler{service: svc, log: log}
}

// List handles GET /1.0/regions requests.
func (h *RegionHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), r.URL.Query())
	if err != nil {
		status, resp := h.mapErrorToResponse(r, err)
		writeJSON(w, status, resp)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// mapErrorToResponse maps validation failures to 400 and everything else to
// 500. Internal error details are logged, not returned.
func (h *RegionHandler) mapErrorToResponse(r *http.Request, err error) (int, models.ErrorResponse) {
	id := middleware.ErrorID(r.Context())

	var verr *query.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, models.NewErrorResponse(id, verr.Message)
	}

	h.log.Error("failed to list regions",
		"error", err,
		"request_id", id,
		"query", r.URL.RawQuery,
	)
	return http.StatusInternalServerError, models.NewErrorResponse(id, http.StatusText(http.StatusInternalServerError))
}
