package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/models"
	"github.com/aawaaz/ehs-server/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ActionItemHandler handles corrective action endpoints
type ActionItemHandler struct {
	items   *services.ActionItemService
	records *services.RecordService
	clock   services.Clock
	logger  *zap.SugaredLogger
}

// NewActionItemHandler creates a new action item handler
func NewActionItemHandler(items *services.ActionItemService, records *services.RecordService, clock services.Clock, logger *zap.SugaredLogger) *ActionItemHandler {
	return &ActionItemHandler{items: items, records: records, clock: clock, logger: logger}
}

// Create handles POST /api/v1/records/{id}/action-items
func (h *ActionItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}
	recordID, ok := urlID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid record id")
		return
	}
	var req models.ActionItemInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.items.Create(r.Context(), recordID, &req, caller.ID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create action item")
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// List handles GET /api/v1/records/{id}/action-items
func (h *ActionItemHandler) List(w http.ResponseWriter, r *http.Request) {
	recordID, ok := urlID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid record id")
		return
	}
	items, err := h.items.List(r.Context(), recordID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch action items")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// Update handles PUT /api/v1/action-items/{itemID}
func (h *ActionItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "itemID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid action item id")
		return
	}
	var req models.ActionItemInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.items.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update action item")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /api/v1/action-items/{itemID}
func (h *ActionItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "itemID")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid action item id")
		return
	}
	if err := h.items.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete action item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /api/v1/records/{id}/action-items/export
func (h *ActionItemHandler) Export(w http.ResponseWriter, r *http.Request) {
	recordID, ok := urlID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid record id")
		return
	}
	rec, err := h.records.Get(r.Context(), recordID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch record")
		return
	}
	items, err := h.items.List(r.Context(), recordID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch action items")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-actions.xlsx"`, rec.ReportNumber))
	if err := services.WriteActionItemRegister(w, rec, items, h.clock.Now()); err != nil {
		h.logger.Errorw("Failed to export action items", "report_number", rec.ReportNumber, "error", err)
	}
}
