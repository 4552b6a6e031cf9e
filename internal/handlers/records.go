package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/models"
	"github.com/aawaaz/ehs-server/internal/services"
)

// RecordHandler handles incident and hazard endpoints
type RecordHandler struct {
	records   *services.RecordService
	approvals *services.ApprovalWorkflow
	logger    *zap.SugaredLogger
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(records *services.RecordService, approvals *services.ApprovalWorkflow, logger *zap.SugaredLogger) *RecordHandler {
	return &RecordHandler{records: records, approvals: approvals, logger: logger}
}

// Create handles POST /api/v1/records
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}
	var req models.RecordSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.records.Create(r.Context(), &req, caller.ID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to report record")
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

// Get handles GET /api/v1/records/{id}
func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid record id")
		return
	}
	rec, err := h.records.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch record")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// Submit handles POST /api/v1/records/{id}/submit
func (h *RecordHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid record id")
		return
	}
	rec, err := h.approvals.Submit(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to submit record")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// Approve handles POST /api/v1/records/{id}/approve
func (h *RecordHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.approvals.Approve)
}

// Reject handles POST /api/v1/records/{id}/reject. Remarks are required.
func (h *RecordHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.approvals.Reject)
}

type decisionFunc func(ctx context.Context, id, approver uuid.UUID, remarks string) (*models.Record, error)

func (h *RecordHandler) decide(w http.ResponseWriter, r *http.Request, decide decisionFunc) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid record id")
		return
	}
	var req models.Decision
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	rec, err := decide(r.Context(), id, caller.ID, req.Remarks)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to record approval decision")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// Close handles POST /api/v1/records/{id}/close
func (h *RecordHandler) Close(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid record id")
		return
	}
	rec, err := h.records.Close(r.Context(), id, caller.ID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to close record")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}
