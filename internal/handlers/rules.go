package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/models"
	"github.com/aawaaz/ehs-server/internal/services"
)

// RuleHandler exposes the notification rule table to administrators
type RuleHandler struct {
	rules  services.RuleAdmin
	logger *zap.SugaredLogger
}

// NewRuleHandler creates a new rule handler
func NewRuleHandler(rules services.RuleAdmin, logger *zap.SugaredLogger) *RuleHandler {
	return &RuleHandler{rules: rules, logger: logger}
}

// List handles GET /api/v1/rules
func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rules.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch rules")
		return
	}
	if rules == nil {
		rules = []models.NotificationRule{}
	}
	respondJSON(w, http.StatusOK, rules)
}

// Upsert handles PUT /api/v1/rules. The (role, event_type) pair identifies the rule.
func (h *RuleHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req models.NotificationRule
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.rules.Upsert(r.Context(), &req); err != nil {
		respondServiceError(w, h.logger, err, "Failed to save rule")
		return
	}
	h.logger.Infow("Notification rule saved",
		"event", req.EventType,
		"role", req.Role,
		"active", req.Active,
	)
	respondJSON(w, http.StatusOK, req)
}
