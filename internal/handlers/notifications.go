package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/services"
)

// NotificationHandler serves the caller's in-app inbox
type NotificationHandler struct {
	inbox  *services.InboxService
	logger *zap.SugaredLogger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(inbox *services.InboxService, logger *zap.SugaredLogger) *NotificationHandler {
	return &NotificationHandler{inbox: inbox, logger: logger}
}

// List handles GET /api/v1/notifications?unread=true&limit=50
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}
	unread, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	list, err := h.inbox.List(r.Context(), caller.ID, unread, limit)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch notifications")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// UnreadCount handles GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}
	count, err := h.inbox.UnreadCount(r.Context(), caller.ID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to count notifications")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// MarkRead handles POST /api/v1/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid notification id")
		return
	}
	if err := h.inbox.MarkRead(r.Context(), id, caller.ID); err != nil {
		respondServiceError(w, h.logger, err, "Failed to mark notification read")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "read"})
}
