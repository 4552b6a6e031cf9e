package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aawaaz/ehs-server/internal/models"
)

// Notifications implements services.NotificationRepository
type Notifications struct{ s *Store }

func sameKey(a, b models.Notification) bool {
	return a.RecordKind == b.RecordKind && a.RecordID == b.RecordID && a.RecipientID == b.RecipientID &&
		a.EventType == b.EventType && a.Occurrence == b.Occurrence
}

// Insert stores n unless its key already exists
func (r *Notifications) Insert(_ context.Context, n *models.Notification) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.notifications {
		if sameKey(existing, *n) {
			*n = existing
			return false, nil
		}
	}
	r.s.notifications[n.ID] = *n
	return true, nil
}

// MarkEmailSent stamps a delivered email
func (r *Notifications) MarkEmailSent(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return models.ErrNotFound
	}
	if !n.IsEmailSent {
		n.IsEmailSent = true
		n.EmailSentAt = &at
		r.s.notifications[id] = n
	}
	return nil
}

// MarkRead sets is_read once
func (r *Notifications) MarkRead(_ context.Context, id, recipient uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.RecipientID != recipient {
		return models.ErrNotFound
	}
	if !n.IsRead {
		n.IsRead = true
		n.ReadAt = &at
		r.s.notifications[id] = n
	}
	return nil
}

// ListForRecipient returns the inbox newest first
func (r *Notifications) ListForRecipient(_ context.Context, recipient uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Notification, 0)
	for _, n := range r.s.notifications {
		if n.RecipientID != recipient || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountUnread returns the unread count of a recipient
func (r *Notifications) CountUnread(_ context.Context, recipient uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var c int64
	for _, n := range r.s.notifications {
		if n.RecipientID == recipient && !n.IsRead {
			c++
		}
	}
	return c, nil
}

// All returns every stored notification
func (r *Notifications) All() []models.Notification {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Notification, 0, len(r.s.notifications))
	for _, n := range r.s.notifications {
		out = append(out, n)
	}
	return out
}
