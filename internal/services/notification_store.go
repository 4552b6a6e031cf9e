package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/models"
)

const notificationColumns = `id, record_kind, record_id, recipient_id, event_type, occurrence,
	title, message, is_read, read_at, is_email_sent, email_sent_at, created_at`

// NotificationStore is the Postgres NotificationRepository
type NotificationStore struct {
	db     DB
	logger *zap.SugaredLogger
}

// NewNotificationStore creates a new notification store
func NewNotificationStore(db DB, logger *zap.SugaredLogger) *NotificationStore {
	return &NotificationStore{db: db, logger: logger}
}

// Insert relies on the unique key (record_kind, record_id, recipient_id, event_type, occurrence)
// so concurrent dispatches of the same event create one row.
func (s *NotificationStore) Insert(ctx context.Context, n *models.Notification) (bool, error) {
	query := `
		INSERT INTO notifications (id, record_kind, record_id, recipient_id, event_type, occurrence, title, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (record_kind, record_id, recipient_id, event_type, occurrence) DO NOTHING
		RETURNING id
	`
	var id uuid.UUID
	err := s.db.QueryRow(ctx, query,
		n.ID, n.RecordKind, n.RecordID, n.RecipientID, n.EventType, n.Occurrence,
		n.Title, n.Message, n.CreatedAt,
	).Scan(&id)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("insert notification: %w", err)
	}

	existing := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE record_kind = $1 AND record_id = $2 AND recipient_id = $3 AND event_type = $4 AND occurrence = $5
	`
	stored, err := scanNotification(s.db.QueryRow(ctx, existing,
		n.RecordKind, n.RecordID, n.RecipientID, n.EventType, n.Occurrence))
	if err != nil {
		return false, fmt.Errorf("select existing notification: %w", err)
	}
	*n = *stored
	return false, nil
}

// MarkEmailSent stamps a successful email delivery
func (s *NotificationStore) MarkEmailSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.Exec(ctx,
		"UPDATE notifications SET is_email_sent = TRUE, email_sent_at = $2 WHERE id = $1 AND NOT is_email_sent",
		id, at)
	if err != nil {
		return fmt.Errorf("mark email sent: %w", err)
	}
	return nil
}

// MarkRead sets is_read for the recipient's notification; already-read is a no-op
func (s *NotificationStore) MarkRead(ctx context.Context, id, recipient uuid.UUID, at time.Time) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE notifications SET is_read = TRUE, read_at = $3 WHERE id = $1 AND recipient_id = $2 AND NOT is_read",
		id, recipient, at)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = s.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM notifications WHERE id = $1 AND recipient_id = $2)",
		id, recipient).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check notification: %w", err)
	}
	if !exists {
		return models.ErrNotFound
	}
	return nil
}

// ListForRecipient returns the inbox newest first
func (s *NotificationStore) ListForRecipient(ctx context.Context, recipient uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_id = $1 AND ($2 = FALSE OR is_read = FALSE)
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := s.db.Query(ctx, query, recipient, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("select notifications: %w", err)
	}
	defer rows.Close()

	out := make([]models.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			s.logger.Warnw("Skipping unreadable notification row", "error", err)
			continue
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// CountUnread returns the number of unread notifications of a recipient
func (s *NotificationStore) CountUnread(ctx context.Context, recipient uuid.UUID) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT is_read",
		recipient).Scan(&count)
	return count, err
}

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	err := row.Scan(&n.ID, &n.RecordKind, &n.RecordID, &n.RecipientID, &n.EventType, &n.Occurrence,
		&n.Title, &n.Message, &n.IsRead, &n.ReadAt, &n.IsEmailSent, &n.EmailSentAt, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
