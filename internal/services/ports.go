// Package services contains business logic layers.
// Services are called by handlers and workers and reach storage through the
// repository interfaces declared here.
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aawaaz/ehs-server/internal/models"
)

// DB is the subset of *pgxpool.Pool used by the Postgres stores
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RecordRepository persists incident and hazard records
type RecordRepository interface {
	// Create assigns the report number and stores rec
	Create(ctx context.Context, rec *models.Record) error
	Get(ctx context.Context, id uuid.UUID) (*models.Record, error)
	// Mutate locks the record row, loads its action items and runs fn in one
	// transaction. Lifecycle columns are written back only if fn reports a change.
	Mutate(ctx context.Context, id uuid.UUID, fn models.RecordMutation) (*models.Record, error)
	// ListPastDeadline returns records still needing action whose deadline is before today
	ListPastDeadline(ctx context.Context, today time.Time) ([]models.Record, error)
	// ListWithLateItems returns ids of post-approval records holding open items past target date
	ListWithLateItems(ctx context.Context, today time.Time) ([]uuid.UUID, error)
	// ValidateLocation checks sublocation ⊆ location ⊆ zone ⊆ plant
	ValidateLocation(ctx context.Context, sub *models.RecordSubmission) error
}

// ActionItemRepository persists corrective actions
type ActionItemRepository interface {
	Create(ctx context.Context, item *models.ActionItem) error
	Get(ctx context.Context, id uuid.UUID) (*models.ActionItem, error)
	Update(ctx context.Context, item *models.ActionItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByRecord(ctx context.Context, recordID uuid.UUID) ([]models.ActionItem, error)
}

// Directory lists users by role and location
type Directory interface {
	ListActiveUsersByRole(ctx context.Context, role models.Role, filter models.LocationFilter) ([]models.User, error)
	ListSuperusers(ctx context.Context) ([]models.User, error)
}

// RuleSource returns the active notification rules for an event type
type RuleSource interface {
	ActiveRules(ctx context.Context, event models.EventType) ([]models.NotificationRule, error)
}

// RuleAdmin is a RuleSource whose rules can be listed and replaced
type RuleAdmin interface {
	RuleSource
	List(ctx context.Context) ([]models.NotificationRule, error)
	// Upsert creates or replaces the rule for (role, event type)
	Upsert(ctx context.Context, r *models.NotificationRule) error
}

// NotificationRepository persists in-app notifications
type NotificationRepository interface {
	// Insert stores n unless a row with the same (record, recipient, event, occurrence)
	// exists. On conflict n is refreshed from the stored row and created is false.
	Insert(ctx context.Context, n *models.Notification) (created bool, err error)
	MarkEmailSent(ctx context.Context, id uuid.UUID, at time.Time) error
	// MarkRead sets is_read once. Repeated calls are no-ops.
	MarkRead(ctx context.Context, id, recipient uuid.UUID, at time.Time) error
	ListForRecipient(ctx context.Context, recipient uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, recipient uuid.UUID) (int64, error)
}

// Clock supplies "now" so overdue computation is deterministic in tests
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location
type SystemClock struct {
	Location *time.Location
}

// Now returns the current time in the clock's location
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}
