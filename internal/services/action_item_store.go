package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/models"
)

// ActionItemStore is the Postgres ActionItemRepository
type ActionItemStore struct {
	db     DB
	logger *zap.SugaredLogger
}

// NewActionItemStore creates a new action item store
func NewActionItemStore(db DB, logger *zap.SugaredLogger) *ActionItemStore {
	return &ActionItemStore{db: db, logger: logger}
}

// Create inserts a new action item
func (s *ActionItemStore) Create(ctx context.Context, item *models.ActionItem) error {
	query := `
		INSERT INTO action_items (` + actionItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.Exec(ctx, query,
		item.ID, item.RecordID, item.Description, item.ResponsiblePerson, item.Status,
		item.TargetDate, item.CompletionDate, item.Remarks, item.AttachmentURL, item.CreatedBy,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert action item: %w", err)
	}
	return nil
}

// Get loads one action item
func (s *ActionItemStore) Get(ctx context.Context, id uuid.UUID) (*models.ActionItem, error) {
	item, err := scanActionItem(s.db.QueryRow(ctx, "SELECT "+actionItemColumns+" FROM action_items WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select action item: %w", err)
	}
	return item, nil
}

// Update writes the mutable fields of an action item
func (s *ActionItemStore) Update(ctx context.Context, item *models.ActionItem) error {
	query := `
		UPDATE action_items
		SET description = $2, responsible_person = $3, status = $4, target_date = $5,
			completion_date = $6, remarks = $7, attachment_url = $8, updated_at = $9
		WHERE id = $1
	`
	tag, err := s.db.Exec(ctx, query,
		item.ID, item.Description, item.ResponsiblePerson, item.Status, item.TargetDate,
		item.CompletionDate, item.Remarks, item.AttachmentURL, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update action item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes an action item
func (s *ActionItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM action_items WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete action item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListByRecord returns the action items of a record ordered by target date
func (s *ActionItemStore) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]models.ActionItem, error) {
	return listActionItems(ctx, s.db, recordID)
}
