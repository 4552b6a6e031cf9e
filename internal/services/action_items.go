package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/events"
	"github.com/aawaaz/ehs-server/internal/lifecycle"
	"github.com/aawaaz/ehs-server/internal/models"
)

// ActionItemService manages corrective actions. Every mutation publishes
// events.ActionItemChanged after the write, which drives re-aggregation.
type ActionItemService struct {
	records RecordRepository
	items   ActionItemRepository
	bus     *events.Bus
	clock   Clock
	logger  *zap.SugaredLogger
}

// NewActionItemService creates a new action item service
func NewActionItemService(records RecordRepository, items ActionItemRepository, bus *events.Bus, clock Clock, logger *zap.SugaredLogger) *ActionItemService {
	return &ActionItemService{records: records, items: items, bus: bus, clock: clock, logger: logger}
}

// Create attaches a new action item to a record
func (s *ActionItemService) Create(ctx context.Context, recordID uuid.UUID, in *models.ActionItemInput, actor uuid.UUID) (*models.ActionItem, error) {
	rec, err := s.records.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := openForItems(rec); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = models.ItemPending
	}
	if err := validateItem(in); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	item := &models.ActionItem{
		ID:        uuid.New(),
		RecordID:  recordID,
		CreatedBy: actor,
		CreatedAt: now,
	}
	apply(item, in, now)

	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create action item: %w", err)
	}
	s.logger.Infow("Action item created",
		"report_number", rec.ReportNumber,
		"item_id", item.ID,
		"status", item.Status,
	)
	s.publish(ctx, item, events.ItemCreated)
	if item.Status == models.ItemCompleted {
		s.publish(ctx, item, events.ItemCompleted)
	}
	return item, nil
}

// Update replaces the mutable fields of an action item
func (s *ActionItemService) Update(ctx context.Context, id uuid.UUID, in *models.ActionItemInput) (*models.ActionItem, error) {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOpen(ctx, item.RecordID); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = item.Status
		if in.Status == models.ItemOverdue {
			in.Status = models.ItemPending
		}
	}
	if err := validateItem(in); err != nil {
		return nil, err
	}

	wasCompleted := item.Status == models.ItemCompleted
	apply(item, in, s.clock.Now())

	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}

	change := events.ItemUpdated
	if !wasCompleted && item.Status == models.ItemCompleted {
		change = events.ItemCompleted
	}
	s.publish(ctx, item, change)
	return item, nil
}

// Delete removes an action item and re-aggregates its record
func (s *ActionItemService) Delete(ctx context.Context, id uuid.UUID) error {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ensureOpen(ctx, item.RecordID); err != nil {
		return err
	}
	if err := s.items.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Infow("Action item deleted", "item_id", id, "record_id", item.RecordID)
	s.publish(ctx, item, events.ItemDeleted)
	return nil
}

// List returns the items of a record with overdue recomputed for today
func (s *ActionItemService) List(ctx context.Context, recordID uuid.UUID) ([]models.ActionItem, error) {
	items, err := s.items.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	today := s.clock.Now()
	for i := range items {
		items[i].Status = lifecycle.EffectiveStatus(items[i], today)
	}
	return items, nil
}

func (s *ActionItemService) ensureOpen(ctx context.Context, recordID uuid.UUID) error {
	rec, err := s.records.Get(ctx, recordID)
	if err != nil {
		return err
	}
	return openForItems(rec)
}

// closed and rejected records freeze their action items
func openForItems(rec *models.Record) error {
	if !rec.Status.Terminal() {
		return nil
	}
	return &models.ValidationError{
		Field:   "record_id",
		Message: fmt.Sprintf("record %s is %s and accepts no action item changes", rec.ReportNumber, rec.Status),
		Err:     models.ErrTerminalState,
	}
}

func (s *ActionItemService) publish(ctx context.Context, item *models.ActionItem, change events.ItemChange) {
	s.bus.Publish(ctx, events.Event{
		Topic:      events.ActionItemChanged,
		RecordID:   item.RecordID,
		Item:       item,
		ItemChange: change,
	})
}

func validateItem(in *models.ActionItemInput) error {
	switch {
	case strings.TrimSpace(in.Description) == "":
		return models.Invalid("description", "required")
	case !in.Status.Valid():
		return models.Invalid("status", "must be pending, in_progress or completed")
	case in.TargetDate.IsZero():
		return models.Invalid("target_date", "required")
	}
	return nil
}

func apply(item *models.ActionItem, in *models.ActionItemInput, now time.Time) {
	item.Description = strings.TrimSpace(in.Description)
	item.ResponsiblePerson = in.ResponsiblePerson
	item.Status = in.Status
	item.TargetDate = in.TargetDate
	item.Remarks = in.Remarks
	item.AttachmentURL = in.AttachmentURL
	item.UpdatedAt = now

	switch {
	case in.Status != models.ItemCompleted:
		item.CompletionDate = nil
	case in.CompletionDate != nil:
		item.CompletionDate = in.CompletionDate
	case item.CompletionDate == nil:
		item.CompletionDate = &now
	}
}
