package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/events"
	"github.com/aawaaz/ehs-server/internal/lifecycle"
	"github.com/aawaaz/ehs-server/internal/models"
)

// Aggregator recomputes a record's status from its action items after every
// action item mutation.
type Aggregator struct {
	records RecordRepository
	bus     *events.Bus
	clock   Clock
	logger  *zap.SugaredLogger
}

// NewAggregator creates an aggregator and subscribes it to action item changes
// and to approvals
func NewAggregator(records RecordRepository, bus *events.Bus, clock Clock, logger *zap.SugaredLogger) *Aggregator {
	a := &Aggregator{records: records, bus: bus, clock: clock, logger: logger}
	bus.Subscribe(events.ActionItemChanged, func(ctx context.Context, ev events.Event) error {
		_, err := a.Recompute(ctx, ev.RecordID)
		return err
	})
	bus.Subscribe(events.ApprovalDecided, func(ctx context.Context, ev events.Event) error {
		if ev.Record == nil || ev.Record.ApprovalStatus != models.ApprovalApproved {
			return nil
		}
		_, err := a.Recompute(ctx, ev.RecordID)
		return err
	})
	return a
}

// Recompute counts the record's items against today and persists a new status
// if it changed, under the record's row lock. A missing record is a no-op.
func (a *Aggregator) Recompute(ctx context.Context, recordID uuid.UUID) (*models.Record, error) {
	var old models.Status
	var counts models.ActionItemCounts
	rec, err := a.records.Mutate(ctx, recordID, func(rec *models.Record, items []models.ActionItem) (bool, error) {
		old = rec.Status
		counts = lifecycle.Count(items, a.clock.Now())
		next := lifecycle.ComputeStatus(rec.Status, rec.ApprovalStatus, counts)
		if next == rec.Status {
			return false, nil
		}
		rec.Status = next
		return true, nil
	})
	if errors.Is(err, models.ErrNotFound) {
		a.logger.Infow("Aggregation skipped, record no longer exists", "record_id", recordID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if rec.Status != old {
		a.logger.Infow("Record status recomputed",
			"report_number", rec.ReportNumber,
			"from", old,
			"to", rec.Status,
			"total", counts.Total,
			"completed", counts.Completed,
			"active", counts.Active(),
		)
		a.bus.Publish(ctx, events.Event{
			Topic:     events.StatusChanged,
			RecordID:  rec.ID,
			Record:    rec,
			OldStatus: old,
			NewStatus: rec.Status,
		})
	}
	return rec, nil
}
