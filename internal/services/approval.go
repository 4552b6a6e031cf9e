package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/events"
	"github.com/aawaaz/ehs-server/internal/lifecycle"
	"github.com/aawaaz/ehs-server/internal/models"
)

// ApprovalWorkflow gates records out of the pre-approval phase
type ApprovalWorkflow struct {
	records RecordRepository
	bus     *events.Bus
	clock   Clock
	logger  *zap.SugaredLogger
}

// NewApprovalWorkflow creates a new approval workflow
func NewApprovalWorkflow(records RecordRepository, bus *events.Bus, clock Clock, logger *zap.SugaredLogger) *ApprovalWorkflow {
	return &ApprovalWorkflow{records: records, bus: bus, clock: clock, logger: logger}
}

// Submit moves a reported record to pending_approval
func (w *ApprovalWorkflow) Submit(ctx context.Context, id uuid.UUID) (*models.Record, error) {
	return w.records.Mutate(ctx, id, func(rec *models.Record, _ []models.ActionItem) (bool, error) {
		return true, lifecycle.Submit(rec)
	})
}

// Approve sets the record approved. Action items added before approval are
// aggregated right after the decision commits.
func (w *ApprovalWorkflow) Approve(ctx context.Context, id, approver uuid.UUID, remarks string) (*models.Record, error) {
	at := w.clock.Now()
	rec, err := w.records.Mutate(ctx, id, func(rec *models.Record, _ []models.ActionItem) (bool, error) {
		return true, lifecycle.Approve(rec, approver, remarks, at)
	})
	if err != nil {
		return nil, err
	}
	w.decided(ctx, rec)
	return rec, nil
}

// Reject terminates the record; remarks are mandatory
func (w *ApprovalWorkflow) Reject(ctx context.Context, id, approver uuid.UUID, remarks string) (*models.Record, error) {
	at := w.clock.Now()
	rec, err := w.records.Mutate(ctx, id, func(rec *models.Record, _ []models.ActionItem) (bool, error) {
		return true, lifecycle.Reject(rec, approver, remarks, at)
	})
	if err != nil {
		return nil, err
	}
	w.decided(ctx, rec)
	return rec, nil
}

func (w *ApprovalWorkflow) decided(ctx context.Context, rec *models.Record) {
	w.logger.Infow("Approval decided",
		"report_number", rec.ReportNumber,
		"approval_status", rec.ApprovalStatus,
		"approved_by", rec.ApprovedBy,
	)
	w.bus.Publish(ctx, events.Event{Topic: events.ApprovalDecided, RecordID: rec.ID, Record: rec})
}
