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

// RecordService handles incident and hazard reporting
type RecordService struct {
	records   RecordRepository
	items     ActionItemRepository
	deadlines lifecycle.DeadlinePolicy
	bus       *events.Bus
	clock     Clock
	logger    *zap.SugaredLogger
}

// NewRecordService creates a new record service
func NewRecordService(records RecordRepository, items ActionItemRepository, deadlines lifecycle.DeadlinePolicy, bus *events.Bus, clock Clock, logger *zap.SugaredLogger) *RecordService {
	return &RecordService{
		records:   records,
		items:     items,
		deadlines: deadlines,
		bus:       bus,
		clock:     clock,
		logger:    logger,
	}
}

// Create validates and stores a new record in the reported state
func (s *RecordService) Create(ctx context.Context, sub *models.RecordSubmission, reporter uuid.UUID) (*models.Record, error) {
	now := s.clock.Now()
	if err := validateSubmission(sub, now); err != nil {
		return nil, err
	}
	if err := s.records.ValidateLocation(ctx, sub); err != nil {
		return nil, err
	}

	reportDate := now
	if sub.ReportDate != nil {
		reportDate = *sub.ReportDate
	}

	rec := &models.Record{
		ID:             uuid.New(),
		Kind:           sub.Kind,
		Title:          strings.TrimSpace(sub.Title),
		Category:       sub.Category,
		Severity:       sub.Severity,
		PlantID:        sub.PlantID,
		ZoneID:         sub.ZoneID,
		LocationID:     sub.LocationID,
		SublocationID:  sub.SublocationID,
		Department:     sub.Department,
		Status:         models.StatusReported,
		ApprovalStatus: models.ApprovalPending,
		ReportDate:     reportDate,
		Deadline:       s.deadlines.Deadline(sub.Kind, sub.Severity, reportDate),
		ReportedBy:     reporter,
		AssignedTo:     sub.AssignedTo,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	s.logger.Infow("Record reported",
		"report_number", rec.ReportNumber,
		"kind", rec.Kind,
		"severity", rec.Severity,
		"deadline", lifecycle.DateString(rec.Deadline),
	)
	s.bus.Publish(ctx, events.Event{Topic: events.RecordCreated, RecordID: rec.ID, Record: rec})
	return rec, nil
}

// Get returns one record
func (s *RecordService) Get(ctx context.Context, id uuid.UUID) (*models.Record, error) {
	return s.records.Get(ctx, id)
}

// Close closes a resolved record
func (s *RecordService) Close(ctx context.Context, id, closer uuid.UUID) (*models.Record, error) {
	at := s.clock.Now()
	rec, err := s.records.Mutate(ctx, id, func(rec *models.Record, _ []models.ActionItem) (bool, error) {
		return true, lifecycle.Close(rec, closer, at)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("Record closed", "report_number", rec.ReportNumber, "closed_by", closer)
	s.bus.Publish(ctx, events.Event{Topic: events.RecordClosed, RecordID: rec.ID, Record: rec})
	return rec, nil
}

func validateSubmission(sub *models.RecordSubmission, now time.Time) error {
	switch {
	case !sub.Kind.Valid():
		return models.Invalid("kind", "must be incident or hazard")
	case strings.TrimSpace(sub.Title) == "":
		return models.Invalid("title", "required")
	case !sub.Severity.Valid():
		return models.Invalid("severity", "must be one of low, medium, high, critical")
	case sub.PlantID == uuid.Nil:
		return models.Invalid("plant_id", "required")
	case sub.SublocationID != nil && sub.LocationID == nil:
		return models.Invalid("location_id", "required when sublocation is set")
	case sub.LocationID != nil && sub.ZoneID == nil:
		return models.Invalid("zone_id", "required when location is set")
	case sub.ReportDate != nil && lifecycle.DateAfter(*sub.ReportDate, now):
		return models.Invalid("report_date", "cannot be in the future")
	}
	return nil
}
