package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/mail"
	"github.com/aawaaz/ehs-server/internal/models"
)

// Dispatcher persists one notification per stakeholder and hands off email.
// Each recipient is processed independently: a failure for one never blocks
// the in-app notification or the remaining recipients.
type Dispatcher struct {
	notifications NotificationRepository
	sender        mail.Sender
	renderer      *Renderer
	clock         Clock
	logger        *zap.SugaredLogger
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(notifications NotificationRepository, sender mail.Sender, renderer *Renderer, clock Clock, logger *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		sender:        sender,
		renderer:      renderer,
		clock:         clock,
		logger:        logger,
	}
}

// Dispatch delivers notice to every stakeholder. It never returns an error:
// problems are reported per recipient in the report.
func (d *Dispatcher) Dispatch(ctx context.Context, notice models.Notice, stakeholders []models.Stakeholder) models.DispatchReport {
	var report models.DispatchReport

	// fully rendered before anything is stored
	content, err := d.renderer.Render(notice)
	if err != nil {
		d.logger.Errorw("Failed to render notification",
			"event", notice.Type,
			"error", err,
		)
		for _, s := range stakeholders {
			report.Failures = append(report.Failures, failure(s, err))
		}
		return report
	}

	for _, s := range stakeholders {
		d.deliver(ctx, notice, content, s, &report)
	}

	d.logger.Infow("Notifications dispatched",
		"event", notice.Type,
		"report_number", notice.Record.ReportNumber,
		"stakeholders", len(stakeholders),
		"created", report.Created,
		"skipped", report.Skipped,
		"emailed", report.Emailed,
		"queued", report.Queued,
		"failures", len(report.Failures),
	)
	return report
}

func (d *Dispatcher) deliver(ctx context.Context, notice models.Notice, content Rendered, s models.Stakeholder, report *models.DispatchReport) {
	defer func() {
		if r := recover(); r != nil {
			report.Failures = append(report.Failures, failure(s, fmt.Errorf("panic: %v", r)))
		}
	}()

	n := &models.Notification{
		ID:          uuid.New(),
		RecordKind:  notice.Record.Kind,
		RecordID:    notice.Record.ID,
		RecipientID: s.User.ID,
		EventType:   notice.Type,
		Occurrence:  notice.Occurrence,
		Title:       content.Title,
		Message:     content.Body,
		CreatedAt:   d.clock.Now(),
	}
	created, err := d.notifications.Insert(ctx, n)
	if err != nil {
		d.logger.Errorw("Failed to store notification",
			"recipient", s.User.ID,
			"event", notice.Type,
			"error", err,
		)
		report.Failures = append(report.Failures, failure(s, err))
		return
	}
	if created {
		report.Created++
	} else {
		report.Skipped++
	}

	if !s.EmailEnabled || n.IsEmailSent || s.User.Email == "" {
		return
	}

	outcome, err := d.sender.Deliver(ctx, mail.Message{
		NotificationID: n.ID,
		To:             s.User.Email,
		Subject:        content.Title,
		Body:           content.Body,
		HTMLBody:       content.HTMLBody,
	})
	if err != nil {
		d.logger.Warnw("Email delivery failed",
			"recipient", s.User.ID,
			"event", notice.Type,
			"error", err,
		)
		report.Failures = append(report.Failures, failure(s, err))
		return
	}

	if outcome == mail.Queued {
		report.Queued++
		return
	}
	report.Emailed++
	if err := d.notifications.MarkEmailSent(ctx, n.ID, d.clock.Now()); err != nil {
		d.logger.Errorw("Failed to stamp email sent",
			"notification_id", n.ID,
			"error", err,
		)
	}
}

func failure(s models.Stakeholder, err error) models.DeliveryFailure {
	return models.DeliveryFailure{RecipientID: s.User.ID, Email: s.User.Email, Error: err.Error()}
}
