package lifecycle

import (
	"time"

	"github.com/aawaaz/ehs-server/internal/models"
)

// DeadlinePolicy derives the investigation/action deadline of a record.
// Incidents follow the severity table; hazards use a fixed offset.
type DeadlinePolicy struct {
	BySeverity       map[models.Severity]int
	HazardOffsetDays int
}

// DefaultDeadlinePolicy returns the standard severity table
func DefaultDeadlinePolicy(hazardOffsetDays int) DeadlinePolicy {
	if hazardOffsetDays <= 0 {
		hazardOffsetDays = 7
	}
	return DeadlinePolicy{
		BySeverity: map[models.Severity]int{
			models.SeverityCritical: 1,
			models.SeverityHigh:     3,
			models.SeverityMedium:   7,
			models.SeverityLow:      14,
		},
		HazardOffsetDays: hazardOffsetDays,
	}
}

// Deadline returns the calendar date by which the record must be actioned
func (p DeadlinePolicy) Deadline(kind models.RecordKind, severity models.Severity, reportDate time.Time) time.Time {
	days := p.HazardOffsetDays
	if kind == models.KindIncident {
		if d, ok := p.BySeverity[severity]; ok {
			days = d
		}
	}
	y, m, d := reportDate.Date()
	return time.Date(y, m, d+days, 0, 0, 0, 0, reportDate.Location())
}

// Overdue reports whether the record deadline has passed and it still needs action
func Overdue(rec *models.Record, today time.Time) bool {
	switch rec.Status {
	case models.StatusResolved, models.StatusClosed, models.StatusRejected:
		return false
	}
	return DateAfter(today, rec.Deadline)
}
