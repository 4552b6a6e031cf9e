// Package lifecycle holds the pure state logic of incident and hazard records:
// status derivation from action items, the approval gate, closing and deadlines.
// Nothing in this package performs I/O or reads the wall clock.
package lifecycle

import (
	"time"

	"github.com/aawaaz/ehs-server/internal/models"
)

// ComputeStatus derives the status of a record from its current status,
// its approval status and the bucketed counts of its action items.
//
// Terminal and pre-approval statuses are returned unchanged; only the
// approval workflow moves a record out of the pre-approval phase.
func ComputeStatus(current models.Status, approval models.ApprovalStatus, counts models.ActionItemCounts) models.Status {
	if current.Terminal() || current.PreApproval() {
		return current
	}
	// post-approval status without an approval is corrupt; leave it for an operator
	if approval != models.ApprovalApproved {
		return current
	}

	switch {
	case counts.Total == 0:
		return models.StatusApproved
	case counts.Completed == counts.Total:
		return models.StatusResolved
	case counts.Active() > 0:
		return models.StatusInProgress
	default:
		return models.StatusActionAssigned
	}
}

// EffectiveStatus recomputes the overdue flag of an item against today.
// Stored overdue values are never trusted.
func EffectiveStatus(item models.ActionItem, today time.Time) models.ActionItemStatus {
	if item.Status == models.ItemCompleted {
		return models.ItemCompleted
	}
	if DateAfter(today, item.TargetDate) {
		return models.ItemOverdue
	}
	if item.Status == models.ItemOverdue {
		// stale overdue whose target date moved out
		return models.ItemPending
	}
	return item.Status
}

// Count buckets items by effective status
func Count(items []models.ActionItem, today time.Time) models.ActionItemCounts {
	var c models.ActionItemCounts
	for _, item := range items {
		c.Total++
		switch EffectiveStatus(item, today) {
		case models.ItemCompleted:
			c.Completed++
		case models.ItemOverdue:
			c.Overdue++
		case models.ItemInProgress:
			c.InProgress++
		default:
			c.Pending++
		}
	}
	return c
}

// DateAfter compares calendar dates, each read in its own location.
// DATE columns come back as UTC midnight while today is in the plant timezone.
func DateAfter(a, b time.Time) bool {
	return dateKey(a) > dateKey(b)
}

// DateString formats the calendar date of t
func DateString(t time.Time) string {
	return t.Format("2006-01-02")
}

func dateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
