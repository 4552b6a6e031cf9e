package lifecycle

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aawaaz/ehs-server/internal/models"
)

// Submit moves a freshly reported record into pending_approval
func Submit(rec *models.Record) error {
	if rec.Status.Terminal() {
		return terminal(rec)
	}
	if rec.Status != models.StatusReported {
		return models.Invalid("status", "only reported records can be submitted for approval (current: %s)", rec.Status)
	}
	rec.Status = models.StatusPendingApproval
	return nil
}

// Approve opens the post-approval phase of the record
func Approve(rec *models.Record, approver uuid.UUID, remarks string, at time.Time) error {
	if err := checkPending(rec); err != nil {
		return err
	}
	rec.ApprovalStatus = models.ApprovalApproved
	rec.Status = models.StatusApproved
	rec.ApprovedBy = &approver
	rec.ApprovedAt = &at
	rec.ApprovalRemarks = strings.TrimSpace(remarks)
	return nil
}

// Reject terminates the record. Remarks are mandatory.
func Reject(rec *models.Record, approver uuid.UUID, remarks string, at time.Time) error {
	remarks = strings.TrimSpace(remarks)
	if remarks == "" {
		return models.Invalid("remarks", "remarks required for rejection")
	}
	if err := checkPending(rec); err != nil {
		return err
	}
	rec.ApprovalStatus = models.ApprovalRejected
	rec.Status = models.StatusRejected
	rec.ApprovedBy = &approver
	rec.ApprovedAt = &at
	rec.ApprovalRemarks = remarks
	return nil
}

// CanBeClosed is true once the record is approved and every action item is completed
func CanBeClosed(rec *models.Record) bool {
	return rec.ApprovalStatus == models.ApprovalApproved && rec.Status == models.StatusResolved
}

// Close moves a resolved record to closed
func Close(rec *models.Record, closer uuid.UUID, at time.Time) error {
	if rec.Status.Terminal() {
		return terminal(rec)
	}
	if !CanBeClosed(rec) {
		return models.Invalid("status", "record can be closed only when resolved (current: %s)", rec.Status)
	}
	rec.Status = models.StatusClosed
	rec.ClosedBy = &closer
	rec.ClosedAt = &at
	return nil
}

func checkPending(rec *models.Record) error {
	if rec.Status.Terminal() {
		return terminal(rec)
	}
	if rec.ApprovalStatus != models.ApprovalPending {
		return models.Invalid("approval_status", "record is already %s", rec.ApprovalStatus)
	}
	if !rec.Status.PreApproval() {
		return models.Invalid("status", "record is not awaiting approval (current: %s)", rec.Status)
	}
	return nil
}

func terminal(rec *models.Record) error {
	return &models.ValidationError{
		Field:   "status",
		Message: "record " + rec.ReportNumber + " is " + string(rec.Status) + " and cannot change",
		Err:     models.ErrTerminalState,
	}
}
