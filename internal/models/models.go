// Package models defines the data structures used across the application.
// These map to the PostgreSQL schema under internal/database/migrations.
package models

import (
	"time"

	"github.com/google/uuid"
)

// RecordKind distinguishes incident reports from hazard reports.
// Both share the same lifecycle and are stored in the records table.
type RecordKind string

const (
	KindIncident RecordKind = "incident"
	KindHazard   RecordKind = "hazard"
)

// Valid reports whether k is a known record kind
func (k RecordKind) Valid() bool {
	switch k {
	case KindIncident, KindHazard:
		return true
	}
	return false
}

// ReportPrefix is the report number prefix for the kind
func (k RecordKind) ReportPrefix() string {
	if k == KindHazard {
		return "HAZ"
	}
	return "INC"
}

// Severity is ordered: low < medium < high < critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the ordinal of the severity, or -1 if unknown
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	}
	return -1
}

// Valid reports whether s is a known severity
func (s Severity) Valid() bool { return s.Rank() >= 0 }

// Status is the lifecycle status of a Record.
type Status string

const (
	StatusReported        Status = "reported"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusActionAssigned  Status = "action_assigned"
	StatusInProgress      Status = "in_progress"
	StatusResolved        Status = "resolved"
	StatusClosed          Status = "closed"
	StatusRejected        Status = "rejected"
)

// Terminal reports whether no further automatic transition is permitted
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusRejected
}

// PreApproval reports whether the record is still waiting for an approval decision
func (s Status) PreApproval() bool {
	return s == StatusReported || s == StatusPendingApproval
}

// ApprovalStatus is the state of the approval gate.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Record is an Incident or Hazard report tracked through the lifecycle.
type Record struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Kind          RecordKind `json:"kind" db:"kind"`
	ReportNumber  string     `json:"report_number" db:"report_number"`
	Title         string     `json:"title" db:"title"`
	Category      string     `json:"category" db:"category"`
	Severity      Severity   `json:"severity" db:"severity"`
	PlantID       uuid.UUID  `json:"plant_id" db:"plant_id"`
	ZoneID        *uuid.UUID `json:"zone_id,omitempty" db:"zone_id"`
	LocationID    *uuid.UUID `json:"location_id,omitempty" db:"location_id"`
	SublocationID *uuid.UUID `json:"sublocation_id,omitempty" db:"sublocation_id"`
	Department    string     `json:"department,omitempty" db:"department"`

	Status          Status         `json:"status" db:"status"`
	ApprovalStatus  ApprovalStatus `json:"approval_status" db:"approval_status"`
	ApprovalRemarks string         `json:"approval_remarks,omitempty" db:"approval_remarks"`

	ReportDate time.Time `json:"report_date" db:"report_date"`
	Deadline   time.Time `json:"deadline" db:"deadline"`

	ReportedBy uuid.UUID  `json:"reported_by" db:"reported_by"`
	AssignedTo *uuid.UUID `json:"assigned_to,omitempty" db:"assigned_to"`
	ApprovedBy *uuid.UUID `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	ClosedBy   *uuid.UUID `json:"closed_by,omitempty" db:"closed_by"`
	ClosedAt   *time.Time `json:"closed_at,omitempty" db:"closed_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RecordSubmission is the request body for reporting a new incident or hazard
type RecordSubmission struct {
	Kind          RecordKind `json:"kind" validate:"required"`
	Title         string     `json:"title" validate:"required"`
	Category      string     `json:"category"`
	Severity      Severity   `json:"severity" validate:"required"`
	PlantID       uuid.UUID  `json:"plant_id" validate:"required"`
	ZoneID        *uuid.UUID `json:"zone_id,omitempty"`
	LocationID    *uuid.UUID `json:"location_id,omitempty"`
	SublocationID *uuid.UUID `json:"sublocation_id,omitempty"`
	Department    string     `json:"department,omitempty"`
	AssignedTo    *uuid.UUID `json:"assigned_to,omitempty"`
	ReportDate    *time.Time `json:"report_date,omitempty"`
}

// ActionItemStatus is the status of a corrective action.
// Overdue is derived from the target date and never trusted from storage.
type ActionItemStatus string

const (
	ItemPending    ActionItemStatus = "pending"
	ItemInProgress ActionItemStatus = "in_progress"
	ItemCompleted  ActionItemStatus = "completed"
	ItemOverdue    ActionItemStatus = "overdue"
)

// Valid reports whether s can be set by a user. Overdue is derived only.
func (s ActionItemStatus) Valid() bool {
	switch s {
	case ItemPending, ItemInProgress, ItemCompleted:
		return true
	}
	return false
}

// ActionItem is a corrective-action task attached to a Record.
type ActionItem struct {
	ID                uuid.UUID        `json:"id" db:"id"`
	RecordID          uuid.UUID        `json:"record_id" db:"record_id"`
	Description       string           `json:"description" db:"description"`
	ResponsiblePerson *uuid.UUID       `json:"responsible_person,omitempty" db:"responsible_person"`
	Status            ActionItemStatus `json:"status" db:"status"`
	TargetDate        time.Time        `json:"target_date" db:"target_date"`
	CompletionDate    *time.Time       `json:"completion_date,omitempty" db:"completion_date"`
	Remarks           string           `json:"remarks,omitempty" db:"remarks"`
	AttachmentURL     string           `json:"attachment_url,omitempty" db:"attachment_url"`
	CreatedBy         uuid.UUID        `json:"created_by" db:"created_by"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" db:"updated_at"`
}

// ActionItemInput is the request body for creating or updating an action item
type ActionItemInput struct {
	Description       string           `json:"description"`
	ResponsiblePerson *uuid.UUID       `json:"responsible_person,omitempty"`
	Status            ActionItemStatus `json:"status"`
	TargetDate        time.Time        `json:"target_date"`
	CompletionDate    *time.Time       `json:"completion_date,omitempty"`
	Remarks           string           `json:"remarks,omitempty"`
	AttachmentURL     string           `json:"attachment_url,omitempty"`
}

// ActionItemCounts are the mutually exclusive buckets fed to the status engine
type ActionItemCounts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Overdue    int `json:"overdue"`
}

// Active is the number of items that are in progress or overdue
func (c ActionItemCounts) Active() int { return c.InProgress + c.Overdue }

// User is a directory entry that can receive notifications
type User struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	FullName    string     `json:"full_name" db:"full_name"`
	Role        Role       `json:"role" db:"role"`
	PlantID     *uuid.UUID `json:"plant_id,omitempty" db:"plant_id"`
	ZoneID      *uuid.UUID `json:"zone_id,omitempty" db:"zone_id"`
	LocationID  *uuid.UUID `json:"location_id,omitempty" db:"location_id"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	IsSuperuser bool       `json:"is_superuser" db:"is_superuser"`
}

// LocationFilter narrows a directory lookup. Nil fields are not filtered on.
type LocationFilter struct {
	PlantID    *uuid.UUID
	ZoneID     *uuid.UUID
	LocationID *uuid.UUID
}

// Matches reports whether u satisfies every set field of f
func (f LocationFilter) Matches(u User) bool {
	return sameID(f.PlantID, u.PlantID) && sameID(f.ZoneID, u.ZoneID) && sameID(f.LocationID, u.LocationID)
}

func sameID(want, got *uuid.UUID) bool {
	if want == nil {
		return true
	}
	return got != nil && *got == *want
}

// Notification is one in-app message for one recipient about one record.
// Occurrence separates repeatable events (overdue reminders, one per day).
type Notification struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	RecordKind  RecordKind `json:"record_kind" db:"record_kind"`
	RecordID    uuid.UUID  `json:"record_id" db:"record_id"`
	RecipientID uuid.UUID  `json:"recipient_id" db:"recipient_id"`
	EventType   EventType  `json:"event_type" db:"event_type"`
	Occurrence  string     `json:"occurrence,omitempty" db:"occurrence"`
	Title       string     `json:"title" db:"title"`
	Message     string     `json:"message" db:"message"`
	IsRead      bool       `json:"is_read" db:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty" db:"read_at"`
	IsEmailSent bool       `json:"is_email_sent" db:"is_email_sent"`
	EmailSentAt *time.Time `json:"email_sent_at,omitempty" db:"email_sent_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// NotificationRule maps (event type, role, location filters) to notification behavior
type NotificationRule struct {
	ID               uuid.UUID `json:"id" db:"id" yaml:"-"`
	EventType        EventType `json:"event_type" db:"event_type" yaml:"event_type"`
	Role             Role      `json:"role" db:"role" yaml:"role"`
	FilterByPlant    bool      `json:"filter_by_plant" db:"filter_by_plant" yaml:"filter_by_plant"`
	FilterByZone     bool      `json:"filter_by_zone" db:"filter_by_zone" yaml:"filter_by_zone"`
	FilterByLocation bool      `json:"filter_by_location" db:"filter_by_location" yaml:"filter_by_location"`
	EmailEnabled     bool      `json:"email_enabled" db:"email_enabled" yaml:"email_enabled"`
	Active           bool      `json:"active" db:"active" yaml:"active"`
}

// Stakeholder is a resolved recipient for one event on one record.
// EmailEnabled is true if any matching rule enables email.
type Stakeholder struct {
	User         User `json:"user"`
	EmailEnabled bool `json:"email_enabled"`
}

// DeliveryFailure records one recipient whose email could not be handed off
type DeliveryFailure struct {
	RecipientID uuid.UUID `json:"recipient_id"`
	Email       string    `json:"email"`
	Error       string    `json:"error"`
}

// DispatchReport summarizes one dispatch call
type DispatchReport struct {
	Created  int               `json:"created"`
	Skipped  int               `json:"skipped"`
	Emailed  int               `json:"emailed"`
	Queued   int               `json:"queued"`
	Failures []DeliveryFailure `json:"failures,omitempty"`
}

// Decision is the request body for approving or rejecting a record
type Decision struct {
	Remarks string `json:"remarks"`
}

// HealthStatus represents the server health check response
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`
	Redis    string `json:"redis,omitempty"`
}

// RecordMutation edits a locked record given its current action items.
// It returns true when the record changed and must be written back.
type RecordMutation func(rec *Record, items []ActionItem) (bool, error)

// Notice is one user-facing event about one record, ready to be routed
type Notice struct {
	Type       EventType
	Record     *Record
	Item       *ActionItem
	Occurrence string
}
