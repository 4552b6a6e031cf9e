package models

import "fmt"

// EventType names a user-facing notification event
type EventType string

const (
	EventIncidentReported EventType = "incident_reported"
	EventIncidentApproved EventType = "incident_approved"
	EventIncidentRejected EventType = "incident_rejected"
	EventIncidentResolved EventType = "incident_resolved"
	EventIncidentClosed   EventType = "incident_closed"
	EventIncidentOverdue  EventType = "incident_overdue"

	EventHazardReported EventType = "hazard_reported"
	EventHazardApproved EventType = "hazard_approved"
	EventHazardRejected EventType = "hazard_rejected"
	EventHazardResolved EventType = "hazard_resolved"
	EventHazardClosed   EventType = "hazard_closed"
	EventHazardOverdue  EventType = "hazard_overdue"

	EventActionItemAssigned  EventType = "action_item_assigned"
	EventActionItemCompleted EventType = "action_item_completed"
)

// Lifecycle is the kind-independent part of a record event
type Lifecycle int

const (
	LifecycleReported Lifecycle = iota
	LifecycleApproved
	LifecycleRejected
	LifecycleResolved
	LifecycleClosed
	LifecycleOverdue
)

var recordEvents = map[RecordKind][6]EventType{
	KindIncident: {
		LifecycleReported: EventIncidentReported,
		LifecycleApproved: EventIncidentApproved,
		LifecycleRejected: EventIncidentRejected,
		LifecycleResolved: EventIncidentResolved,
		LifecycleClosed:   EventIncidentClosed,
		LifecycleOverdue:  EventIncidentOverdue,
	},
	KindHazard: {
		LifecycleReported: EventHazardReported,
		LifecycleApproved: EventHazardApproved,
		LifecycleRejected: EventHazardRejected,
		LifecycleResolved: EventHazardResolved,
		LifecycleClosed:   EventHazardClosed,
		LifecycleOverdue:  EventHazardOverdue,
	},
}

// RecordEvent returns the event type for a lifecycle step of the given kind
func RecordEvent(kind RecordKind, step Lifecycle) EventType {
	return recordEvents[kind][step]
}

// AllEventTypes lists every known event type
func AllEventTypes() []EventType {
	out := []EventType{EventActionItemAssigned, EventActionItemCompleted}
	for _, kind := range []RecordKind{KindIncident, KindHazard} {
		for _, ev := range recordEvents[kind] {
			out = append(out, ev)
		}
	}
	return out
}

// Valid reports whether e is a known event type
func (e EventType) Valid() bool {
	for _, known := range AllEventTypes() {
		if e == known {
			return true
		}
	}
	return false
}

// ReportedClass is true for "new record" events that must never be dropped silently
func (e EventType) ReportedClass() bool {
	return e == EventIncidentReported || e == EventHazardReported
}

// Role is a directory role a rule can target
type Role string

const (
	RoleEmployee      Role = "EMPLOYEE"
	RoleSafetyOfficer Role = "SAFETY_OFFICER"
	RoleSafetyManager Role = "SAFETY_MANAGER"
	RoleHOD           Role = "HOD"
	RoleLocationHead  Role = "LOCATION_HEAD"
	RoleZoneHead      Role = "ZONE_HEAD"
	RolePlantHead     Role = "PLANT_HEAD"
	RoleAdmin         Role = "ADMIN"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleSafetyOfficer, RoleSafetyManager, RoleHOD,
		RoleLocationHead, RoleZoneHead, RolePlantHead, RoleAdmin:
		return true
	}
	return false
}

// ParseEventType validates a raw event type string
func ParseEventType(s string) (EventType, error) {
	e := EventType(s)
	if !e.Valid() {
		return "", fmt.Errorf("unknown event type %q", s)
	}
	return e, nil
}

// ParseRole validates a raw role string
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
