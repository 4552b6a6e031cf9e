package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/models"
)

// locationFilters is the flag → filter table applied per rule.
// A flag restricts the lookup only when the record carries that level.
var locationFilters = []struct {
	name    string
	enabled func(models.NotificationRule) bool
	apply   func(*models.LocationFilter, *models.Record)
}{
	{
		name:    "plant",
		enabled: func(r models.NotificationRule) bool { return r.FilterByPlant },
		apply: func(f *models.LocationFilter, rec *models.Record) {
			if rec.PlantID != uuid.Nil {
				id := rec.PlantID
				f.PlantID = &id
			}
		},
	},
	{
		name:    "zone",
		enabled: func(r models.NotificationRule) bool { return r.FilterByZone },
		apply:   func(f *models.LocationFilter, rec *models.Record) { f.ZoneID = rec.ZoneID },
	},
	{
		name:    "location",
		enabled: func(r models.NotificationRule) bool { return r.FilterByLocation },
		apply:   func(f *models.LocationFilter, rec *models.Record) { f.LocationID = rec.LocationID },
	},
}

// FilterFor builds the directory filter a rule implies for a record
func FilterFor(rule models.NotificationRule, rec *models.Record) models.LocationFilter {
	var f models.LocationFilter
	for _, lf := range locationFilters {
		if lf.enabled(rule) {
			lf.apply(&f, rec)
		}
	}
	return f
}

// StakeholderRouter joins the rule table with the directory
type StakeholderRouter struct {
	rules            RuleSource
	directory        Directory
	fallbackToAdmins bool
	logger           *zap.SugaredLogger
}

// NewStakeholderRouter creates a router. With fallbackToAdmins, reported-class
// events that resolve to nobody go to the superuser list instead.
func NewStakeholderRouter(rules RuleSource, directory Directory, fallbackToAdmins bool, logger *zap.SugaredLogger) *StakeholderRouter {
	return &StakeholderRouter{rules: rules, directory: directory, fallbackToAdmins: fallbackToAdmins, logger: logger}
}

// Resolve returns the deduplicated stakeholders of event on rec. The result
// order is unspecified.
func (r *StakeholderRouter) Resolve(ctx context.Context, event models.EventType, rec *models.Record) ([]models.Stakeholder, error) {
	rules, err := r.rules.ActiveRules(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("load rules for %s: %w", event, err)
	}
	if len(rules) == 0 {
		r.logger.Infow("No active notification rule for event",
			"event", event,
			"report_number", rec.ReportNumber,
		)
	}

	byID := make(map[uuid.UUID]*models.Stakeholder)
	var order []uuid.UUID
	for _, rule := range rules {
		users, err := r.directory.ListActiveUsersByRole(ctx, rule.Role, FilterFor(rule, rec))
		if err != nil {
			return nil, fmt.Errorf("directory lookup for role %s: %w", rule.Role, err)
		}
		for _, u := range users {
			if s, ok := byID[u.ID]; ok {
				s.EmailEnabled = s.EmailEnabled || rule.EmailEnabled
				continue
			}
			byID[u.ID] = &models.Stakeholder{User: u, EmailEnabled: rule.EmailEnabled}
			order = append(order, u.ID)
		}
	}

	if len(order) == 0 && event.ReportedClass() && r.fallbackToAdmins {
		admins, err := r.directory.ListSuperusers(ctx)
		if err != nil {
			return nil, fmt.Errorf("list superusers: %w", err)
		}
		r.logger.Warnw("No stakeholders resolved, falling back to admin broadcast",
			"event", event,
			"report_number", rec.ReportNumber,
			"admins", len(admins),
		)
		for _, u := range admins {
			if _, ok := byID[u.ID]; ok {
				continue
			}
			byID[u.ID] = &models.Stakeholder{User: u, EmailEnabled: true}
			order = append(order, u.ID)
		}
	}

	out := make([]models.Stakeholder, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}
