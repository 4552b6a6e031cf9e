package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/aawaaz/ehs-server/internal/models"
)

// Rules implements services.RuleAdmin, one rule per (role, event type)
type Rules struct{ s *Store }

func ruleKey(r models.NotificationRule) string {
	return string(r.Role) + "/" + string(r.EventType)
}

// ActiveRules returns the active rules of event
func (r *Rules) ActiveRules(_ context.Context, event models.EventType) ([]models.NotificationRule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.NotificationRule
	for _, rule := range r.s.rules {
		if rule.Active && rule.EventType == event {
			out = append(out, rule)
		}
	}
	return out, nil
}

// List returns every rule ordered by event type and role
func (r *Rules) List(context.Context) ([]models.NotificationRule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.NotificationRule, 0, len(r.s.rules))
	for _, rule := range r.s.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EventType != out[j].EventType {
			return out[i].EventType < out[j].EventType
		}
		return out[i].Role < out[j].Role
	})
	return out, nil
}

// Upsert replaces the rule with the same (role, event type), keeping its id
func (r *Rules) Upsert(_ context.Context, rule *models.NotificationRule) error {
	if !rule.EventType.Valid() {
		return models.Invalid("event_type", "unknown event type %q", rule.EventType)
	}
	if !rule.Role.Valid() {
		return models.Invalid("role", "unknown role %q", rule.Role)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := ruleKey(*rule)
	if existing, ok := r.s.rules[key]; ok {
		rule.ID = existing.ID
	} else if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	r.s.rules[key] = *rule
	return nil
}
