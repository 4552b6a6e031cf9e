package services

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/aawaaz/ehs-server/internal/models"
)

// Ruleset is a validated, immutable set of notification rules
type Ruleset struct {
	rules []models.NotificationRule
}

type rulesFile struct {
	Rules []models.NotificationRule `yaml:"rules"`
}

// LoadRuleset reads and validates a YAML rules file
func LoadRuleset(path string) (*Ruleset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	return NewRuleset(f.Rules)
}

// NewRuleset validates rules: known event types and roles, and at most one
// rule per (role, event type).
func NewRuleset(rules []models.NotificationRule) (*Ruleset, error) {
	seen := make(map[string]bool, len(rules))
	out := make([]models.NotificationRule, 0, len(rules))
	for i, r := range rules {
		if err := ValidateRule(r); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		key := string(r.Role) + "/" + string(r.EventType)
		if seen[key] {
			return nil, fmt.Errorf("rule %d: duplicate rule for role %s and event %s", i, r.Role, r.EventType)
		}
		seen[key] = true
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		out = append(out, r)
	}
	return &Ruleset{rules: out}, nil
}

// ValidateRule checks the enum fields of a rule
func ValidateRule(r models.NotificationRule) error {
	if !r.EventType.Valid() {
		return models.Invalid("event_type", "unknown event type %q", r.EventType)
	}
	if !r.Role.Valid() {
		return models.Invalid("role", "unknown role %q", r.Role)
	}
	return nil
}

// Rules returns a copy of every rule, active or not
func (s *Ruleset) Rules() []models.NotificationRule {
	return append([]models.NotificationRule(nil), s.rules...)
}

// ActiveRules implements RuleSource
func (s *Ruleset) ActiveRules(_ context.Context, event models.EventType) ([]models.NotificationRule, error) {
	var out []models.NotificationRule
	for _, r := range s.rules {
		if r.Active && r.EventType == event {
			out = append(out, r)
		}
	}
	return out, nil
}

// RuleStore keeps the notification rule table in Postgres
type RuleStore struct {
	db     DB
	logger *zap.SugaredLogger
}

// NewRuleStore creates a new rule store
func NewRuleStore(db DB, logger *zap.SugaredLogger) *RuleStore {
	return &RuleStore{db: db, logger: logger}
}

const ruleColumns = `id, event_type, role, filter_by_plant, filter_by_zone, filter_by_location, email_enabled, active`

// ActiveRules implements RuleSource
func (s *RuleStore) ActiveRules(ctx context.Context, event models.EventType) ([]models.NotificationRule, error) {
	return s.list(ctx, "SELECT "+ruleColumns+" FROM notification_rules WHERE active AND event_type = $1", event)
}

// List returns the whole rule table
func (s *RuleStore) List(ctx context.Context) ([]models.NotificationRule, error) {
	return s.list(ctx, "SELECT "+ruleColumns+" FROM notification_rules ORDER BY event_type, role")
}

// Upsert creates or replaces the rule for (role, event type)
func (s *RuleStore) Upsert(ctx context.Context, r *models.NotificationRule) error {
	if err := ValidateRule(*r); err != nil {
		return err
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	query := `
		INSERT INTO notification_rules (` + ruleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (role, event_type) DO UPDATE SET
			filter_by_plant = EXCLUDED.filter_by_plant,
			filter_by_zone = EXCLUDED.filter_by_zone,
			filter_by_location = EXCLUDED.filter_by_location,
			email_enabled = EXCLUDED.email_enabled,
			active = EXCLUDED.active
		RETURNING id
	`
	err := s.db.QueryRow(ctx, query,
		r.ID, r.EventType, r.Role, r.FilterByPlant, r.FilterByZone, r.FilterByLocation,
		r.EmailEnabled, r.Active,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("upsert notification rule: %w", err)
	}
	return nil
}

// SeedRules upserts every rule of the set into admin. It runs once at startup.
func SeedRules(ctx context.Context, admin RuleAdmin, set *Ruleset, logger *zap.SugaredLogger) error {
	for _, r := range set.Rules() {
		r := r
		if err := admin.Upsert(ctx, &r); err != nil {
			return err
		}
	}
	logger.Infow("Notification rules seeded", "count", len(set.rules))
	return nil
}

func (s *RuleStore) list(ctx context.Context, query string, args ...any) ([]models.NotificationRule, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select notification rules: %w", err)
	}
	defer rows.Close()

	var rules []models.NotificationRule
	for rows.Next() {
		var r models.NotificationRule
		if err := rows.Scan(&r.ID, &r.EventType, &r.Role, &r.FilterByPlant, &r.FilterByZone,
			&r.FilterByLocation, &r.EmailEnabled, &r.Active); err != nil {
			return nil, fmt.Errorf("scan notification rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}
