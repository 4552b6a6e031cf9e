// Package memstore keeps records, action items, notifications, rules and users in
// process memory. It backs the server when no database is configured in
// development and serves as the repository fake in tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aawaaz/ehs-server/internal/models"
)

// Store is the shared state behind the repository views
type Store struct {
	mu            sync.Mutex
	records       map[uuid.UUID]models.Record
	items         map[uuid.UUID]models.ActionItem
	notifications map[uuid.UUID]models.Notification
	users         map[uuid.UUID]models.User
	rules         map[string]models.NotificationRule
	seq           map[models.RecordKind]int64
	days          map[string]bool

	Records       *Records
	Items         *Items
	Notifications *Notifications
	Directory     *Directory
	Rules         *Rules
	Gate          *DayGate
}

// New creates an empty store
func New() *Store {
	s := &Store{
		records:       map[uuid.UUID]models.Record{},
		items:         map[uuid.UUID]models.ActionItem{},
		notifications: map[uuid.UUID]models.Notification{},
		users:         map[uuid.UUID]models.User{},
		rules:         map[string]models.NotificationRule{},
		seq:           map[models.RecordKind]int64{},
		days:          map[string]bool{},
	}
	s.Records = &Records{s: s}
	s.Items = &Items{s: s}
	s.Notifications = &Notifications{s: s}
	s.Directory = &Directory{s: s}
	s.Rules = &Rules{s: s}
	s.Gate = &DayGate{s: s}
	return s
}

// Records implements services.RecordRepository
type Records struct{ s *Store }

// Create assigns the next report number and stores rec
func (r *Records) Create(_ context.Context, rec *models.Record) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seq[rec.Kind]++
	rec.ReportNumber = fmt.Sprintf("%s-%d-%06d", rec.Kind.ReportPrefix(), rec.ReportDate.Year(), r.s.seq[rec.Kind])
	r.s.records[rec.ID] = *rec
	return nil
}

// Put stores rec as-is
func (r *Records) Put(rec models.Record) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.records[rec.ID] = rec
}

// Remove deletes a record
func (r *Records) Remove(id uuid.UUID) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.records, id)
}

// Get returns a copy of the record
func (r *Records) Get(_ context.Context, id uuid.UUID) (*models.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.records[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &rec, nil
}

// Mutate holds the store lock for the whole read-modify-write
func (r *Records) Mutate(_ context.Context, id uuid.UUID, fn models.RecordMutation) (*models.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.records[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	changed, err := fn(&rec, r.s.itemsOf(id))
	if err != nil {
		return nil, err
	}
	if changed {
		rec.UpdatedAt = time.Now()
		r.s.records[id] = rec
	}
	out := rec
	return &out, nil
}

// ListPastDeadline returns records needing action with a deadline before today
func (r *Records) ListPastDeadline(_ context.Context, today time.Time) ([]models.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Record
	for _, rec := range r.s.records {
		switch rec.Status {
		case models.StatusResolved, models.StatusClosed, models.StatusRejected:
			continue
		}
		if rec.Deadline.Before(today) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out, nil
}

// ListWithLateItems returns active records holding open items past target date
func (r *Records) ListWithLateItems(_ context.Context, today time.Time) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, item := range r.s.items {
		if item.Status == models.ItemCompleted || !item.TargetDate.Before(today) || seen[item.RecordID] {
			continue
		}
		rec, ok := r.s.records[item.RecordID]
		if !ok || (rec.Status != models.StatusActionAssigned && rec.Status != models.StatusInProgress) {
			continue
		}
		seen[item.RecordID] = true
		out = append(out, item.RecordID)
	}
	return out, nil
}

// ValidateLocation accepts any hierarchy; memory mode has no location tables
func (r *Records) ValidateLocation(context.Context, *models.RecordSubmission) error {
	return nil
}

func (s *Store) itemsOf(recordID uuid.UUID) []models.ActionItem {
	out := make([]models.ActionItem, 0)
	for _, item := range s.items {
		if item.RecordID == recordID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TargetDate.Before(out[j].TargetDate) })
	return out
}

// Items implements services.ActionItemRepository
type Items struct{ s *Store }

// Create stores a new item
func (r *Items) Create(_ context.Context, item *models.ActionItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.items[item.ID] = *item
	return nil
}

// Get returns a copy of the item
func (r *Items) Get(_ context.Context, id uuid.UUID) (*models.ActionItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &item, nil
}

// Update replaces a stored item
func (r *Items) Update(_ context.Context, item *models.ActionItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[item.ID]; !ok {
		return models.ErrNotFound
	}
	r.s.items[item.ID] = *item
	return nil
}

// Delete removes an item
func (r *Items) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.s.items, id)
	return nil
}

// ListByRecord returns the items of a record ordered by target date
func (r *Items) ListByRecord(_ context.Context, recordID uuid.UUID) ([]models.ActionItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.itemsOf(recordID), nil
}
