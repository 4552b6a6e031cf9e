package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/events"
	"github.com/aawaaz/ehs-server/internal/lifecycle"
	"github.com/aawaaz/ehs-server/internal/mail"
	"github.com/aawaaz/ehs-server/internal/memstore"
	"github.com/aawaaz/ehs-server/internal/models"
	"github.com/aawaaz/ehs-server/internal/services"
)

var testNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

// recordingTransport fails for addresses listed in fail
type recordingTransport struct {
	mu   sync.Mutex
	sent []mail.Message
	fail map[string]bool
}

func (t *recordingTransport) Send(_ context.Context, msg mail.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail[msg.To] {
		return errors.New("550 mailbox unavailable")
	}
	t.sent = append(t.sent, msg)
	return nil
}

func (t *recordingTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

type harness struct {
	store      *memstore.Store
	clock      *fixedClock
	bus        *events.Bus
	transport  *recordingTransport
	rules      *services.Ruleset
	router     *services.StakeholderRouter
	dispatcher *services.Dispatcher
	aggregator *services.Aggregator
	records    *services.RecordService
	approvals  *services.ApprovalWorkflow
	items      *services.ActionItemService
	inbox      *services.InboxService
	plant      uuid.UUID
}

func newHarness(t *testing.T, rules ...models.NotificationRule) *harness {
	t.Helper()
	logger := zap.NewNop().Sugar()

	set, err := services.NewRuleset(rules)
	require.NoError(t, err)
	renderer, err := services.NewRenderer()
	require.NoError(t, err)

	h := &harness{
		store:     memstore.New(),
		clock:     &fixedClock{t: testNow},
		bus:       events.NewBus(logger),
		transport: &recordingTransport{fail: map[string]bool{}},
		rules:     set,
		plant:     uuid.New(),
	}
	h.router = services.NewStakeholderRouter(set, h.store.Directory, true, logger)
	h.dispatcher = services.NewDispatcher(h.store.Notifications, mail.Direct{Transport: h.transport}, renderer, h.clock, logger)
	h.aggregator = services.NewAggregator(h.store.Records, h.bus, h.clock, logger)
	services.NewNotifier(h.store.Records, h.router, h.dispatcher, h.bus, logger)
	h.records = services.NewRecordService(h.store.Records, h.store.Items, lifecycle.DefaultDeadlinePolicy(7), h.bus, h.clock, logger)
	h.approvals = services.NewApprovalWorkflow(h.store.Records, h.bus, h.clock, logger)
	h.items = services.NewActionItemService(h.store.Records, h.store.Items, h.bus, h.clock, logger)
	h.inbox = services.NewInboxService(h.store.Notifications, h.clock, logger)
	return h
}

func (h *harness) user(role models.Role, plant uuid.UUID) models.User {
	p := plant
	u := models.User{
		ID:       uuid.New(),
		Email:    uuid.NewString()[:8] + "@plant.example.com",
		Role:     role,
		PlantID:  &p,
		IsActive: true,
	}
	h.store.Directory.AddUser(u)
	return u
}

func (h *harness) report(t *testing.T, severity models.Severity) *models.Record {
	t.Helper()
	rec, err := h.records.Create(context.Background(), &models.RecordSubmission{
		Kind:     models.KindIncident,
		Title:    "Forklift collision in bay 4",
		Severity: severity,
		PlantID:  h.plant,
	}, uuid.New())
	require.NoError(t, err)
	return rec
}

func (h *harness) approved(t *testing.T) *models.Record {
	t.Helper()
	rec := h.report(t, models.SeverityHigh)
	rec, err := h.approvals.Approve(context.Background(), rec.ID, uuid.New(), "")
	require.NoError(t, err)
	return rec
}

func (h *harness) status(t *testing.T, id uuid.UUID) models.Status {
	t.Helper()
	rec, err := h.store.Records.Get(context.Background(), id)
	require.NoError(t, err)
	return rec.Status
}

func rule(event models.EventType, role models.Role, byPlant, email bool) models.NotificationRule {
	return models.NotificationRule{
		EventType:     event,
		Role:          role,
		FilterByPlant: byPlant,
		EmailEnabled:  email,
		Active:        true,
	}
}
