// Package events is the in-process bus connecting domain writes to the
// aggregator and the notifier. Handlers run synchronously, in subscription
// order, on the publishing goroutine, so a publish returns only after every
// downstream recompute has happened.
//
// An event published from inside a handler is queued and delivered once every
// handler of the current event has run. A status change caused by an approval
// is therefore announced after the approval itself.
package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/models"
)

// Topic identifies an internal event
type Topic string

const (
	// RecordCreated fires after a new record is committed
	RecordCreated Topic = "record_created"
	// ActionItemChanged fires after an action item is created, updated or deleted
	ActionItemChanged Topic = "action_item_changed"
	// StatusChanged fires after an aggregation pass persisted a new status
	StatusChanged Topic = "status_changed"
	// ApprovalDecided fires after approve or reject is committed
	ApprovalDecided Topic = "approval_decided"
	// RecordClosed fires after a record is closed
	RecordClosed Topic = "record_closed"
	// RecordOverdue fires from the overdue sweep, once per record per day
	RecordOverdue Topic = "record_overdue"
)

// ItemChange describes what happened to an action item
type ItemChange string

const (
	ItemCreated   ItemChange = "created"
	ItemUpdated   ItemChange = "updated"
	ItemDeleted   ItemChange = "deleted"
	ItemCompleted ItemChange = "completed"
)

// Event is the payload passed to handlers
type Event struct {
	Topic      Topic
	RecordID   uuid.UUID
	Record     *models.Record
	Item       *models.ActionItem
	ItemChange ItemChange
	OldStatus  models.Status
	NewStatus  models.Status
	// Occurrence separates repeatable events such as daily overdue reminders
	Occurrence string
}

// Handler consumes an event. Errors are logged by the bus and do not stop
// the remaining handlers.
type Handler func(ctx context.Context, ev Event) error

// Bus is a synchronous topic fan-out
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic][]Handler
	logger   *zap.SugaredLogger
}

// NewBus creates an empty bus
func NewBus(logger *zap.SugaredLogger) *Bus {
	return &Bus{handlers: make(map[Topic][]Handler), logger: logger}
}

// Subscribe registers h for topic
func (b *Bus) Subscribe(topic Topic, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

type queueKey struct{}

type queue struct{ pending []Event }

// Publish runs every handler of ev.Topic in order, then any events those
// handlers published, breadth first
func (b *Bus) Publish(ctx context.Context, ev Event) {
	if q, ok := ctx.Value(queueKey{}).(*queue); ok {
		q.pending = append(q.pending, ev)
		return
	}

	q := &queue{pending: []Event{ev}}
	ctx = context.WithValue(ctx, queueKey{}, q)
	for len(q.pending) > 0 {
		next := q.pending[0]
		q.pending = q.pending[1:]
		b.deliver(ctx, next)
	}
}

func (b *Bus) deliver(ctx context.Context, ev Event) {
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[ev.Topic]...)
	b.mu.RUnlock()

	for _, h := range hs {
		if err := h(ctx, ev); err != nil {
			b.logger.Errorw("Event handler failed",
				"topic", ev.Topic,
				"record_id", ev.RecordID,
				"error", err,
			)
		}
	}
}
