package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/events"
	"github.com/aawaaz/ehs-server/internal/models"
)

// Notifier turns internal events into user-facing notices and runs them
// through the router and the dispatcher.
type Notifier struct {
	records    RecordRepository
	router     *StakeholderRouter
	dispatcher *Dispatcher
	logger     *zap.SugaredLogger
}

// NewNotifier creates a notifier and subscribes it to bus. Subscribe it after
// the aggregator so status recomputation happens before routing.
func NewNotifier(records RecordRepository, router *StakeholderRouter, dispatcher *Dispatcher, bus *events.Bus, logger *zap.SugaredLogger) *Notifier {
	n := &Notifier{records: records, router: router, dispatcher: dispatcher, logger: logger}
	for _, topic := range []events.Topic{
		events.RecordCreated,
		events.ApprovalDecided,
		events.StatusChanged,
		events.RecordClosed,
		events.RecordOverdue,
		events.ActionItemChanged,
	} {
		bus.Subscribe(topic, n.handle)
	}
	return n
}

// NoticeFor maps an internal event to the notice it produces, if any.
// status_changed is internal and only surfaces when a record becomes resolved.
func NoticeFor(ev events.Event) (models.Notice, bool) {
	rec := ev.Record
	switch ev.Topic {
	case events.RecordCreated:
		return models.Notice{Type: models.RecordEvent(rec.Kind, models.LifecycleReported), Record: rec}, true
	case events.ApprovalDecided:
		step := models.LifecycleApproved
		if rec.ApprovalStatus == models.ApprovalRejected {
			step = models.LifecycleRejected
		}
		return models.Notice{Type: models.RecordEvent(rec.Kind, step), Record: rec}, true
	case events.StatusChanged:
		if ev.NewStatus != models.StatusResolved {
			return models.Notice{}, false
		}
		return models.Notice{Type: models.RecordEvent(rec.Kind, models.LifecycleResolved), Record: rec}, true
	case events.RecordClosed:
		return models.Notice{Type: models.RecordEvent(rec.Kind, models.LifecycleClosed), Record: rec}, true
	case events.RecordOverdue:
		return models.Notice{Type: models.RecordEvent(rec.Kind, models.LifecycleOverdue), Record: rec, Occurrence: ev.Occurrence}, true
	case events.ActionItemChanged:
		notice := models.Notice{Record: rec, Item: ev.Item}
		if ev.Item != nil {
			// occurrence keys the notification per item
			notice.Occurrence = ev.Item.ID.String()
		}
		switch ev.ItemChange {
		case events.ItemCreated:
			notice.Type = models.EventActionItemAssigned
			return notice, true
		case events.ItemCompleted:
			notice.Type = models.EventActionItemCompleted
			return notice, true
		}
	}
	return models.Notice{}, false
}

// Notify resolves stakeholders for notice and dispatches it
func (n *Notifier) Notify(ctx context.Context, notice models.Notice) (models.DispatchReport, error) {
	stakeholders, err := n.router.Resolve(ctx, notice.Type, notice.Record)
	if err != nil {
		return models.DispatchReport{}, err
	}
	if len(stakeholders) == 0 {
		return models.DispatchReport{}, nil
	}
	return n.dispatcher.Dispatch(ctx, notice, stakeholders), nil
}

func (n *Notifier) handle(ctx context.Context, ev events.Event) error {
	if ev.Topic == events.ActionItemChanged && ev.ItemChange != events.ItemCreated && ev.ItemChange != events.ItemCompleted {
		return nil
	}
	if ev.Record == nil {
		// action item events carry only the record id
		rec, err := n.records.Get(ctx, ev.RecordID)
		if err != nil {
			return fmt.Errorf("load record for %s: %w", ev.Topic, err)
		}
		ev.Record = rec
	}
	notice, ok := NoticeFor(ev)
	if !ok {
		return nil
	}
	_, err := n.Notify(ctx, notice)
	return err
}
