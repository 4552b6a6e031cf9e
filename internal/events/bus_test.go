package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBus_RunsHandlersInOrderAndSurvivesErrors(t *testing.T) {
	bus := NewBus(zap.NewNop().Sugar())

	var got []string
	bus.Subscribe(StatusChanged, func(ctx context.Context, ev Event) error {
		got = append(got, "first")
		return errors.New("boom")
	})
	bus.Subscribe(StatusChanged, func(ctx context.Context, ev Event) error {
		got = append(got, "second")
		return nil
	})
	bus.Subscribe(RecordClosed, func(ctx context.Context, ev Event) error {
		got = append(got, "other")
		return nil
	})

	bus.Publish(context.Background(), Event{Topic: StatusChanged, RecordID: uuid.New()})

	assert.Equal(t, []string{"first", "second"}, got)
}

func TestBus_NestedPublishRunsAfterCurrentEvent(t *testing.T) {
	bus := NewBus(zap.NewNop().Sugar())

	var got []string
	bus.Subscribe(ApprovalDecided, func(ctx context.Context, ev Event) error {
		got = append(got, "recompute")
		bus.Publish(ctx, Event{Topic: StatusChanged, RecordID: ev.RecordID})
		got = append(got, "recompute done")
		return nil
	})
	bus.Subscribe(ApprovalDecided, func(ctx context.Context, ev Event) error {
		got = append(got, "approved notice")
		return nil
	})
	bus.Subscribe(StatusChanged, func(ctx context.Context, ev Event) error {
		got = append(got, "resolved notice")
		return nil
	})

	bus.Publish(context.Background(), Event{Topic: ApprovalDecided, RecordID: uuid.New()})

	assert.Equal(t, []string{"recompute", "recompute done", "approved notice", "resolved notice"}, got)
}
