package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/models"
	"github.com/aawaaz/ehs-server/internal/services"
)

type brokenGate struct{}

func (brokenGate) Claim(context.Context, string, string) (bool, error) {
	return false, errors.New("connection refused")
}

func redisGate(t *testing.T) *services.RedisDayGate {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return services.NewRedisDayGate(rdb, "ehs:overdue")
}

func TestOverdueSweep_OncePerDay(t *testing.T) {
	h := newHarness(t, rule(models.EventIncidentOverdue, models.RoleSafetyManager, true, true))
	h.user(models.RoleSafetyManager, h.plant)
	rec := h.report(t, models.SeverityCritical)
	worker := services.NewOverdueWorker(h.store.Records, h.aggregator, redisGate(t), h.bus, h.clock, zap.NewNop().Sugar())
	ctx := context.Background()

	// deadline is the 19th; on the 19th itself nothing is overdue
	h.clock.t = testNow.AddDate(0, 0, 1)
	res, err := worker.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Overdue)

	h.clock.t = testNow.AddDate(0, 0, 3)
	res, err = worker.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Overdue)
	assert.Equal(t, 1, res.Notified)

	res, err = worker.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.AlreadyToday)
	assert.Zero(t, res.Notified)

	assert.Equal(t, 1, countEvents(h, models.EventIncidentOverdue))
	assert.Equal(t, 1, h.transport.count())

	h.clock.t = testNow.AddDate(0, 0, 4)
	_, err = worker.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, countEvents(h, models.EventIncidentOverdue))

	assert.Equal(t, models.StatusReported, h.status(t, rec.ID))
}

func TestOverdueSweep_GateFailureStillDedupes(t *testing.T) {
	h := newHarness(t, rule(models.EventIncidentOverdue, models.RoleSafetyManager, true, false))
	h.user(models.RoleSafetyManager, h.plant)
	h.report(t, models.SeverityCritical)
	worker := services.NewOverdueWorker(h.store.Records, h.aggregator, brokenGate{}, h.bus, h.clock, zap.NewNop().Sugar())
	ctx := context.Background()

	h.clock.t = testNow.AddDate(0, 0, 5)
	for i := 0; i < 2; i++ {
		res, err := worker.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Notified)
	}
	assert.Equal(t, 1, countEvents(h, models.EventIncidentOverdue))
}

func TestOverdueSweep_ResolvedRecordsAreNotOverdue(t *testing.T) {
	h := newHarness(t)
	rec := h.approved(t)
	_, err := h.items.Create(context.Background(), rec.ID, &models.ActionItemInput{
		Description: "Seal drain",
		Status:      models.ItemCompleted,
		TargetDate:  testNow,
	}, uuid.New())
	require.NoError(t, err)
	require.Equal(t, models.StatusResolved, h.status(t, rec.ID))

	worker := services.NewOverdueWorker(h.store.Records, h.aggregator, h.store.Gate, h.bus, h.clock, zap.NewNop().Sugar())
	h.clock.t = testNow.AddDate(0, 0, 30)
	res, err := worker.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Overdue)
}

func TestOverdueSweep_ReaggregatesLateItems(t *testing.T) {
	h := newHarness(t)
	rec := h.approved(t)
	_, err := h.items.Create(context.Background(), rec.ID, &models.ActionItemInput{
		Description: "Replace cracked guard",
		TargetDate:  testNow.AddDate(0, 0, 1),
	}, uuid.New())
	require.NoError(t, err)
	require.Equal(t, models.StatusActionAssigned, h.status(t, rec.ID))

	worker := services.NewOverdueWorker(h.store.Records, h.aggregator, h.store.Gate, h.bus, h.clock, zap.NewNop().Sugar())
	h.clock.t = testNow.AddDate(0, 0, 2)
	res, err := worker.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Reaggregated)
	assert.Equal(t, models.StatusInProgress, h.status(t, rec.ID))
}
