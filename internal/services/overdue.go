package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/events"
	"github.com/aawaaz/ehs-server/internal/lifecycle"
)

// DayGate admits a key at most once per calendar day
type DayGate interface {
	Claim(ctx context.Context, key, day string) (bool, error)
}

// RedisDayGate implements DayGate with SETNX
type RedisDayGate struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisDayGate creates a gate whose keys live under prefix
func NewRedisDayGate(rdb *redis.Client, prefix string) *RedisDayGate {
	return &RedisDayGate{rdb: rdb, prefix: prefix}
}

// Claim returns true for the first caller of (key, day)
func (g *RedisDayGate) Claim(ctx context.Context, key, day string) (bool, error) {
	return g.rdb.SetNX(ctx, g.prefix+":"+key+":"+day, 1, 48*time.Hour).Result()
}

// SweepResult summarizes one overdue sweep
type SweepResult struct {
	Reaggregated int `json:"reaggregated"`
	Overdue      int `json:"overdue"`
	Notified     int `json:"notified"`
	AlreadyToday int `json:"already_today"`
}

// OverdueWorker is the clock-driven trigger. It re-aggregates records whose
// action items went overdue and emits one overdue event per record per day.
type OverdueWorker struct {
	records    RecordRepository
	aggregator *Aggregator
	gate       DayGate
	bus        *events.Bus
	clock      Clock
	logger     *zap.SugaredLogger
}

// NewOverdueWorker creates a new background overdue worker
func NewOverdueWorker(records RecordRepository, aggregator *Aggregator, gate DayGate, bus *events.Bus, clock Clock, logger *zap.SugaredLogger) *OverdueWorker {
	return &OverdueWorker{
		records:    records,
		aggregator: aggregator,
		gate:       gate,
		bus:        bus,
		clock:      clock,
		logger:     logger,
	}
}

// Start begins the periodic sweep loop
func (w *OverdueWorker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.run(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Overdue worker stopped")
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

func (w *OverdueWorker) run(ctx context.Context) {
	res, err := w.Sweep(ctx)
	if err != nil {
		w.logger.Errorw("Overdue sweep failed", "error", err)
		return
	}
	w.logger.Infow("Overdue sweep complete",
		"reaggregated", res.Reaggregated,
		"overdue", res.Overdue,
		"notified", res.Notified,
		"already_today", res.AlreadyToday,
	)
}

// Sweep runs one pass. Running it twice on the same day notifies nobody twice.
func (w *OverdueWorker) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := w.clock.Now()
	day := lifecycle.DateString(now)

	late, err := w.records.ListWithLateItems(ctx, now)
	if err != nil {
		return res, err
	}
	for _, id := range late {
		if _, err := w.aggregator.Recompute(ctx, id); err != nil {
			w.logger.Warnw("Re-aggregation failed", "record_id", id, "error", err)
			continue
		}
		res.Reaggregated++
	}

	recs, err := w.records.ListPastDeadline(ctx, now)
	if err != nil {
		return res, err
	}
	for i := range recs {
		rec := &recs[i]
		if !lifecycle.Overdue(rec, now) {
			continue
		}
		res.Overdue++

		ok, err := w.gate.Claim(ctx, fmt.Sprintf("%s:%s", rec.Kind, rec.ID), day)
		if err != nil {
			// the notification occurrence key still dedupes per day
			w.logger.Warnw("Overdue gate unavailable", "report_number", rec.ReportNumber, "error", err)
			ok = true
		}
		if !ok {
			res.AlreadyToday++
			continue
		}
		w.bus.Publish(ctx, events.Event{
			Topic:      events.RecordOverdue,
			RecordID:   rec.ID,
			Record:     rec,
			Occurrence: day,
		})
		res.Notified++
	}
	return res, nil
}
