// Package app assembles the storage, event bus, services and workers from a
// Config. The server and the operator CLI share this wiring.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/config"
	"github.com/aawaaz/ehs-server/internal/database"
	"github.com/aawaaz/ehs-server/internal/events"
	"github.com/aawaaz/ehs-server/internal/lifecycle"
	"github.com/aawaaz/ehs-server/internal/mail"
	"github.com/aawaaz/ehs-server/internal/memstore"
	"github.com/aawaaz/ehs-server/internal/services"
)

// App holds every wired component
type App struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
	Clock services.Clock
	Bus   *events.Bus

	Records       services.RecordRepository
	Notifications services.NotificationRepository
	Rules         services.RuleAdmin

	RecordService *services.RecordService
	Approvals     *services.ApprovalWorkflow
	ActionItems   *services.ActionItemService
	Inbox         *services.InboxService
	Aggregator    *services.Aggregator
	Overdue       *services.OverdueWorker
	MailWorkers   []*services.MailWorker

	logger *zap.SugaredLogger
}

// Build connects to Postgres and Redis and wires the services. Without
// DATABASE_URL outside production everything runs on the in-memory store.
// Without Redis outside production email is sent inline.
func Build(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	a := &App{
		Clock:  services.SystemClock{Location: cfg.Location},
		Bus:    events.NewBus(logger),
		logger: logger,
	}

	var (
		items     services.ActionItemRepository
		directory services.Directory
		gate      services.DayGate
	)
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPool(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.Pool = pool
		if err := database.Migrate(ctx, pool); err != nil {
			a.Close()
			return nil, err
		}
		a.Records = services.NewRecordStore(pool, logger)
		items = services.NewActionItemStore(pool, logger)
		a.Notifications = services.NewNotificationStore(pool, logger)
		directory = services.NewDirectoryStore(pool, logger)
		a.Rules = services.NewRuleStore(pool, logger)
	} else {
		logger.Warn("DATABASE_URL not set, using the in-memory store")
		store := memstore.New()
		a.Records = store.Records
		items = store.Items
		a.Notifications = store.Notifications
		directory = store.Directory
		a.Rules = store.Rules
		gate = store.Gate
	}

	if cfg.RulesFile != "" {
		set, err := services.LoadRuleset(cfg.RulesFile)
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := services.SeedRules(ctx, a.Rules, set, logger); err != nil {
			a.Close()
			return nil, fmt.Errorf("seed rules: %w", err)
		}
	}

	rdb, err := database.NewRedis(cfg.RedisURL)
	switch {
	case err == nil:
		a.Redis = rdb
		gate = services.NewRedisDayGate(rdb, "ehs:overdue")
	case cfg.IsProduction():
		a.Close()
		return nil, err
	default:
		logger.Warnw("Redis unavailable, sending email inline", "error", err)
		if gate == nil {
			gate = memstore.New().Gate
		}
	}

	transport, err := mail.NewTransport(mail.Options{
		Kind: cfg.Mail.Transport,
		From: cfg.Mail.From,
		SMTP: mail.SMTPConfig{
			Host:     cfg.Mail.SMTPHost,
			Port:     cfg.Mail.SMTPPort,
			Username: cfg.Mail.SMTPUsername,
			Password: cfg.Mail.SMTPPassword,
		},
		APIURL: cfg.Mail.APIURL,
		APIKey: cfg.Mail.APIKey,
		Logger: logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	var sender mail.Sender = mail.Direct{Transport: transport}
	if a.Redis != nil {
		queue := services.NewMailQueue(a.Redis, cfg.Mail.QueueKey, logger)
		sender = queue
		for i := 0; i < cfg.Mail.Workers; i++ {
			a.MailWorkers = append(a.MailWorkers,
				services.NewMailWorker(queue, transport, a.Notifications, a.Clock, cfg.Mail.MaxAttempts, logger))
		}
	}

	renderer, err := services.NewRenderer()
	if err != nil {
		a.Close()
		return nil, err
	}
	router := services.NewStakeholderRouter(a.Rules, directory, cfg.FallbackToAdmins, logger)
	dispatcher := services.NewDispatcher(a.Notifications, sender, renderer, a.Clock, logger)

	// the aggregator subscribes first so status changes are persisted before routing
	a.Aggregator = services.NewAggregator(a.Records, a.Bus, a.Clock, logger)
	services.NewNotifier(a.Records, router, dispatcher, a.Bus, logger)

	a.RecordService = services.NewRecordService(a.Records, items, lifecycle.DefaultDeadlinePolicy(cfg.HazardDeadlineDays), a.Bus, a.Clock, logger)
	a.Approvals = services.NewApprovalWorkflow(a.Records, a.Bus, a.Clock, logger)
	a.ActionItems = services.NewActionItemService(a.Records, items, a.Bus, a.Clock, logger)
	a.Inbox = services.NewInboxService(a.Notifications, a.Clock, logger)
	a.Overdue = services.NewOverdueWorker(a.Records, a.Aggregator, gate, a.Bus, a.Clock, logger)
	return a, nil
}

// Close releases the connections
func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
