package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/mail"
)

type queuedMail struct {
	Message  mail.Message `json:"message"`
	Attempts int          `json:"attempts"`
}

// MailQueue moves email delivery off the request path. Producers push onto a
// Redis list; MailWorker pops, sends and stamps the notification.
type MailQueue struct {
	rdb    *redis.Client
	key    string
	logger *zap.SugaredLogger
}

// NewMailQueue creates a queue stored under key
func NewMailQueue(rdb *redis.Client, key string, logger *zap.SugaredLogger) *MailQueue {
	return &MailQueue{rdb: rdb, key: key, logger: logger}
}

// Deliver implements mail.Sender by enqueueing
func (q *MailQueue) Deliver(ctx context.Context, msg mail.Message) (mail.Outcome, error) {
	if err := q.push(ctx, queuedMail{Message: msg}); err != nil {
		return mail.Queued, err
	}
	return mail.Queued, nil
}

// Len returns the number of pending messages
func (q *MailQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}

func (q *MailQueue) push(ctx context.Context, item queuedMail) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode mail: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue mail: %w", err)
	}
	return nil
}

func (q *MailQueue) deadLetterKey() string { return q.key + ":dead" }

// MailWorker drains the mail queue
type MailWorker struct {
	queue         *MailQueue
	transport     mail.Transport
	notifications NotificationRepository
	clock         Clock
	maxAttempts   int
	logger        *zap.SugaredLogger
}

// NewMailWorker creates a worker; failed sends are re-queued up to maxAttempts
// and then moved to the dead-letter list.
func NewMailWorker(queue *MailQueue, transport mail.Transport, notifications NotificationRepository, clock Clock, maxAttempts int, logger *zap.SugaredLogger) *MailWorker {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &MailWorker{
		queue:         queue,
		transport:     transport,
		notifications: notifications,
		clock:         clock,
		maxAttempts:   maxAttempts,
		logger:        logger,
	}
}

// Start blocks popping messages until ctx is cancelled
func (w *MailWorker) Start(ctx context.Context) {
	w.logger.Infow("Mail worker started", "queue", w.queue.key)
	for {
		res, err := w.queue.rdb.BRPop(ctx, 5*time.Second, w.queue.key).Result()
		if ctx.Err() != nil {
			w.logger.Info("Mail worker stopped")
			return
		}
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			w.logger.Errorw("Mail queue pop failed", "error", err)
			time.Sleep(time.Second)
			continue
		}
		w.handle(ctx, res[1])
	}
}

// Drain processes every message currently queued and returns how many were handled
func (w *MailWorker) Drain(ctx context.Context) (int, error) {
	n := 0
	for {
		raw, err := w.queue.rdb.RPop(ctx, w.queue.key).Result()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("pop mail: %w", err)
		}
		w.handle(ctx, raw)
		n++
	}
}

func (w *MailWorker) handle(ctx context.Context, raw string) {
	var item queuedMail
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		w.logger.Errorw("Dropping undecodable mail", "error", err)
		return
	}

	item.Attempts++
	if err := w.transport.Send(ctx, item.Message); err != nil {
		w.retry(ctx, item, raw, err)
		return
	}

	if err := w.notifications.MarkEmailSent(ctx, item.Message.NotificationID, w.clock.Now()); err != nil {
		w.logger.Errorw("Failed to stamp email sent",
			"notification_id", item.Message.NotificationID,
			"error", err,
		)
	}
}

func (w *MailWorker) retry(ctx context.Context, item queuedMail, raw string, sendErr error) {
	if item.Attempts >= w.maxAttempts {
		w.logger.Errorw("Email delivery abandoned",
			"to", item.Message.To,
			"notification_id", item.Message.NotificationID,
			"attempts", item.Attempts,
			"error", sendErr,
		)
		if err := w.queue.rdb.LPush(ctx, w.queue.deadLetterKey(), raw).Err(); err != nil {
			w.logger.Errorw("Failed to dead-letter mail", "error", err)
		}
		return
	}

	w.logger.Warnw("Email delivery failed, re-queued",
		"to", item.Message.To,
		"attempts", item.Attempts,
		"error", sendErr,
	)
	if err := w.queue.push(ctx, item); err != nil {
		w.logger.Errorw("Failed to re-queue mail", "error", err)
	}
}
