package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aniladanir/mailing-campaign-service/internal/cache"
	"github.com/aniladanir/mailing-campaign-service/internal/domain"
	messageRepo "github.com/aniladanir/mailing-campaign-service/internal/repository/message"
	"golang.org/x/sync/errgroup"
)

type Attempter interface {
	AttemptSend(ctx context.Context, id int64) error
}

// Router selects pending messages once per tick and fans the send attempts
// out to a bounded pool.
type Router struct {
	messageRepo messageRepo.Repository
	attempter   Attempter
	locker      cache.Locker
	workers     int
	lockTTL     time.Duration
	logger      *slog.Logger
}

func NewRouter(messageRepo messageRepo.Repository, attempter Attempter, locker cache.Locker, workers int, lockTTL time.Duration, logger *slog.Logger) *Router {
	if workers <= 0 {
		workers = 1
	}
	if lockTTL <= 0 {
		lockTTL = time.Minute * 5
	}
	return &Router{
		messageRepo: messageRepo,
		attempter:   attempter,
		locker:      locker,
		workers:     workers,
		lockTTL:     lockTTL,
		logger:      logger,
	}
}

// RoutePending dispatches an attempt for every ENQUEUED, DELAYED or FAILED
// message and waits for the dispatched attempts to finish. Attempts already
// in flight outlive ctx cancellation.
func (r *Router) RoutePending(ctx context.Context) error {
	msgs, err := r.messageRepo.FindByStatuses(ctx, domain.PendingStatuses...)
	if err != nil {
		return fmt.Errorf("failed to select pending messages: %w", err)
	}
	if len(msgs) == 0 {
		return nil
	}

	attemptCtx := context.WithoutCancel(ctx)
	g := new(errgroup.Group)
	g.SetLimit(r.workers)

	dispatched := 0
	for _, msg := range msgs {
		if ctx.Err() != nil {
			break
		}
		id := msg.ID
		g.Go(func() error {
			r.dispatch(attemptCtx, id)
			return nil
		})
		dispatched++
	}
	g.Wait()

	r.logger.Debug("routed pending messages", slog.Int("selected", len(msgs)), slog.Int("dispatched", dispatched))
	return ctx.Err()
}

func (r *Router) dispatch(ctx context.Context, id int64) {
	msgLogger := r.logger.With(slog.Int64("messageId", id))
	defer func() {
		if rec := recover(); rec != nil {
			itemErrorsTotal.WithLabelValues("send_message").Inc()
			msgLogger.Error("send attempt panicked", "panic", fmt.Sprint(rec))
		}
	}()

	key := "message:" + strconv.FormatInt(id, 10)

	locked, err := r.locker.TryLock(ctx, key, r.lockTTL)
	if err != nil {
		itemErrorsTotal.WithLabelValues("lock_message").Inc()
		msgLogger.Error("failed to lock message", "error", err.Error())
		return
	}
	if !locked {
		msgLogger.Debug("message attempt already in flight")
		return
	}
	defer func() {
		if err := r.locker.Unlock(ctx, key); err != nil {
			msgLogger.Warn("failed to unlock message", "error", err.Error())
		}
	}()

	inFlightAttempts.Inc()
	defer inFlightAttempts.Dec()

	if err := r.attempter.AttemptSend(ctx, id); err != nil {
		itemErrorsTotal.WithLabelValues("send_message").Inc()
		msgLogger.Error("send attempt failed", "error", err.Error())
	}
}
