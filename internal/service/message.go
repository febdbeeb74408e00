package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aniladanir/mailing-campaign-service/internal/domain"
	messageRepo "github.com/aniladanir/mailing-campaign-service/internal/repository/message"
	"github.com/aniladanir/mailing-campaign-service/internal/transport"
)

// MessageProcessor runs one send attempt of a message through the message
// state machine.
type MessageProcessor struct {
	messageRepo messageRepo.Repository
	sender      transport.Sender
	clock       Clock
	zones       *ZoneResolver
	localTZ     *time.Location
	logger      *slog.Logger
}

func NewMessageProcessor(messageRepo messageRepo.Repository, sender transport.Sender, clock Clock, zones *ZoneResolver, localTZ *time.Location, logger *slog.Logger) *MessageProcessor {
	if localTZ == nil {
		localTZ = time.UTC
	}
	return &MessageProcessor{
		messageRepo: messageRepo,
		sender:      sender,
		clock:       clock,
		zones:       zones,
		localTZ:     localTZ,
		logger:      logger,
	}
}

// AttemptSend evaluates the message and, when allowed, delivers it. Callers
// must not run two attempts for the same id at once.
func (p *MessageProcessor) AttemptSend(ctx context.Context, id int64) error {
	msgLogger := p.logger.With(slog.Int64("messageId", id))

	msg, err := p.messageRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load message: %w", err)
	}
	if msg.Status == domain.StatusSuccess {
		return nil
	}

	now := p.clock.Now()
	expired := msg.Campaign.HasExpired(now)
	windowOpen := true
	if !expired && msg.Campaign.IsTimeAware() {
		local, err := p.zones.LocalTime(now, msg.Client.Timezone.Name)
		if err != nil {
			return fmt.Errorf("client %d: %w", msg.ClientID, err)
		}
		windowOpen = domain.WindowOpen(&msg.Campaign, local)
	}

	decision := domain.DecideMessage(msg.Status, expired, windowOpen)
	switch decision.Step {
	case domain.StepNone:
		return nil
	case domain.StepPersist:
		msg.Status = decision.Next
		if err := p.messageRepo.UpdateStatus(ctx, msg); err != nil {
			return fmt.Errorf("failed to update message status to %s: %w", decision.Next, err)
		}
		messageTransitionsTotal.WithLabelValues(string(decision.Next)).Inc()
		msgLogger.Info("message " + decision.Reason)
		return nil
	}

	phone, err := strconv.ParseInt(msg.Client.Phone, 10, 64)
	if err != nil {
		return fmt.Errorf("client %d phone %q: %w", msg.ClientID, msg.Client.Phone, domain.ErrInvalidPhone)
	}

	ok, code := p.sender.Send(ctx, msg.ID, msg.Campaign.Text, phone)
	domain.MessageAfterSend(msg, ok, p.clock.Now().In(p.localTZ))

	if err := p.messageRepo.UpdateStatus(ctx, msg); err != nil {
		return fmt.Errorf("failed to update message status to %s: %w", msg.Status, err)
	}
	messageTransitionsTotal.WithLabelValues(string(msg.Status)).Inc()

	if !ok {
		msgLogger.Info("message has failed to be sent", "statusCode", code)
		return nil
	}

	msgLogger.Info("message has been sent", "statusCode", code)
	if err := p.messageRepo.CacheSentMessage(ctx, msg.ID, *msg.SentAt); err != nil {
		msgLogger.Warn("failed to cache sent message", "error", err.Error())
	}
	return nil
}
