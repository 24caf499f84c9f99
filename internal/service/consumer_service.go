package service

import (
	"context"
	"encoding/json"

	"agora-be/internal/dto"
	"agora-be/internal/pkg/logger"
	"agora-be/internal/pkg/mailer"
	"agora-be/internal/repository/specification"
	"agora-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// maxDeliveryAttempts bounds redeliveries of a result message whose
// database reads keep failing. The gochannel pub/sub redelivers a nacked
// message immediately, so an unbounded nack loop would spin hot.
const maxDeliveryAttempts = 3

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the result-mail queue: one message per closed
// session, one mail per participant.
type consumerService struct {
	pubSub       *gochannel.GoChannel
	topicName    string
	uowFactory   unitofwork.RepositoryFactory
	emailService mailer.IEmailService
	log          logger.ILogger

	// attempts tracks delivery counts per message UUID. Only the single
	// Consume goroutine touches it.
	attempts map[string]int
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	emailService mailer.IEmailService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:       pubSub,
		topicName:    topicName,
		uowFactory:   uowFactory,
		emailService: emailService,
		log:          log,
		attempts:     make(map[string]int),
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()
	return nil
}

// retryOrDrop nacks the message for redelivery until maxDeliveryAttempts is
// reached, then logs and acks so a persistently failing message cannot wedge
// the queue.
func (cs *consumerService) retryOrDrop(msg *message.Message, reason string, fields map[string]interface{}) {
	cs.attempts[msg.UUID]++
	if cs.attempts[msg.UUID] < maxDeliveryAttempts {
		msg.Nack()
		return
	}
	delete(cs.attempts, msg.UUID)
	fields["attempts"] = maxDeliveryAttempts
	cs.log.Error("ConsumerService", "dropping result message: "+reason, fields)
	msg.Ack()
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.SessionResultMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("ConsumerService", "bad result message, dropping", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	participants, err := uow.SessionRepository().FindParticipants(ctx, payload.SessionId)
	if err != nil {
		cs.retryOrDrop(msg, "failed to load participants", map[string]interface{}{
			"session_id": payload.SessionId.String(),
			"error":      err.Error(),
		})
		return
	}

	userIds := make([]uuid.UUID, 0, len(participants))
	for _, p := range participants {
		userIds = append(userIds, p.UserId)
	}
	if len(userIds) == 0 {
		delete(cs.attempts, msg.UUID)
		msg.Ack()
		return
	}
	users, err := uow.UserRepository().FindAll(ctx, specification.ByIDs{IDs: userIds})
	if err != nil {
		cs.retryOrDrop(msg, "failed to load recipients", map[string]interface{}{
			"session_id": payload.SessionId.String(),
			"error":      err.Error(),
		})
		return
	}

	lines := make([]mailer.ResultLine, 0, len(payload.Winners))
	for _, w := range payload.Winners {
		lines = append(lines, mailer.ResultLine{Title: w.Title, YesVotes: w.YesVotes, NoVotes: w.NoVotes})
	}

	sent := 0
	for _, user := range users {
		if err := cs.emailService.SendSessionResults(user.Email, payload.SessionTitle, lines); err != nil {
			// Per-recipient failures don't block the batch.
			cs.log.Warn("ConsumerService", "result mail failed", map[string]interface{}{
				"email": user.Email,
				"error": err.Error(),
			})
			continue
		}
		sent++
	}
	cs.log.Info("ConsumerService", "session results delivered", map[string]interface{}{
		"session_id": payload.SessionId.String(),
		"recipients": sent,
	})
	delete(cs.attempts, msg.UUID)
	msg.Ack()
}
