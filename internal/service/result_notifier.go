package service

import (
	"context"
	"encoding/json"

	"agora-be/internal/dto"
	"agora-be/internal/entity"
)

// resultNotifier bridges the session closer to the mail work queue: closing a
// session enqueues one message, the consumer does the slow SMTP fanout.
type resultNotifier struct {
	publisher IPublisherService
}

func NewResultNotifier(publisher IPublisherService) *resultNotifier {
	return &resultNotifier{publisher: publisher}
}

func (n *resultNotifier) NotifyResults(ctx context.Context, session *entity.Session, winners []*entity.TopProposal) error {
	msg := dto.SessionResultMessage{
		SessionId:    session.Id,
		SessionTitle: session.Title,
		Winners:      make([]dto.SessionResultLine, 0, len(winners)),
	}
	for _, w := range winners {
		msg.Winners = append(msg.Winners, dto.SessionResultLine{
			Title:    w.Title,
			YesVotes: w.YesVotes,
			NoVotes:  w.NoVotes,
		})
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return n.publisher.Publish(ctx, payload)
}
