package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"agora-be/internal/model"
	"agora-be/internal/pkg/logger"
	"agora-be/internal/repository"
	"agora-be/pkg/events"
	pktNats "agora-be/pkg/nats"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NotificationDelivery pushes realtime updates, implemented by the websocket
// hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, notification model.Notification)
	BroadcastEvent(eventType string, payload map[string]interface{})
}

type NotificationService struct {
	repo       repository.NotificationRepository
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(repo repository.NotificationRepository, sub *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		repo:       repo,
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start attaches the durable consumer to the event bus.
func (s *NotificationService) Start() {
	if s.subscriber == nil {
		s.logger.Warn("NotificationService", "no event bus configured, notifications disabled", nil)
		return
	}
	if err := s.subscriber.Subscribe("events.>", "notif-service-worker", s.handleEvent); err != nil {
		s.logger.Error("NotificationService", "failed to start subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("NotificationService", "listening to events.>", nil)
}

// handleEvent turns one bus event into realtime pushes and, for admin-scoped
// types, persisted inbox rows. Unknown or inactive codes are dropped.
func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	typeCode := strings.TrimPrefix(event.EventType(), "events.")

	config, err := s.repo.GetNotificationTypeByCode(ctx, typeCode)
	if err != nil {
		s.logger.Warn("NotificationService", fmt.Sprintf("no config for code '%s'", typeCode), nil)
		return nil
	}
	if !config.IsActive {
		return nil
	}

	payload := event.Payload()

	// Session lifecycle is global: every connected client gets the push.
	if config.TargetType == "BROADCAST" {
		if s.delivery != nil {
			s.delivery.BroadcastEvent(typeCode, payload)
		}
		return nil
	}

	// Admin-scoped types (degraded sessions, forced actions) also land in
	// each admin's persistent inbox.
	admins, err := s.repo.GetUsersByRole(ctx, config.TargetRole)
	if err != nil {
		return err
	}
	for _, admin := range admins {
		notif := s.buildNotification(admin.Id, config, payload)
		if err := s.repo.CreateNotification(ctx, &notif); err != nil {
			s.logger.Error("NotificationService", "failed to persist notification", map[string]interface{}{
				"user_id": admin.Id.String(),
				"error":   err.Error(),
			})
			continue
		}
		if s.delivery != nil {
			s.delivery.Send(admin.Id, notif)
		}
	}
	return nil
}

func (s *NotificationService) buildNotification(userID uuid.UUID, config *model.NotificationType, payload map[string]interface{}) model.Notification {
	message := config.Template
	for key, value := range payload {
		message = strings.ReplaceAll(message, "{"+key+"}", fmt.Sprintf("%v", value))
	}
	meta, _ := json.Marshal(payload)

	return model.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		TypeCode:  config.Code,
		Title:     config.DisplayName,
		Message:   message,
		Metadata:  datatypes.JSON(meta),
		IsRead:    false,
		CreatedAt: time.Now(),
	}
}

func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	return s.repo.GetNotificationsByUserID(ctx, userID, limit, offset)
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, notificationID)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
