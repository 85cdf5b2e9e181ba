package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"academic-auth-be/internal/model"
	"academic-auth-be/internal/pkg/logger"
	"academic-auth-be/internal/pkg/mailer"
	"academic-auth-be/internal/repository"
	"academic-auth-be/pkg/events"
	pktNats "academic-auth-be/pkg/nats"
	"academic-auth-be/pkg/settings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const MsgNotification = "notification"

// Target types of a notification template.
const (
	TargetSelf        = "SELF"
	TargetRole        = "ROLE"
	TargetInstitution = "INSTITUTION"
	TargetBroadcast   = "BROADCAST"
)

// EventSubscriber is the durable event stream consumer. The NATS
// subscriber implements it.
type EventSubscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error
}

type NotificationService struct {
	repo       repository.NotificationRepository
	subscriber EventSubscriber
	delivery   RealtimeDelivery
	email      mailer.IEmailService
	settings   *settings.Manager
	logger     logger.ILogger
}

func NewNotificationService(
	repo repository.NotificationRepository,
	sub EventSubscriber,
	delivery RealtimeDelivery,
	email mailer.IEmailService,
	settingsManager *settings.Manager,
	log logger.ILogger,
) *NotificationService {
	return &NotificationService{
		repo:       repo,
		subscriber: sub,
		delivery:   delivery,
		email:      email,
		settings:   settingsManager,
		logger:     log,
	}
}

// HasSubscriber reports whether an event stream is attached.
func (s *NotificationService) HasSubscriber() bool {
	return s.subscriber != nil
}

// Start begins listening to the event bus.
func (s *NotificationService) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, "events.>", "notif-service-worker", s.HandleEvent); err != nil {
		s.logger.Error("NOTIFICATION", "Failed to start notification subscriber", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("NOTIFICATION", "Notification service started, listening to events.>", nil)
	return nil
}

// HandleEvent turns one domain event into stored and delivered
// notifications. A returned error makes the stream redeliver the event.
func (s *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	typeCode := strings.TrimPrefix(event.EventType(), "events.")

	config, err := s.repo.GetNotificationTypeByCode(ctx, typeCode)
	if err != nil {
		s.logger.Warn("NOTIFICATION", fmt.Sprintf("Config not found for code: '%s'", typeCode), map[string]interface{}{"error": err.Error()})
		return nil
	}
	if !config.IsActive {
		s.logger.Info("NOTIFICATION", fmt.Sprintf("Notification type '%s' is inactive", typeCode), nil)
		return nil
	}

	// broadcasts are push-only, nothing is stored per user
	if config.TargetType == TargetBroadcast {
		if s.delivery != nil {
			s.delivery.Broadcast(MsgNotification, s.buildNotification(uuid.Nil, config, event))
		}
		return nil
	}

	recipients, err := s.resolveRecipients(ctx, config, event)
	if err != nil {
		s.logger.Error("NOTIFICATION", fmt.Sprintf("Error resolving recipients for %s", typeCode), map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("NOTIFICATION", "Recipients resolved", map[string]interface{}{"count": len(recipients), "type": config.TargetType})

	sendEmail := hasChannel(config, "email")
	for _, userID := range recipients {
		notif := s.buildNotification(userID, config, event)
		if err := s.repo.CreateNotification(ctx, &notif); err != nil {
			s.logger.Error("NOTIFICATION", fmt.Sprintf("Error saving notification for user %s", userID), map[string]interface{}{"error": err.Error()})
			continue
		}
		if s.delivery != nil {
			s.delivery.Send(userID, MsgNotification, notif)
		}
		if sendEmail {
			s.sendEmail(ctx, userID, config, event, notif)
		}
	}
	return nil
}

func (s *NotificationService) resolveRecipients(ctx context.Context, config *model.NotificationType, event events.Event) ([]uuid.UUID, error) {
	var userIDs []uuid.UUID

	switch config.TargetType {
	case TargetSelf:
		uid, err := uuid.Parse(events.String(event, "user_id"))
		if err != nil {
			s.logger.Warn("NOTIFICATION", fmt.Sprintf("TargetType SELF but no user_id found in payload for event %s", event.EventType()), nil)
			return nil, nil
		}
		userIDs = append(userIDs, uid)

	case TargetRole:
		users, err := s.repo.GetRecipients(ctx, config.TargetRole, nil)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			userIDs = append(userIDs, u.Id)
		}

	case TargetInstitution:
		instID, err := uuid.Parse(events.String(event, "institution_id"))
		if err != nil {
			s.logger.Warn("NOTIFICATION", fmt.Sprintf("TargetType INSTITUTION but no institution_id found in payload for event %s", event.EventType()), nil)
			return nil, nil
		}
		role := config.TargetRole
		if role == "" {
			role = "institution_admin"
		}
		users, err := s.repo.GetRecipients(ctx, role, &instID)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			userIDs = append(userIDs, u.Id)
		}
	}

	return userIDs, nil
}

func hasChannel(config *model.NotificationType, channel string) bool {
	var channels []string
	if err := json.Unmarshal(config.Channels, &channels); err != nil {
		return false
	}
	for _, c := range channels {
		if strings.EqualFold(c, channel) {
			return true
		}
	}
	return false
}

// emailAllowed applies the user's email notification preferences to an
// event code.
func emailAllowed(code string, prefs settings.EmailNotifications) bool {
	switch code {
	case events.VerificationCompleted, events.VerificationApproved:
		return prefs.VerificationComplete
	case events.VerificationRejected:
		return prefs.VerificationFailed
	case events.VerificationSubmitted:
		return prefs.VerificationComplete
	}
	return prefs.SecurityAlerts
}

func (s *NotificationService) sendEmail(ctx context.Context, userID uuid.UUID, config *model.NotificationType, event events.Event, notif model.Notification) {
	if s.email == nil {
		return
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil || user.Email == "" {
		return
	}
	if s.settings != nil {
		prefs, err := s.settings.Load(ctx, userID.String())
		if err != nil {
			s.logger.Warn("NOTIFICATION", "Failed to load settings, email skipped", map[string]interface{}{"user_id": userID, "error": err.Error()})
			return
		}
		if !emailAllowed(config.Code, prefs.Notifications.Email) {
			return
		}
	}

	if code := events.String(event, "code"); code != "" && strings.HasPrefix(config.Code, "VERIFICATION_") {
		err = s.email.SendVerificationResult(user.Email, mailer.VerificationMail{
			StudentName:  strings.TrimSpace(user.FirstName + " " + user.LastName),
			Code:         code,
			DocumentType: events.String(event, "document_type"),
			Institution:  events.String(event, "institution"),
			Status:       events.String(event, "status"),
			Confidence:   intValue(event.Payload()["score"]),
		})
	} else {
		err = s.email.SendNotification(user.Email, notif.Title, notif.Message)
	}
	if err != nil {
		s.logger.Error("NOTIFICATION", "Failed to send email", map[string]interface{}{"user_id": userID, "error": err.Error()})
	}
}

// intValue reads a number that may have gone through JSON.
func intValue(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func (s *NotificationService) buildNotification(userID uuid.UUID, config *model.NotificationType, event events.Event) model.Notification {
	msg := config.Template
	payload := event.Payload()

	for k, v := range payload {
		placeholder := fmt.Sprintf("{%s}", k)
		msg = strings.ReplaceAll(msg, placeholder, fmt.Sprintf("%v", v))
	}

	var actorID *uuid.UUID
	if aid, err := uuid.Parse(events.String(event, "actor_id")); err == nil {
		actorID = &aid
	}

	entityType := events.String(event, "entity_type")
	var entityID *uuid.UUID
	if eid, err := uuid.Parse(events.String(event, "entity_id")); err == nil {
		entityID = &eid
	}

	code := events.String(event, "code")
	metaMap := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		metaMap[k] = v
	}
	if code != "" {
		metaMap["action_url"] = "/verification-results?code=" + code
	}
	metaJSON, _ := json.Marshal(metaMap)

	return model.Notification{
		ID:               uuid.New(),
		UserID:           userID,
		ActorID:          actorID,
		TypeCode:         config.Code,
		Priority:         config.Priority,
		VerificationCode: code,
		Title:            config.DisplayName,
		Message:          msg,
		Metadata:         datatypes.JSON(metaJSON),
		EntityType:       entityType,
		EntityID:         entityID,
		CreatedAt:        time.Now(),
	}
}

func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	return s.repo.GetNotificationsByUserID(ctx, userID, limit, offset)
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
