package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"mamastoria/internal/models"
	"mamastoria/internal/repositories"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrAlreadyRead          = errors.New("notification already marked as read")
)

// PushNotifier delivers a push message to a device token.
type PushNotifier interface {
	Push(ctx context.Context, token, title, body string, data map[string]string) error
}

// LogPushNotifier only logs; used when no push provider is configured.
type LogPushNotifier struct{}

func (LogPushNotifier) Push(_ context.Context, token, title, _ string, data map[string]string) error {
	if token == "" {
		log.Warn().Msg("[push] no device token, skipped")
		return nil
	}
	log.Info().Str("title", title).Interface("data", data).Msg("[push] queued")
	return nil
}

// LiveNotifier delivers a stored notification to the user's open connections.
type LiveNotifier interface {
	Publish(userID int, n *models.Notification)
}

type NotificationService interface {
	Create(ctx context.Context, req models.CreateNotificationRequest) (*models.Notification, error)
	Notify(ctx context.Context, userID int, kind, title, message string, data map[string]any) error
	List(ctx context.Context, userID int, unreadOnly bool, limit, offset int) ([]*models.Notification, int64, error)
	UnreadCount(ctx context.Context, userID int) (int64, error)
	MarkRead(ctx context.Context, userID int, ids []int) (int64, error)
	MarkOneRead(ctx context.Context, userID, id int) error
	MarkAllRead(ctx context.Context, userID int) (int64, error)
	Delete(ctx context.Context, userID, id int) error
}

type notificationService struct {
	repo  repositories.NotificationRepository
	users repositories.UserRepository
	push  PushNotifier
	live  LiveNotifier // nil -> без realtime
}

func NewNotificationService(repo repositories.NotificationRepository, users repositories.UserRepository, push PushNotifier, live LiveNotifier) NotificationService {
	if push == nil {
		push = LogPushNotifier{}
	}
	return &notificationService{repo: repo, users: users, push: push, live: live}
}

func (s *notificationService) publish(n *models.Notification) {
	if s.live != nil {
		s.live.Publish(n.UserID, n)
	}
}

func (s *notificationService) Create(ctx context.Context, req models.CreateNotificationRequest) (*models.Notification, error) {
	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	n := &models.Notification{
		UserID:  req.UserID,
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
	}
	if req.Data != "" {
		n.Data = &req.Data
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	s.publish(n)
	return n, nil
}

// Notify stores an in-app notification and pushes it when the user has a device token.
func (s *notificationService) Notify(ctx context.Context, userID int, kind, title, message string, data map[string]any) error {
	n := &models.Notification{UserID: userID, Type: kind, Title: title, Message: message}
	pushData := map[string]string{"type": kind}
	if len(data) > 0 {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		str := string(raw)
		n.Data = &str
		for k, v := range data {
			if b, err := json.Marshal(v); err == nil {
				pushData[k] = string(b)
			}
		}
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.publish(n)

	u, err := s.users.GetByID(ctx, userID)
	if err != nil || u.FCMToken == nil || *u.FCMToken == "" {
		return nil
	}
	if err := s.push.Push(ctx, *u.FCMToken, title, message, pushData); err != nil {
		log.Warn().Err(err).Int("user_id", userID).Msg("[notifications][push] failed")
	}
	return nil
}

func (s *notificationService) List(ctx context.Context, userID int, unreadOnly bool, limit, offset int) ([]*models.Notification, int64, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID int) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, userID int, ids []int) (int64, error) {
	return s.repo.MarkRead(ctx, userID, ids)
}

func (s *notificationService) MarkOneRead(ctx context.Context, userID, id int) error {
	n, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && n.UserID != userID) {
		return ErrNotificationNotFound
	}
	if err != nil {
		return err
	}
	if n.IsRead() {
		return ErrAlreadyRead
	}
	_, err = s.repo.MarkRead(ctx, userID, []int{id})
	return err
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *notificationService) Delete(ctx context.Context, userID, id int) error {
	err := s.repo.Delete(ctx, userID, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotificationNotFound
	}
	return err
}
