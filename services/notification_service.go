package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"metaCoreAPI/internal/apperr"
	"metaCoreAPI/internal/notification"
)

// PushProvider delivers a push message to a set of device tokens. The FCM
// client implements it; tests inject fakes.
type PushProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

type NotificationService struct {
	db           *pgxpool.Pool
	pushProvider PushProvider
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) SetPushProvider(p PushProvider) {
	s.pushProvider = p
}

// Create inserts a notification row and pushes it to the user's devices.
// Push delivery is best effort; a push failure never fails the insert.
func (s *NotificationService) Create(ctx context.Context, userID uuid.UUID, typ notification.Type, title, body string, actorID *uuid.UUID) error {
	n := &notification.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Body:      body,
		ActorID:   actorID,
		CreatedAt: time.Now(),
	}

	query := `
	INSERT INTO notifications (id, user_id, type, title, body, actor_id, is_read, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, false, $7)
	`
	_, err := s.db.Exec(ctx, query, n.ID, n.UserID, n.Type, n.Title, n.Body, n.ActorID, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	if s.pushProvider != nil {
		tokens, err := s.deviceTokens(ctx, userID)
		if err != nil {
			log.Printf("Notification push skipped, could not load tokens for %s: %v", userID, err)
			return nil
		}
		if err := s.pushProvider.SendPush(ctx, tokens, title, body, map[string]any{"type": string(typ)}); err != nil {
			log.Printf("Notification push failed for %s: %v", userID, err)
		}
	}

	return nil
}

func (s *NotificationService) deviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `SELECT token, platform FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (s *NotificationService) List(ctx context.Context, clerkID string, limit int) ([]*notification.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, user_id, type, title, body, actor_id, is_read, created_at
	FROM notifications
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		n := &notification.Notification{}
		err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.ActorID, &n.IsRead, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, clerkID string) (int, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return 0, err
	}

	var count int
	err = s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, clerkID string, notificationID string) error {
	nID, err := uuid.Parse(notificationID)
	if err != nil {
		return fmt.Errorf("invalid notification id: %w", apperr.ErrValidation)
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`, nID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification: %w", apperr.ErrNotFound)
	}

	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, clerkID string) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return nil
}

func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID string, req *notification.RegisterDeviceRequest) error {
	if req.Token == "" {
		return fmt.Errorf("device token is required: %w", apperr.ErrValidation)
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO device_tokens (user_id, token, platform, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform
	`
	_, err = s.db.Exec(ctx, query, userID, req.Token, req.Platform, time.Now())
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}

	return nil
}
