package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"metaCoreAPI/internal/apperr"
	"metaCoreAPI/internal/notification"
	"metaCoreAPI/internal/profile"
)

type ProfileService struct {
	db            *pgxpool.Pool
	notifications *NotificationService
}

func NewProfileService(db *pgxpool.Pool, notifications *NotificationService) *ProfileService {
	return &ProfileService{db: db, notifications: notifications}
}

// CreateProfile provisions a profile row for a newly registered identity.
// Called from the Clerk user.created webhook.
func (s *ProfileService) CreateProfile(ctx context.Context, req *profile.CreateProfileRequest) (*profile.Profile, error) {
	if req.ClerkID == "" || req.Email == "" {
		return nil, fmt.Errorf("clerk id and email are required: %w", apperr.ErrValidation)
	}

	p := &profile.Profile{
		ID:        uuid.New(),
		ClerkID:   req.ClerkID,
		Email:     req.Email,
		Username:  req.Username,
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := `
	INSERT INTO profiles (id, clerk_id, email, username, full_name, avatar_url, challenges_completed, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)
	`
	_, err := s.db.Exec(ctx, query, p.ID, p.ClerkID, p.Email, p.Username, p.FullName, p.AvatarURL, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("profile: %w", apperr.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return p, nil
}

func (s *ProfileService) GetByClerkID(ctx context.Context, clerkID string) (*profile.Profile, error) {
	query := `
	SELECT id, clerk_id, email, username, full_name, avatar_url, bio, challenges_completed, created_at, updated_at
	FROM profiles
	WHERE clerk_id = $1
	`

	p := &profile.Profile{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&p.ID, &p.ClerkID, &p.Email, &p.Username, &p.FullName, &p.AvatarURL, &p.Bio,
		&p.ChallengesCompleted, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return p, nil
}

func (s *ProfileService) GetByID(ctx context.Context, profileID string) (*profile.Profile, *profile.ProfileStats, error) {
	id, err := uuid.Parse(profileID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid profile id: %w", apperr.ErrValidation)
	}

	query := `
	SELECT id, clerk_id, email, username, full_name, avatar_url, bio, challenges_completed, created_at, updated_at
	FROM profiles
	WHERE id = $1
	`

	p := &profile.Profile{}
	err = s.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.ClerkID, &p.Email, &p.Username, &p.FullName, &p.AvatarURL, &p.Bio,
		&p.ChallengesCompleted, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("profile: %w", apperr.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("failed to get profile: %w", err)
	}

	stats := &profile.ProfileStats{ChallengesCompleted: p.ChallengesCompleted}
	err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM follows WHERE following_id = $1`, id).Scan(&stats.Followers)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count followers: %w", err)
	}
	err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM follows WHERE follower_id = $1`, id).Scan(&stats.Following)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count following: %w", err)
	}

	return p, stats, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, clerkID string, req *profile.UpdateProfileRequest) (*profile.Profile, error) {
	query := `
	UPDATE profiles
	SET
		username = COALESCE(NULLIF($2, ''), username),
		full_name = COALESCE(NULLIF($3, ''), full_name),
		avatar_url = COALESCE(NULLIF($4, ''), avatar_url),
		bio = COALESCE(NULLIF($5, ''), bio),
		updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING id, clerk_id, email, username, full_name, avatar_url, bio, challenges_completed, created_at, updated_at
	`

	p := &profile.Profile{}
	err := s.db.QueryRow(ctx, query, clerkID, req.Username, req.FullName, req.AvatarURL, req.Bio).Scan(
		&p.ID, &p.ClerkID, &p.Email, &p.Username, &p.FullName, &p.AvatarURL, &p.Bio,
		&p.ChallengesCompleted, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return p, nil
}

// Follow creates a follow edge. A duplicate follow is a soft success; the
// unique index on (follower_id, following_id) is the guard.
func (s *ProfileService) Follow(ctx context.Context, clerkID string, targetID string) (alreadyFollowing bool, err error) {
	target, err := uuid.Parse(targetID)
	if err != nil {
		return false, fmt.Errorf("invalid profile id: %w", apperr.ErrValidation)
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return false, err
	}

	if userID == target {
		return false, fmt.Errorf("cannot follow yourself: %w", apperr.ErrValidation)
	}

	var exists bool
	err = s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM profiles WHERE id = $1)`, target).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check profile: %w", err)
	}
	if !exists {
		return false, fmt.Errorf("profile: %w", apperr.ErrNotFound)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO follows (follower_id, following_id, created_at) VALUES ($1, $2, $3)`,
		userID, target, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return true, nil
		}
		return false, fmt.Errorf("failed to follow: %w", err)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifications.Create(ctx, target, notification.TypeNewFollower,
			"New follower", "Someone started following you.", &userID); err != nil {
			log.Printf("Follow: notification failed for user %s: %v", target, err)
		}
	}()

	return false, nil
}

func (s *ProfileService) Unfollow(ctx context.Context, clerkID string, targetID string) error {
	target, err := uuid.Parse(targetID)
	if err != nil {
		return fmt.Errorf("invalid profile id: %w", apperr.ErrValidation)
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`, userID, target)
	if err != nil {
		return fmt.Errorf("failed to unfollow: %w", err)
	}

	return nil
}

func (s *ProfileService) DeleteByClerkID(ctx context.Context, clerkID string) error {
	result, err := s.db.Exec(ctx, `DELETE FROM profiles WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile: %w", apperr.ErrNotFound)
	}
	return nil
}
