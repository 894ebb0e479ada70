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
	"metaCoreAPI/internal/authz"
	"metaCoreAPI/internal/challenge"
	"metaCoreAPI/internal/notification"
)

type ChallengeService struct {
	db            *pgxpool.Pool
	notifications *NotificationService
	policy        *authz.Policy
}

func NewChallengeService(db *pgxpool.Pool, notifications *NotificationService, policy *authz.Policy) *ChallengeService {
	return &ChallengeService{db: db, notifications: notifications, policy: policy}
}

func (s *ChallengeService) CreateChallenge(ctx context.Context, clerkID string, req *challenge.CreateChallengeRequest) (*challenge.Challenge, error) {
	if req.Title == "" || req.Description == "" || req.Category == "" || req.DurationDays == 0 {
		return nil, fmt.Errorf("missing required fields: %w", apperr.ErrValidation)
	}
	if req.DurationDays < challenge.MinDurationDays || req.DurationDays > challenge.MaxDurationDays {
		return nil, fmt.Errorf("duration must be between %d and %d days: %w",
			challenge.MinDurationDays, challenge.MaxDurationDays, apperr.ErrValidation)
	}
	if !challenge.ValidCategory(req.Category) {
		return nil, fmt.Errorf("unknown category %q: %w", req.Category, apperr.ErrValidation)
	}

	var userID uuid.UUID
	var email string
	err := s.db.QueryRow(ctx, `SELECT id, email FROM profiles WHERE clerk_id = $1`, clerkID).Scan(&userID, &email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile for caller: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	if !s.policy.IsPrivileged(authz.Principal{UserID: userID.String(), Email: email}) {
		return nil, fmt.Errorf("only admins can create challenges: %w", apperr.ErrUnauthorized)
	}

	tasks := req.DailyTasks
	if tasks == nil {
		tasks = []string{}
	}

	ch := &challenge.Challenge{
		ID:           uuid.New(),
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		DurationDays: req.DurationDays,
		DailyTasks:   tasks,
		IsActive:     true,
		IsFeatured:   req.IsFeatured,
		CreatedBy:    userID,
		CreatedAt:    time.Now(),
	}

	query := `
	INSERT INTO challenges (id, title, description, category, duration_days, daily_tasks, is_active, is_featured, created_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.Exec(ctx, query,
		ch.ID, ch.Title, ch.Description, ch.Category, ch.DurationDays,
		ch.DailyTasks, ch.IsActive, ch.IsFeatured, ch.CreatedBy, ch.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	return ch, nil
}

// viewerID resolves an optional Clerk id best effort. An empty or unknown
// id reads as an anonymous viewer.
func (s *ChallengeService) viewerID(ctx context.Context, clerkID string) uuid.NullUUID {
	if clerkID == "" {
		return uuid.NullUUID{}
	}
	id, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: id, Valid: true}
}

// ListChallenges returns active challenges, featured first. When clerkID
// names a known profile each row carries whether that viewer already
// joined it; anonymous callers always see is_joined as false.
func (s *ChallengeService) ListChallenges(ctx context.Context, clerkID string) ([]*challenge.Challenge, error) {
	viewer := s.viewerID(ctx, clerkID)

	query := `
	SELECT c.id, c.title, c.description, c.category, c.duration_days, c.daily_tasks,
	       c.is_active, c.is_featured, c.created_by, c.created_at,
	       (SELECT COUNT(*) FROM user_challenges uc WHERE uc.challenge_id = c.id) AS participant_count,
	       COALESCE((SELECT AVG(CASE WHEN uc.is_completed THEN 1.0 ELSE 0.0 END)
	                 FROM user_challenges uc WHERE uc.challenge_id = c.id), 0) AS completion_rate,
	       EXISTS(SELECT 1 FROM user_challenges uc WHERE uc.challenge_id = c.id AND uc.user_id = $1) AS is_joined
	FROM challenges c
	WHERE c.is_active = true
	ORDER BY c.is_featured DESC, c.created_at DESC
	`

	rows, err := s.db.Query(ctx, query, viewer)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*challenge.Challenge
	for rows.Next() {
		ch := &challenge.Challenge{}
		err := rows.Scan(
			&ch.ID, &ch.Title, &ch.Description, &ch.Category, &ch.DurationDays,
			&ch.DailyTasks, &ch.IsActive, &ch.IsFeatured, &ch.CreatedBy, &ch.CreatedAt,
			&ch.ParticipantCount, &ch.CompletionRate, &ch.IsJoined,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, ch)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return challenges, nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, clerkID string, challengeID string) (*challenge.Challenge, error) {
	id, err := uuid.Parse(challengeID)
	if err != nil {
		return nil, fmt.Errorf("invalid challenge id: %w", apperr.ErrValidation)
	}

	viewer := s.viewerID(ctx, clerkID)

	query := `
	SELECT c.id, c.title, c.description, c.category, c.duration_days, c.daily_tasks,
	       c.is_active, c.is_featured, c.created_by, c.created_at,
	       (SELECT COUNT(*) FROM user_challenges uc WHERE uc.challenge_id = c.id) AS participant_count,
	       COALESCE((SELECT AVG(CASE WHEN uc.is_completed THEN 1.0 ELSE 0.0 END)
	                 FROM user_challenges uc WHERE uc.challenge_id = c.id), 0) AS completion_rate,
	       EXISTS(SELECT 1 FROM user_challenges uc WHERE uc.challenge_id = c.id AND uc.user_id = $2) AS is_joined
	FROM challenges c
	WHERE c.id = $1
	`

	ch := &challenge.Challenge{}
	err = s.db.QueryRow(ctx, query, id, viewer).Scan(
		&ch.ID, &ch.Title, &ch.Description, &ch.Category, &ch.DurationDays,
		&ch.DailyTasks, &ch.IsActive, &ch.IsFeatured, &ch.CreatedBy, &ch.CreatedAt,
		&ch.ParticipantCount, &ch.CompletionRate, &ch.IsJoined,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("challenge: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	return ch, nil
}

// JoinChallenge creates a participation starting at day 1 with no streak.
// The existence pre-check produces the friendly error; the unique index on
// (user_id, challenge_id) is what actually prevents duplicate rows when two
// joins race.
func (s *ChallengeService) JoinChallenge(ctx context.Context, clerkID string, challengeID string) (*challenge.Participation, error) {
	chID, err := uuid.Parse(challengeID)
	if err != nil {
		return nil, fmt.Errorf("invalid challenge id: %w", apperr.ErrValidation)
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	var exists bool
	err = s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM challenges WHERE id = $1 AND is_active = true)`, chID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check challenge: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("challenge: %w", apperr.ErrNotFound)
	}

	var existingID uuid.UUID
	err = s.db.QueryRow(ctx,
		`SELECT id FROM user_challenges WHERE user_id = $1 AND challenge_id = $2`, userID, chID).Scan(&existingID)
	if err == nil {
		return nil, fmt.Errorf("you've already joined this challenge: %w", apperr.ErrAlreadyExists)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check existing participation: %w", err)
	}

	p := &challenge.Participation{
		ID:          uuid.New(),
		UserID:      userID,
		ChallengeID: chID,
		CurrentDay:  1,
		StreakDays:  0,
		IsCompleted: false,
		JoinedAt:    time.Now(),
	}

	query := `
	INSERT INTO user_challenges (id, user_id, challenge_id, current_day, streak_days, is_completed, joined_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.Exec(ctx, query, p.ID, p.UserID, p.ChallengeID, p.CurrentDay, p.StreakDays, p.IsCompleted, p.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("you've already joined this challenge: %w", apperr.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to join challenge: %w", err)
	}

	return p, nil
}

// RecordCheckIn applies one check-in in a single transaction: insert the
// check-in row, advance current_day and streak_days, and on the completing
// check-in bump the profile counter and create the completion feed post.
// Day numbers are not validated against the expected current day and are
// not deduplicated; a repeat check-in for the same day persists a second
// row and bumps the streak again.
func (s *ChallengeService) RecordCheckIn(ctx context.Context, clerkID string, req *challenge.CheckInRequest) (*challenge.CheckInResult, error) {
	if req.ParticipationID == "" || req.DayNumber <= 0 {
		return nil, fmt.Errorf("participation id and day number are required: %w", apperr.ErrValidation)
	}

	participationID, err := uuid.Parse(req.ParticipationID)
	if err != nil {
		return nil, fmt.Errorf("invalid participation id: %w", apperr.ErrValidation)
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p := &challenge.Participation{}
	err = tx.QueryRow(ctx, `
	SELECT id, user_id, challenge_id, current_day, streak_days, is_completed, completed_at, last_check_in, joined_at
	FROM user_challenges
	WHERE id = $1
	FOR UPDATE
	`, participationID).Scan(
		&p.ID, &p.UserID, &p.ChallengeID, &p.CurrentDay, &p.StreakDays,
		&p.IsCompleted, &p.CompletedAt, &p.LastCheckIn, &p.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("challenge: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}

	// Ownership is checked by id equality; a foreign participation looks
	// the same as a missing one to the caller.
	if p.UserID != userID {
		return nil, fmt.Errorf("challenge: %w", apperr.ErrNotFound)
	}

	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = challenge.MediaNone
	}

	checkIn := &challenge.CheckIn{
		ID:              uuid.New(),
		ParticipationID: p.ID,
		DayNumber:       req.DayNumber,
		Content:         req.Content,
		MediaURL:        req.MediaURL,
		MediaType:       mediaType,
		CreatedAt:       time.Now(),
	}

	_, err = tx.Exec(ctx, `
	INSERT INTO challenge_check_ins (id, participation_id, day_number, content, media_url, media_type, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, checkIn.ID, checkIn.ParticipationID, checkIn.DayNumber, checkIn.Content, checkIn.MediaURL, checkIn.MediaType, checkIn.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create check-in: %w", err)
	}

	var durationDays int
	err = tx.QueryRow(ctx, `SELECT duration_days FROM challenges WHERE id = $1`, p.ChallengeID).Scan(&durationDays)
	if err != nil {
		log.Printf("RecordCheckIn: could not read challenge %s duration, using default: %v", p.ChallengeID, err)
		durationDays = challenge.DefaultDurationDays
	}

	progress := challenge.Advance(req.DayNumber, durationDays, p.StreakDays)
	justCompleted := progress.Completed && !p.IsCompleted
	now := time.Now()

	p.CurrentDay = progress.CurrentDay
	p.StreakDays = progress.StreakDays
	p.LastCheckIn = &now

	if justCompleted {
		p.IsCompleted = true
		p.CompletedAt = &now

		_, err = tx.Exec(ctx, `
		UPDATE user_challenges
		SET current_day = $2, streak_days = $3, last_check_in = $4, is_completed = true, completed_at = $4
		WHERE id = $1
		`, p.ID, p.CurrentDay, p.StreakDays, now)
		if err != nil {
			return nil, fmt.Errorf("failed to update participation: %w", err)
		}

		_, err = tx.Exec(ctx, `
		UPDATE profiles SET challenges_completed = challenges_completed + 1, updated_at = NOW()
		WHERE id = $1
		`, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to update completed count: %w", err)
		}

		_, err = tx.Exec(ctx, `
		INSERT INTO posts (id, user_id, challenge_id, participation_id, content, is_completion_post, created_at)
		VALUES ($1, $2, $3, $4, $5, true, $6)
		`, uuid.New(), userID, p.ChallengeID, p.ID, "Just completed the challenge! 🎉", now)
		if err != nil {
			return nil, fmt.Errorf("failed to create completion post: %w", err)
		}
	} else {
		_, err = tx.Exec(ctx, `
		UPDATE user_challenges
		SET current_day = $2, streak_days = $3, last_check_in = $4
		WHERE id = $1
		`, p.ID, p.CurrentDay, p.StreakDays, now)
		if err != nil {
			return nil, fmt.Errorf("failed to update participation: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if justCompleted {
		// Best effort, outside the transaction.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.notifications.Create(ctx, userID, notification.TypeChallengeCompleted,
				"Challenge completed", "You finished a challenge. Your completion post is live on the feed.", nil); err != nil {
				log.Printf("RecordCheckIn: completion notification failed for user %s: %v", userID, err)
			}
		}()
	} else if p.StreakDays > 0 && p.StreakDays%7 == 0 {
		streak := p.StreakDays
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.notifications.Create(ctx, userID, notification.TypeMilestone,
				"Streak milestone", fmt.Sprintf("%d days in a row. Keep it up!", streak), nil); err != nil {
				log.Printf("RecordCheckIn: milestone notification failed for user %s: %v", userID, err)
			}
		}()
	}

	return &challenge.CheckInResult{Participation: p, JustCompleted: justCompleted}, nil
}

func (s *ChallengeService) ListUserChallenges(ctx context.Context, clerkID string) ([]*challenge.Participation, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, user_id, challenge_id, current_day, streak_days, is_completed, completed_at, last_check_in, joined_at
	FROM user_challenges
	WHERE user_id = $1
	ORDER BY joined_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user challenges: %w", err)
	}
	defer rows.Close()

	var participations []*challenge.Participation
	for rows.Next() {
		p := &challenge.Participation{}
		err := rows.Scan(
			&p.ID, &p.UserID, &p.ChallengeID, &p.CurrentDay, &p.StreakDays,
			&p.IsCompleted, &p.CompletedAt, &p.LastCheckIn, &p.JoinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		participations = append(participations, p)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return participations, nil
}

func (s *ChallengeService) ListCheckIns(ctx context.Context, clerkID string, participationID string) ([]*challenge.CheckIn, error) {
	pID, err := uuid.Parse(participationID)
	if err != nil {
		return nil, fmt.Errorf("invalid participation id: %w", apperr.ErrValidation)
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT ci.id, ci.participation_id, ci.day_number, ci.content, ci.media_url, ci.media_type, ci.created_at
	FROM challenge_check_ins ci
	JOIN user_challenges uc ON uc.id = ci.participation_id
	WHERE ci.participation_id = $1 AND uc.user_id = $2
	ORDER BY ci.day_number, ci.created_at
	`

	rows, err := s.db.Query(ctx, query, pID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	defer rows.Close()

	var checkIns []*challenge.CheckIn
	for rows.Next() {
		ci := &challenge.CheckIn{}
		err := rows.Scan(&ci.ID, &ci.ParticipationID, &ci.DayNumber, &ci.Content, &ci.MediaURL, &ci.MediaType, &ci.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		checkIns = append(checkIns, ci)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return checkIns, nil
}
