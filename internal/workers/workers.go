package workers

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"metaCoreAPI/internal/notification"
)

// NotificationCreator is the slice of the notification service the workers
// need. Keeping it an interface lets tests inject a recorder.
type NotificationCreator interface {
	Create(ctx context.Context, userID uuid.UUID, typ notification.Type, title, body string, actorID *uuid.UUID) error
}

// StartReminderWorker nudges participants of active challenges who have not
// checked in today. Runs once an hour until ctx is cancelled; the NOT EXISTS
// clause keeps a user from being reminded twice in the same day.
func StartReminderWorker(ctx context.Context, db *pgxpool.Pool, notifier NotificationCreator) {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sendCheckInReminders(ctx, db, notifier)
			}
		}
	}()
}

func sendCheckInReminders(parent context.Context, db *pgxpool.Pool, notifier NotificationCreator) {
	ctx, cancel := context.WithTimeout(parent, 5*time.Minute)
	defer cancel()

	query := `
	SELECT uc.user_id, c.title
	FROM user_challenges uc
	JOIN challenges c ON c.id = uc.challenge_id
	WHERE uc.is_completed = false
	  AND NOT EXISTS (
		SELECT 1 FROM challenge_check_ins ci
		WHERE ci.participation_id = uc.id
		  AND ci.created_at::date = CURRENT_DATE
	  )
	  AND NOT EXISTS (
		SELECT 1 FROM notifications n
		WHERE n.user_id = uc.user_id
		  AND n.type = 'challenge_reminder'
		  AND n.created_at::date = CURRENT_DATE
	  )
	`

	rows, err := db.Query(ctx, query)
	if err != nil {
		log.Printf("Reminder worker query failed: %v", err)
		return
	}
	defer rows.Close()

	type reminder struct {
		userID uuid.UUID
		title  string
	}
	var reminders []reminder
	for rows.Next() {
		var r reminder
		if err := rows.Scan(&r.userID, &r.title); err != nil {
			continue
		}
		reminders = append(reminders, r)
	}

	for _, r := range reminders {
		err := notifier.Create(ctx, r.userID, notification.TypeChallengeReminder,
			"Don't break your streak!",
			"You haven't checked in to \""+r.title+"\" today.", nil)
		if err != nil {
			log.Printf("Failed to create reminder for %s: %v", r.userID, err)
		}
	}
}

// StartTrendingWorker promotes the challenge with the most joins over the
// last day to everyone following the challenge's creator. Runs daily until
// ctx is cancelled.
func StartTrendingWorker(ctx context.Context, db *pgxpool.Pool, notifier NotificationCreator) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				announceTrendingChallenge(ctx, db, notifier)
			}
		}
	}()
}

func announceTrendingChallenge(parent context.Context, db *pgxpool.Pool, notifier NotificationCreator) {
	ctx, cancel := context.WithTimeout(parent, 5*time.Minute)
	defer cancel()

	var challengeID uuid.UUID
	var title string
	var creatorID uuid.UUID
	err := db.QueryRow(ctx, `
	SELECT c.id, c.title, c.created_by
	FROM challenges c
	JOIN user_challenges uc ON uc.challenge_id = c.id
	WHERE uc.joined_at > NOW() - INTERVAL '1 day'
	GROUP BY c.id, c.title, c.created_by
	ORDER BY COUNT(*) DESC
	LIMIT 1
	`).Scan(&challengeID, &title, &creatorID)
	if err != nil {
		// No joins in the last day is the common case, not an error worth logging
		return
	}

	rows, err := db.Query(ctx,
		`SELECT follower_id FROM follows WHERE following_id = $1`, creatorID)
	if err != nil {
		log.Printf("Trending worker query failed: %v", err)
		return
	}
	defer rows.Close()

	var followers []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			continue
		}
		followers = append(followers, id)
	}

	for _, followerID := range followers {
		err := notifier.Create(ctx, followerID, notification.TypeTrendingChallenge,
			"Trending challenge",
			"\""+title+"\" is taking off. Join before you fall behind!", &creatorID)
		if err != nil {
			log.Printf("Failed to create trending notification for %s: %v", followerID, err)
		}
	}
}
