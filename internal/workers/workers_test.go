package workers

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaCoreAPI/internal/notification"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, pool.Ping(ctx), "Failed to ping test database")

	t.Cleanup(pool.Close)
	return pool
}

func insertTestProfile(t *testing.T, pool *pgxpool.Pool, tag string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
	INSERT INTO profiles (id, clerk_id, email, username)
	VALUES ($1, $2, $3, $4)
	`, id,
		fmt.Sprintf("user_test_%s_%d", tag, time.Now().UnixNano()),
		fmt.Sprintf("test%s%d@example.com", tag, time.Now().UnixNano()),
		"test_"+tag)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM profiles WHERE id = $1`, id)
	})
	return id
}

func insertTestChallenge(t *testing.T, pool *pgxpool.Pool, createdBy uuid.UUID, title string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
	INSERT INTO challenges (id, title, description, category, duration_days, created_by)
	VALUES ($1, $2, '', 'health', 7, $3)
	`, id, title, createdBy)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM challenges WHERE id = $1`, id)
	})
	return id
}

func insertParticipation(t *testing.T, pool *pgxpool.Pool, userID, challengeID uuid.UUID) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
	INSERT INTO user_challenges (id, user_id, challenge_id)
	VALUES ($1, $2, $3)
	`, id, userID, challengeID)
	require.NoError(t, err)
	return id
}

// notificationRecorder captures Create calls instead of writing rows.
type notificationRecorder struct {
	mu      sync.Mutex
	entries []recordedNotification
}

type recordedNotification struct {
	userID uuid.UUID
	typ    notification.Type
}

func (r *notificationRecorder) Create(ctx context.Context, userID uuid.UUID, typ notification.Type, title, body string, actorID *uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recordedNotification{userID: userID, typ: typ})
	return nil
}

func (r *notificationRecorder) countFor(userID uuid.UUID, typ notification.Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.entries {
		if e.userID == userID && e.typ == typ {
			n++
		}
	}
	return n
}

func TestSendCheckInReminders(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	due := insertTestProfile(t, pool, "due")
	done := insertTestProfile(t, pool, "done")
	ch := insertTestChallenge(t, pool, due, "Test Reminder Sweep")

	insertParticipation(t, pool, due, ch)
	doneParticipation := insertParticipation(t, pool, done, ch)

	// The second member already checked in today
	_, err := pool.Exec(ctx, `
	INSERT INTO challenge_check_ins (id, participation_id, day_number)
	VALUES ($1, $2, 1)
	`, uuid.New(), doneParticipation)
	require.NoError(t, err)

	rec := &notificationRecorder{}
	sendCheckInReminders(ctx, pool, rec)

	assert.Equal(t, 1, rec.countFor(due, notification.TypeChallengeReminder))
	assert.Zero(t, rec.countFor(done, notification.TypeChallengeReminder))

	// A reminder already sent today suppresses another one
	_, err = pool.Exec(ctx, `
	INSERT INTO notifications (id, user_id, type, title)
	VALUES ($1, $2, 'challenge_reminder', 'Test reminder')
	`, uuid.New(), due)
	require.NoError(t, err)

	sendCheckInReminders(ctx, pool, rec)
	assert.Equal(t, 1, rec.countFor(due, notification.TypeChallengeReminder))
}

func TestAnnounceTrendingChallenge(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	creator := insertTestProfile(t, pool, "creator")
	follower := insertTestProfile(t, pool, "follower")
	bystander := insertTestProfile(t, pool, "bystander")
	ch := insertTestChallenge(t, pool, creator, "Test Trending")

	// Enough fresh joins to top the last-day ranking
	for i := 0; i < 5; i++ {
		joiner := insertTestProfile(t, pool, fmt.Sprintf("joiner%d", i))
		insertParticipation(t, pool, joiner, ch)
	}

	_, err := pool.Exec(ctx, `
	INSERT INTO follows (follower_id, following_id)
	VALUES ($1, $2)
	`, follower, creator)
	require.NoError(t, err)

	rec := &notificationRecorder{}
	announceTrendingChallenge(ctx, pool, rec)

	assert.Equal(t, 1, rec.countFor(follower, notification.TypeTrendingChallenge))
	assert.Zero(t, rec.countFor(bystander, notification.TypeTrendingChallenge))
}
