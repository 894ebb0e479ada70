package notification

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeChallengeReminder  Type = "challenge_reminder"
	TypeNewFollower        Type = "new_follower"
	TypeLike               Type = "like"
	TypeComment            Type = "comment"
	TypeMilestone          Type = "milestone"
	TypeTrendingChallenge  Type = "trending_challenge"
	TypeChallengeCompleted Type = "challenge_completed"
)

type Notification struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	Type      Type       `json:"type" db:"type"`
	Title     string     `json:"title" db:"title"`
	Body      string     `json:"body" db:"body"`
	ActorID   *uuid.UUID `json:"actor_id,omitempty" db:"actor_id"`
	IsRead    bool       `json:"is_read" db:"is_read"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

type DeviceToken struct {
	Token    string `json:"token" db:"token"`
	Platform string `json:"platform" db:"platform"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}
