package challenge

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryHealth        Category = "health"
	CategoryWealth        Category = "wealth"
	CategoryRelationships Category = "relationships"
)

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaNone  MediaType = "none"
)

const (
	MinDurationDays = 7
	MaxDurationDays = 30

	// DefaultDurationDays is assumed when the parent challenge row cannot
	// be read during a check-in.
	DefaultDurationDays = 30
)

type Challenge struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Title            string    `json:"title" db:"title"`
	Description      string    `json:"description" db:"description"`
	Category         Category  `json:"category" db:"category"`
	DurationDays     int       `json:"duration_days" db:"duration_days"`
	DailyTasks       []string  `json:"daily_tasks" db:"daily_tasks"`
	IsActive         bool      `json:"is_active" db:"is_active"`
	IsFeatured       bool      `json:"is_featured" db:"is_featured"`
	ParticipantCount int       `json:"participant_count" db:"participant_count"`
	CompletionRate   float64   `json:"completion_rate" db:"completion_rate"`
	IsJoined         bool      `json:"is_joined" db:"is_joined"`
	CreatedBy        uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// Participation is one user's attempt at one challenge. At most one row
// exists per (user, challenge) pair.
type Participation struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	ChallengeID uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	CurrentDay  int        `json:"current_day" db:"current_day"`
	StreakDays  int        `json:"streak_days" db:"streak_days"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	LastCheckIn *time.Time `json:"last_check_in" db:"last_check_in"`
	JoinedAt    time.Time  `json:"joined_at" db:"joined_at"`
}

type CheckIn struct {
	ID              uuid.UUID `json:"id" db:"id"`
	ParticipationID uuid.UUID `json:"participation_id" db:"participation_id"`
	DayNumber       int       `json:"day_number" db:"day_number"`
	Content         string    `json:"content" db:"content"`
	MediaURL        string    `json:"media_url" db:"media_url"`
	MediaType       MediaType `json:"media_type" db:"media_type"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

type CheckInRequest struct {
	ParticipationID string    `json:"participation_id"`
	DayNumber       int       `json:"day_number"`
	Content         string    `json:"content"`
	MediaURL        string    `json:"media_url"`
	MediaType       MediaType `json:"media_type"`
}

type CheckInResult struct {
	Participation *Participation `json:"participation"`
	JustCompleted bool           `json:"just_completed"`
}

type CreateChallengeRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     Category `json:"category"`
	DurationDays int      `json:"duration_days"`
	DailyTasks   []string `json:"daily_tasks"`
	IsFeatured   bool     `json:"is_featured"`
}

func ValidCategory(c Category) bool {
	switch c {
	case CategoryHealth, CategoryWealth, CategoryRelationships:
		return true
	}
	return false
}
