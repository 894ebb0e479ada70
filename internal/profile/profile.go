package profile

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID                  uuid.UUID `json:"id" db:"id"`
	ClerkID             string    `json:"clerk_id" db:"clerk_id"`
	Email               string    `json:"email" db:"email"`
	Username            string    `json:"username" db:"username"`
	FullName            string    `json:"full_name" db:"full_name"`
	AvatarURL           string    `json:"avatar_url" db:"avatar_url"`
	Bio                 string    `json:"bio" db:"bio"`
	ChallengesCompleted int       `json:"challenges_completed" db:"challenges_completed"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

type CreateProfileRequest struct {
	ClerkID   string `json:"clerk_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

type UpdateProfileRequest struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
	Bio       string `json:"bio"`
}

type ProfileStats struct {
	Followers           int `json:"followers"`
	Following           int `json:"following"`
	ChallengesCompleted int `json:"challenges_completed"`
}
