package post

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	ChallengeID      *uuid.UUID `json:"challenge_id,omitempty" db:"challenge_id"`
	ParticipationID  *uuid.UUID `json:"participation_id,omitempty" db:"participation_id"`
	Content          string     `json:"content" db:"content"`
	MediaURL         string     `json:"media_url" db:"media_url"`
	MediaType        string     `json:"media_type" db:"media_type"`
	IsCompletionPost bool       `json:"is_completion_post" db:"is_completion_post"`
	LikeCount        int        `json:"like_count" db:"like_count"`
	CommentCount     int        `json:"comment_count" db:"comment_count"`
	Username         string     `json:"username" db:"username"`
	AvatarURL        string     `json:"avatar_url" db:"avatar_url"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

type Comment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	PostID    uuid.UUID `json:"post_id" db:"post_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Content   string    `json:"content" db:"content"`
	Username  string    `json:"username" db:"username"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreatePostRequest struct {
	Content   string `json:"content"`
	MediaURL  string `json:"media_url"`
	MediaType string `json:"media_type"`
}

type CreateCommentRequest struct {
	Content string `json:"content"`
}
