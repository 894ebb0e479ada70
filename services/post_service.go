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
	"metaCoreAPI/internal/post"
)

type PostService struct {
	db            *pgxpool.Pool
	notifications *NotificationService
}

func NewPostService(db *pgxpool.Pool, notifications *NotificationService) *PostService {
	return &PostService{db: db, notifications: notifications}
}

func (s *PostService) CreatePost(ctx context.Context, clerkID string, req *post.CreatePostRequest) (*post.Post, error) {
	if req.Content == "" && req.MediaURL == "" {
		return nil, fmt.Errorf("post content is required: %w", apperr.ErrValidation)
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = "none"
	}

	p := &post.Post{
		ID:        uuid.New(),
		UserID:    userID,
		Content:   req.Content,
		MediaURL:  req.MediaURL,
		MediaType: mediaType,
		CreatedAt: time.Now(),
	}

	query := `
	INSERT INTO posts (id, user_id, content, media_url, media_type, is_completion_post, created_at)
	VALUES ($1, $2, $3, $4, $5, false, $6)
	`
	_, err = s.db.Exec(ctx, query, p.ID, p.UserID, p.Content, p.MediaURL, p.MediaType, p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return p, nil
}

// GetFeed returns the newest posts from the caller and everyone they
// follow, with like/comment counts and author info joined in.
func (s *PostService) GetFeed(ctx context.Context, clerkID string, limit int) ([]*post.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT p.id, p.user_id, p.challenge_id, p.participation_id, p.content, p.media_url, p.media_type,
	       p.is_completion_post, p.created_at,
	       pr.username, pr.avatar_url,
	       (SELECT COUNT(*) FROM post_likes pl WHERE pl.post_id = p.id) AS like_count,
	       (SELECT COUNT(*) FROM post_comments pc WHERE pc.post_id = p.id) AS comment_count
	FROM posts p
	JOIN profiles pr ON pr.id = p.user_id
	WHERE p.user_id = $1
	   OR p.user_id IN (SELECT following_id FROM follows WHERE follower_id = $1)
	ORDER BY p.created_at DESC
	LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}
	defer rows.Close()

	var posts []*post.Post
	for rows.Next() {
		p := &post.Post{}
		err := rows.Scan(
			&p.ID, &p.UserID, &p.ChallengeID, &p.ParticipationID, &p.Content, &p.MediaURL, &p.MediaType,
			&p.IsCompletionPost, &p.CreatedAt, &p.Username, &p.AvatarURL, &p.LikeCount, &p.CommentCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

// Like records a like; liking twice is a soft success backed by the unique
// index on (post_id, user_id).
func (s *PostService) Like(ctx context.Context, clerkID string, postID string) (alreadyLiked bool, err error) {
	pID, err := uuid.Parse(postID)
	if err != nil {
		return false, fmt.Errorf("invalid post id: %w", apperr.ErrValidation)
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return false, err
	}

	var ownerID uuid.UUID
	err = s.db.QueryRow(ctx, `SELECT user_id FROM posts WHERE id = $1`, pID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("post: %w", apperr.ErrNotFound)
		}
		return false, fmt.Errorf("failed to check post: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO post_likes (post_id, user_id, created_at) VALUES ($1, $2, $3)`,
		pID, userID, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return true, nil
		}
		return false, fmt.Errorf("failed to like post: %w", err)
	}

	if ownerID != userID {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.notifications.Create(ctx, ownerID, notification.TypeLike,
				"New like", "Someone liked your post.", &userID); err != nil {
				log.Printf("Like: notification failed for user %s: %v", ownerID, err)
			}
		}()
	}

	return false, nil
}

func (s *PostService) Unlike(ctx context.Context, clerkID string, postID string) error {
	pID, err := uuid.Parse(postID)
	if err != nil {
		return fmt.Errorf("invalid post id: %w", apperr.ErrValidation)
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, pID, userID)
	if err != nil {
		return fmt.Errorf("failed to unlike post: %w", err)
	}

	return nil
}

func (s *PostService) AddComment(ctx context.Context, clerkID string, postID string, req *post.CreateCommentRequest) (*post.Comment, error) {
	if req.Content == "" {
		return nil, fmt.Errorf("comment content is required: %w", apperr.ErrValidation)
	}

	pID, err := uuid.Parse(postID)
	if err != nil {
		return nil, fmt.Errorf("invalid post id: %w", apperr.ErrValidation)
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	var ownerID uuid.UUID
	err = s.db.QueryRow(ctx, `SELECT user_id FROM posts WHERE id = $1`, pID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("post: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to check post: %w", err)
	}

	c := &post.Comment{
		ID:        uuid.New(),
		PostID:    pID,
		UserID:    userID,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO post_comments (id, post_id, user_id, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.PostID, c.UserID, c.Content, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if ownerID != userID {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.notifications.Create(ctx, ownerID, notification.TypeComment,
				"New comment", "Someone commented on your post.", &userID); err != nil {
				log.Printf("AddComment: notification failed for user %s: %v", ownerID, err)
			}
		}()
	}

	return c, nil
}

func (s *PostService) ListComments(ctx context.Context, postID string) ([]*post.Comment, error) {
	pID, err := uuid.Parse(postID)
	if err != nil {
		return nil, fmt.Errorf("invalid post id: %w", apperr.ErrValidation)
	}

	query := `
	SELECT c.id, c.post_id, c.user_id, c.content, pr.username, c.created_at
	FROM post_comments c
	JOIN profiles pr ON pr.id = c.user_id
	WHERE c.post_id = $1
	ORDER BY c.created_at
	`

	rows, err := s.db.Query(ctx, query, pID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*post.Comment
	for rows.Next() {
		c := &post.Comment{}
		err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.Username, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}
