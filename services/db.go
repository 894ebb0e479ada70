package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"metaCoreAPI/internal/apperr"
)

// queryRower is satisfied by both *pgxpool.Pool and pgx.Tx so lookups can
// run inside or outside a transaction.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func userIDByClerkID(ctx context.Context, q queryRower, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := q.QueryRow(ctx, `SELECT id FROM profiles WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("profile for caller: %w", apperr.ErrNotFound)
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return userID, nil
}

// isUniqueViolation reports whether err is a SQLSTATE 23505 unique-constraint
// conflict. The unique indexes on user_challenges, cart_items, wishlist_items,
// follows, post_likes and waitlist are the real duplicate guard; pre-checks
// only exist for friendlier errors.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
