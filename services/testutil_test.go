package services

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"metaCoreAPI/internal/authz"
	"metaCoreAPI/internal/profile"
)

// setupTestDB connects to the database named by TEST_DATABASE_URL. Tests
// that need a live database skip when it is not set.
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

	t.Cleanup(func() {
		cleanupTestData(t, pool)
		pool.Close()
	})

	return pool
}

func cleanupTestData(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	statements := []string{
		"DELETE FROM challenges WHERE title LIKE 'Test %'",
		"DELETE FROM products WHERE name LIKE 'Test %'",
		"DELETE FROM waitlist WHERE email LIKE 'test%@example.com'",
		"DELETE FROM profiles WHERE email LIKE 'test%@example.com'",
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Logf("Warning: failed to cleanup test data: %v", err)
		}
	}
}

// testAdminPolicy treats testadmin@example.com as privileged.
func testAdminPolicy() *authz.Policy {
	return authz.NewPolicy("testadmin@example.com")
}

func createTestProfile(t *testing.T, svc *ProfileService, tag string) *profile.Profile {
	t.Helper()

	clerkID := fmt.Sprintf("user_test_%s_%d", tag, time.Now().UnixNano())
	p, err := svc.CreateProfile(context.Background(), &profile.CreateProfileRequest{
		ClerkID:  clerkID,
		Email:    fmt.Sprintf("test%s%d@example.com", tag, time.Now().UnixNano()),
		Username: "test_" + tag,
		FullName: "Test " + tag,
	})
	require.NoError(t, err)
	return p
}

func createTestAdmin(t *testing.T, svc *ProfileService) *profile.Profile {
	t.Helper()

	clerkID := fmt.Sprintf("user_test_admin_%d", time.Now().UnixNano())
	p, err := svc.CreateProfile(context.Background(), &profile.CreateProfileRequest{
		ClerkID:  clerkID,
		Email:    "testadmin@example.com",
		Username: "test_admin",
		FullName: "Test Admin",
	})
	require.NoError(t, err)
	return p
}

func createTestProduct(t *testing.T, pool *pgxpool.Pool, name string, price float64) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
	INSERT INTO products (id, name, description, category, price, image_url, click_count, is_active, created_at)
	VALUES ($1, $2, '', 'gear', $3, '', 0, true, NOW())
	`, id, name, price)
	require.NoError(t, err)
	return id
}
