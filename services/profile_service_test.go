package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaCoreAPI/internal/apperr"
	"metaCoreAPI/internal/profile"
)

func TestUpdateProfile_PartialUpdate(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	notificationService := NewNotificationService(pool)
	profileService := NewProfileService(pool, notificationService)

	member := createTestProfile(t, profileService, "editor")

	updated, err := profileService.UpdateProfile(ctx, member.ClerkID, &profile.UpdateProfileRequest{
		Bio: "building habits",
	})
	require.NoError(t, err)

	assert.Equal(t, "building habits", updated.Bio)
	assert.Equal(t, member.Username, updated.Username, "empty fields must keep their value")
	assert.Equal(t, member.Email, updated.Email)
}

func TestFollow_SelfRejected(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	notificationService := NewNotificationService(pool)
	profileService := NewProfileService(pool, notificationService)

	member := createTestProfile(t, profileService, "narcissist")

	_, err := profileService.Follow(ctx, member.ClerkID, member.ID.String())
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestFollow_DuplicateIsSoftSuccess(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	notificationService := NewNotificationService(pool)
	profileService := NewProfileService(pool, notificationService)

	follower := createTestProfile(t, profileService, "follower")
	followed := createTestProfile(t, profileService, "followed")

	already, err := profileService.Follow(ctx, follower.ClerkID, followed.ID.String())
	require.NoError(t, err)
	assert.False(t, already)

	already, err = profileService.Follow(ctx, follower.ClerkID, followed.ID.String())
	require.NoError(t, err)
	assert.True(t, already)

	_, stats, err := profileService.GetByID(ctx, followed.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Followers)
}

func TestUnfollow(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	notificationService := NewNotificationService(pool)
	profileService := NewProfileService(pool, notificationService)

	follower := createTestProfile(t, profileService, "fickle")
	followed := createTestProfile(t, profileService, "dropped")

	_, err := profileService.Follow(ctx, follower.ClerkID, followed.ID.String())
	require.NoError(t, err)

	require.NoError(t, profileService.Unfollow(ctx, follower.ClerkID, followed.ID.String()))

	_, stats, err := profileService.GetByID(ctx, followed.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Followers)
}

func TestDeleteByClerkID(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	notificationService := NewNotificationService(pool)
	profileService := NewProfileService(pool, notificationService)

	member := createTestProfile(t, profileService, "leaver")

	require.NoError(t, profileService.DeleteByClerkID(ctx, member.ClerkID))

	_, err := profileService.GetByClerkID(ctx, member.ClerkID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
