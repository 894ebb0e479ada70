package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaCoreAPI/internal/apperr"
	"metaCoreAPI/internal/cart"
)

func TestMergeGuestCart_SumsQuantities(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	notificationService := NewNotificationService(pool)
	profileService := NewProfileService(pool, notificationService)
	cartService := NewCartService(pool)

	member := createTestProfile(t, profileService, "shopper")
	productA := createTestProduct(t, pool, "Test Kettle", 39.99)
	productB := createTestProduct(t, pool, "Test Journal", 14.99)

	// Account cart already holds 2 of product A
	require.NoError(t, cartService.AddToCart(ctx, member.ClerkID, productA.String(), 2))

	guestLines := []cart.GuestLine{
		{ProductID: productA.String(), Quantity: 3},
		{ProductID: productB.String(), Quantity: 1},
	}
	require.NoError(t, cartService.MergeGuestCart(ctx, member.ClerkID, guestLines))

	items, err := cartService.GetCart(ctx, member.ClerkID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	quantities := map[string]int{}
	for _, item := range items {
		quantities[item.ProductID.String()] = item.Quantity
	}
	assert.Equal(t, 5, quantities[productA.String()])
	assert.Equal(t, 1, quantities[productB.String()])
}

func TestMergeGuestCart_UppercaseGuestIDsStillSum(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	notificationService := NewNotificationService(pool)
	profileService := NewProfileService(pool, notificationService)
	cartService := NewCartService(pool)

	member := createTestProfile(t, profileService, "shouter")
	productA := createTestProduct(t, pool, "Test Timer", 29.99)

	require.NoError(t, cartService.AddToCart(ctx, member.ClerkID, productA.String(), 2))

	// Device storage may render the uuid uppercase; the merge must still
	// land on the existing line and sum, not replace
	guestLines := []cart.GuestLine{
		{ProductID: strings.ToUpper(productA.String()), Quantity: 3},
	}
	require.NoError(t, cartService.MergeGuestCart(ctx, member.ClerkID, guestLines))

	items, err := cartService.GetCart(ctx, member.ClerkID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestMergeGuestWishlist_UppercaseGuestIDsCollapse(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	notificationService := NewNotificationService(pool)
	profileService := NewProfileService(pool, notificationService)
	cartService := NewCartService(pool)

	member := createTestProfile(t, profileService, "loudwisher")
	productA := createTestProduct(t, pool, "Test Towel", 8.99)

	already, err := cartService.AddToWishlist(ctx, member.ClerkID, productA.String())
	require.NoError(t, err)
	assert.False(t, already)

	guestIDs := []string{strings.ToUpper(productA.String())}
	require.NoError(t, cartService.MergeGuestWishlist(ctx, member.ClerkID, guestIDs))

	wishlist, err := cartService.GetWishlist(ctx, member.ClerkID)
	require.NoError(t, err)
	assert.Len(t, wishlist, 1)
}

func TestMergeGuestCart_EmptyGuestIsNoOp(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	notificationService := NewNotificationService(pool)
	profileService := NewProfileService(pool, notificationService)
	cartService := NewCartService(pool)

	member := createTestProfile(t, profileService, "idle")
	productA := createTestProduct(t, pool, "Test Mug", 9.99)

	require.NoError(t, cartService.AddToCart(ctx, member.ClerkID, productA.String(), 1))
	require.NoError(t, cartService.MergeGuestCart(ctx, member.ClerkID, nil))

	items, err := cartService.GetCart(ctx, member.ClerkID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestMergeGuestCart_SkipsInvalidProductIDs(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	notificationService := NewNotificationService(pool)
	profileService := NewProfileService(pool, notificationService)
	cartService := NewCartService(pool)

	member := createTestProfile(t, profileService, "dirty")
	productA := createTestProduct(t, pool, "Test Bottle", 19.99)

	guestLines := []cart.GuestLine{
		{ProductID: "not-a-uuid", Quantity: 4},
		{ProductID: productA.String(), Quantity: 2},
	}
	require.NoError(t, cartService.MergeGuestCart(ctx, member.ClerkID, guestLines))

	items, err := cartService.GetCart(ctx, member.ClerkID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, productA, items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestMergeGuestWishlist_Idempotent(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	notificationService := NewNotificationService(pool)
	profileService := NewProfileService(pool, notificationService)
	cartService := NewCartService(pool)

	member := createTestProfile(t, profileService, "wisher")
	productA := createTestProduct(t, pool, "Test Weights", 59.99)
	productB := createTestProduct(t, pool, "Test Mat", 24.99)

	already, err := cartService.AddToWishlist(ctx, member.ClerkID, productA.String())
	require.NoError(t, err)
	assert.False(t, already)

	guestIDs := []string{productA.String(), productB.String(), productB.String()}
	require.NoError(t, cartService.MergeGuestWishlist(ctx, member.ClerkID, guestIDs))

	wishlist, err := cartService.GetWishlist(ctx, member.ClerkID)
	require.NoError(t, err)
	assert.Len(t, wishlist, 2)

	// Merging the same guest list again must not change anything
	require.NoError(t, cartService.MergeGuestWishlist(ctx, member.ClerkID, guestIDs))

	wishlist, err = cartService.GetWishlist(ctx, member.ClerkID)
	require.NoError(t, err)
	assert.Len(t, wishlist, 2)
}

func TestAddToWishlist_ReportsExisting(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	notificationService := NewNotificationService(pool)
	profileService := NewProfileService(pool, notificationService)
	cartService := NewCartService(pool)

	member := createTestProfile(t, profileService, "fan")
	productA := createTestProduct(t, pool, "Test Bands", 12.99)

	already, err := cartService.AddToWishlist(ctx, member.ClerkID, productA.String())
	require.NoError(t, err)
	assert.False(t, already)

	already, err = cartService.AddToWishlist(ctx, member.ClerkID, productA.String())
	require.NoError(t, err)
	assert.True(t, already)
}

func TestRemoveFromWishlist_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	notificationService := NewNotificationService(pool)
	profileService := NewProfileService(pool, notificationService)
	cartService := NewCartService(pool)

	member := createTestProfile(t, profileService, "empty")

	err := cartService.RemoveFromWishlist(ctx, member.ClerkID, uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
