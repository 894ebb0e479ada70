package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"metaCoreAPI/internal/cart"
	"metaCoreAPI/middleware"
	"metaCoreAPI/services"
)

type CartHandler struct {
	cartService *services.CartService
}

func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	items, err := h.cartService.GetCart(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load cart")
		return
	}

	respondWithJSON(w, http.StatusOK, items)
}

func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req cart.AddToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.cartService.AddToCart(ctx, clerkID, req.ProductID, req.Quantity); err != nil {
		respondWithServiceError(w, err, "Failed to add to cart")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Added to cart"})
}

func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.cartService.RemoveFromCart(ctx, clerkID, mux.Vars(r)["productId"]); err != nil {
		respondWithServiceError(w, err, "Failed to remove from cart")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Removed from cart"})
}

// Reconcile merges the guest device's cart and wishlist into the account
// right after sign-in or registration. Failures are logged but reported as
// accepted so a merge problem never blocks login; the client keeps its
// guest copy unless the merge succeeded.
func (h *CartHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req cart.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cartMerged := true
	if err := h.cartService.MergeGuestCart(ctx, clerkID, req.CartLines); err != nil {
		log.Printf("Reconcile: cart merge failed for %s: %v", clerkID, err)
		cartMerged = false
	}

	wishlistMerged := true
	if err := h.cartService.MergeGuestWishlist(ctx, clerkID, req.WishlistIDs); err != nil {
		log.Printf("Reconcile: wishlist merge failed for %s: %v", clerkID, err)
		wishlistMerged = false
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{
		"cart_merged":     cartMerged,
		"wishlist_merged": wishlistMerged,
	})
}

func (h *CartHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	products, err := h.cartService.GetWishlist(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load wishlist")
		return
	}

	respondWithJSON(w, http.StatusOK, products)
}

func (h *CartHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		respondWithError(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	already, err := h.cartService.AddToWishlist(ctx, clerkID, req.ProductID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to add to wishlist")
		return
	}

	message := "Added to wishlist"
	if already {
		message = "Already in wishlist"
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": message})
}

func (h *CartHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.cartService.RemoveFromWishlist(ctx, clerkID, mux.Vars(r)["productId"]); err != nil {
		respondWithServiceError(w, err, "Failed to remove from wishlist")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Removed from wishlist"})
}
