package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"metaCoreAPI/internal/profile"
	"metaCoreAPI/middleware"
	"metaCoreAPI/services"
)

type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	p, err := h.profileService.GetByClerkID(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load profile")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) GetProfileByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, stats, err := h.profileService.GetByID(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, err, "Failed to load profile")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"profile": p, "stats": stats})
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req profile.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.profileService.UpdateProfile(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update profile")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) Follow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	already, err := h.profileService.Follow(ctx, clerkID, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, err, "Failed to follow")
		return
	}

	message := "Following"
	if already {
		message = "Already following"
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": message})
}

func (h *ProfileHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.profileService.Unfollow(ctx, clerkID, mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, err, "Failed to unfollow")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Unfollowed"})
}

func (h *ProfileHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.profileService.DeleteByClerkID(ctx, clerkID); err != nil {
		respondWithServiceError(w, err, "Failed to delete account")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}
