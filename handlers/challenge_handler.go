package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"metaCoreAPI/internal/challenge"
	"metaCoreAPI/middleware"
	"metaCoreAPI/services"
)

type ChallengeHandler struct {
	challengeService *services.ChallengeService
}

func NewChallengeHandler(challengeService *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService}
}

func (h *ChallengeHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Optional auth: a signed-in caller gets is_joined per challenge
	clerkID, _ := middleware.GetClerkID(ctx)

	challenges, err := h.challengeService.ListChallenges(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load challenges")
		return
	}

	respondWithJSON(w, http.StatusOK, challenges)
}

func (h *ChallengeHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, _ := middleware.GetClerkID(ctx)

	ch, err := h.challengeService.GetChallenge(ctx, clerkID, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, err, "Failed to load challenge")
		return
	}

	respondWithJSON(w, http.StatusOK, ch)
}

func (h *ChallengeHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req challenge.CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ch, err := h.challengeService.CreateChallenge(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create challenge")
		return
	}

	respondWithJSON(w, http.StatusCreated, ch)
}

func (h *ChallengeHandler) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		ChallengeID string `json:"challenge_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChallengeID == "" {
		respondWithError(w, http.StatusBadRequest, "Challenge ID is required")
		return
	}

	p, err := h.challengeService.JoinChallenge(ctx, clerkID, req.ChallengeID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to join challenge")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *ChallengeHandler) RecordCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req challenge.CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.challengeService.RecordCheckIn(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to submit check-in")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *ChallengeHandler) ListUserChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	participations, err := h.challengeService.ListUserChallenges(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load your challenges")
		return
	}

	respondWithJSON(w, http.StatusOK, participations)
}

func (h *ChallengeHandler) ListCheckIns(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	checkIns, err := h.challengeService.ListCheckIns(ctx, clerkID, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, err, "Failed to load check-ins")
		return
	}

	respondWithJSON(w, http.StatusOK, checkIns)
}
