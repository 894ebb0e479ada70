package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"metaCoreAPI/internal/post"
	"metaCoreAPI/middleware"
	"metaCoreAPI/services"
)

type PostHandler struct {
	postService *services.PostService
}

func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

func (h *PostHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	posts, err := h.postService.GetFeed(ctx, clerkID, limit)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load feed")
		return
	}

	respondWithJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req post.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.postService.CreatePost(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create post")
		return
	}

	respondWithJSON(w, http.StatusCreated, p)
}

func (h *PostHandler) LikePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	already, err := h.postService.Like(ctx, clerkID, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, err, "Failed to like post")
		return
	}

	message := "Liked"
	if already {
		message = "Already liked"
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": message})
}

func (h *PostHandler) UnlikePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.postService.Unlike(ctx, clerkID, mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, err, "Failed to unlike post")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Unliked"})
}

func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req post.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.postService.AddComment(ctx, clerkID, mux.Vars(r)["id"], &req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to add comment")
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	comments, err := h.postService.ListComments(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, err, "Failed to load comments")
		return
	}

	respondWithJSON(w, http.StatusOK, comments)
}
