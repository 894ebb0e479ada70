package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"metaCoreAPI/internal/product"
	"metaCoreAPI/middleware"
	"metaCoreAPI/services"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	products, err := h.productService.ListProducts(ctx)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load products")
		return
	}

	respondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.productService.GetProduct(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, err, "Failed to load product")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) TrackClick(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.productService.TrackClick(ctx, mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, err, "Failed to track click")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *ProductHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req product.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.productService.Checkout(ctx, clerkID, req.PaymentRef)
	if err != nil {
		respondWithServiceError(w, err, "Failed to complete checkout")
		return
	}

	respondWithJSON(w, http.StatusCreated, order)
}

func (h *ProductHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	orders, err := h.productService.ListOrders(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

func (h *ProductHandler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	already, err := h.productService.JoinWaitlist(ctx, req.Email)
	if err != nil {
		respondWithServiceError(w, err, "Failed to join waitlist")
		return
	}

	message := "Successfully joined waitlist!"
	if already {
		message = "You're already on the waitlist!"
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": message})
}
