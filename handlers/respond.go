package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"metaCoreAPI/internal/apperr"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps an error kind to an HTTP status. Upstream
// failures collapse to a generic message so internals never leak.
func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrUnauthenticated):
		respondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, apperr.ErrUnauthorized):
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrAlreadyExists):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("Handler error: %v", err)
		respondWithError(w, http.StatusInternalServerError, fallback)
	}
}
