package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaCoreAPI/internal/apperr"
)

func TestRespondWithServiceError_StatusMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"validation", fmt.Errorf("title is required: %w", apperr.ErrValidation), http.StatusBadRequest},
		{"unauthenticated", apperr.ErrUnauthenticated, http.StatusUnauthorized},
		{"unauthorized", fmt.Errorf("admin only: %w", apperr.ErrUnauthorized), http.StatusForbidden},
		{"not found", fmt.Errorf("challenge: %w", apperr.ErrNotFound), http.StatusNotFound},
		{"already exists", fmt.Errorf("already joined: %w", apperr.ErrAlreadyExists), http.StatusConflict},
		{"unknown", fmt.Errorf("connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			respondWithServiceError(rr, tc.err, "Something went wrong")
			assert.Equal(t, tc.wantCode, rr.Code)
		})
	}
}

func TestRespondWithServiceError_HidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	respondWithServiceError(rr, fmt.Errorf("pq: connection reset"), "Failed to load feed")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var response map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "Failed to load feed", response["error"])
	assert.NotContains(t, response["error"], "pq:")
}

func TestRespondWithJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	respondWithJSON(rr, http.StatusCreated, map[string]string{"message": "ok"})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var response map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "ok", response["message"])
}
