package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"metaCoreAPI/internal/challenge"
	"metaCoreAPI/middleware"
)

// UploadHandler stores check-in and post media under the assets directory
// that main.go serves at /assets/, returning the public URL and the
// inferred media kind.
type UploadHandler struct {
	baseDir string
	baseURL string
}

func NewUploadHandler(baseDir, baseURL string) *UploadHandler {
	return &UploadHandler{baseDir: baseDir, baseURL: baseURL}
}

const maxUploadBytes = 32 << 20

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	clerkID, ok := middleware.GetClerkID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	folder := r.FormValue("folder")
	if folder == "" {
		folder = "uploads"
	}
	folder = filepath.Base(folder)

	contentType := header.Header.Get("Content-Type")
	mediaType := challenge.MediaNone
	switch {
	case strings.HasPrefix(contentType, "image/"):
		mediaType = challenge.MediaImage
	case strings.HasPrefix(contentType, "video/"):
		mediaType = challenge.MediaVideo
	}

	ext := filepath.Ext(header.Filename)
	name := fmt.Sprintf("%s_%d%s", clerkID, time.Now().UnixNano(), ext)
	dir := filepath.Join(h.baseDir, folder)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("Upload: failed to create dir %s: %v", dir, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		log.Printf("Upload: failed to create file: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		log.Printf("Upload: failed to write file: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"url":  fmt.Sprintf("%s/%s/%s", strings.TrimRight(h.baseURL, "/"), folder, name),
		"type": string(mediaType),
	})
}
