package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/wardenlabs/realm-tracker/internal/ingest"
	"github.com/wardenlabs/realm-tracker/internal/model"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.uploadLimiter.Allow() {
		respondError(w, http.StatusTooManyRequests, "upload rate limit exceeded")
		return
	}

	maxBytes := s.cfg.Upload.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		respondError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		zap.L().Error("api: read upload", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	result, err := s.ingestor.Ingest(r.Context(), header.Filename, data)
	if err != nil {
		// Only file-caused errors go back verbatim. A mid-ingest storage
		// failure would leak the wrapped driver chain to the client.
		var bad *ingest.BadWorkbookError
		if errors.As(err, &bad) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		zap.L().Error("api: ingest upload", zap.String("filename", header.Filename), zap.Error(err))
		respondError(w, http.StatusUnprocessableEntity, "workbook ingest failed")
		return
	}
	respond(w, http.StatusOK, result, &Metadata{Count: result.RowCount})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string     `json:"username"`
		Password string     `json:"password"`
		Role     model.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" {
		respondError(w, http.StatusBadRequest, "username is required")
		return
	}
	if !req.Role.Valid() {
		respondError(w, http.StatusBadRequest, "role must be admin or viewer")
		return
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusBadRequest, "password does not meet policy")
		return
	}

	user, err := s.store.CreateUser(r.Context(), req.Username, hash, req.Role)
	if err != nil {
		zap.L().Error("api: create user", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond(w, http.StatusCreated, user, nil)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		zap.L().Error("api: list users", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond(w, http.StatusOK, users, &Metadata{Count: len(users)})
}
