package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tradesnap/tradesnap/internal/auth"
	"github.com/tradesnap/tradesnap/internal/uploads"
)

// UploadHandler stores files sent by the browser client
type UploadHandler struct {
	files  uploads.Store
	logger *slog.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(files uploads.Store, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{files: files, logger: logger}
}

// UploadResponse carries the public URL of a stored file.
type UploadResponse struct {
	FileURL string `json:"file_url"`
}

// Upload handles POST /api/uploads
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request, s auth.Session) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeValidation(w, h.logger, ValidationError{Field: "file", Message: "invalid multipart form"})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeValidation(w, h.logger, ValidationError{Field: "file", Message: "A file is required"})
		return
	}
	defer file.Close()

	url, err := h.files.Save(r.Context(), header.Filename, partContentType(header), file)
	if err != nil {
		switch {
		case errors.Is(err, uploads.ErrNotImage):
			writeError(w, h.logger, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Field: "file"})
		case errors.Is(err, uploads.ErrTooLarge):
			writeError(w, h.logger, http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error(), Field: "file"})
		default:
			h.logger.Error("failed to store upload", "user_id", s.UserID, "error", err)
			writeError(w, h.logger, http.StatusBadGateway, ErrorResponse{Error: "Upload failed. Please try again."})
		}
		return
	}

	h.logger.Info("file uploaded", "user_id", s.UserID, "file_url", url, "size", header.Size)
	writeJSON(w, h.logger, http.StatusCreated, UploadResponse{FileURL: url})
}
