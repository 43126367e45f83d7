package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/taxdesk/taxdocs/internal/common"
	"github.com/taxdesk/taxdocs/internal/server/models"
)

// maxUploadBytes caps direct-upload bodies. Object-store uploads bypass the
// server entirely, so only the remote-file path is bounded here.
const maxUploadBytes = 256 << 20

// fileNameHeader carries the percent-encoded original file name on direct
// uploads, out of band from the raw byte body.
const fileNameHeader = "X-File-Name"

type uploadParamsRequest struct {
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
}

type uploadParamsResponse struct {
	Backend          string `json:"backend"`
	UploadURL        string `json:"uploadUrl,omitempty"`
	StorageKey       string `json:"storageKey,omitempty"`
	DirectUploadPath string `json:"directUploadPath,omitempty"`
}

type confirmRequest struct {
	StorageKey string `json:"storageKey"`
	FileName   string `json:"fileName"`
	MimeType   string `json:"mimeType"`
	SizeBytes  int64  `json:"sizeBytes"`
}

type documentResponse struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	Backend    string    `json:"backend"`
	MimeType   string    `json:"mimeType"`
	SizeBytes  int64     `json:"sizeBytes"`
	Version    int64     `json:"version"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func toDocumentResponse(doc *models.Document) documentResponse {
	return documentResponse{
		ID:         doc.ID,
		FileName:   doc.LogicalName,
		Backend:    string(doc.BackendKind),
		MimeType:   doc.MimeType,
		SizeBytes:  doc.SizeBytes,
		Version:    doc.Version,
		UploadedAt: doc.UploadedAt,
	}
}

func (s *Server) handleUploadParams(w http.ResponseWriter, r *http.Request) {
	var req uploadParamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ticket, err := s.documents.RequestUpload(r.Context(), ownerID(r), req.FileName)
	if err != nil {
		s.failRequest(w, r, "upload parameterization failed", err)
		return
	}

	writeJSON(w, http.StatusOK, uploadParamsResponse{
		Backend:          string(ticket.Backend),
		UploadURL:        ticket.UploadURL,
		StorageKey:       ticket.StorageKey,
		DirectUploadPath: ticket.DirectUploadPath,
	})
}

func (s *Server) handleDirectUpload(w http.ResponseWriter, r *http.Request) {
	fileName, err := url.PathUnescape(r.Header.Get(fileNameHeader))
	if err != nil || fileName == "" {
		writeError(w, http.StatusBadRequest, "missing or malformed "+fileNameHeader+" header")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload body too large")
		return
	}

	doc, err := s.documents.DirectUpload(r.Context(), ownerID(r), fileName, r.Header.Get("Content-Type"), body)
	if err != nil {
		s.failRequest(w, r, "direct upload failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, toDocumentResponse(doc))
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := s.documents.ConfirmUpload(r.Context(), ownerID(r), req.StorageKey, req.FileName, req.MimeType, req.SizeBytes)
	if err != nil {
		s.failRequest(w, r, "upload confirmation failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, toDocumentResponse(doc))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	doc, data, err := s.documents.Download(r.Context(), r.PathValue("id"))
	if err != nil {
		s.failRequest(w, r, "download failed", err)
		return
	}

	// Content type comes from the logical extension; stored MimeType is
	// advisory only.
	contentType := mime.TypeByExtension(path.Ext(doc.LogicalName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.LogicalName}))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.failRequest(w, r, "delete failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// failRequest logs the real failure server-side and answers with a generic
// message. Specific reasons, remote paths and credentials stay in the logs.
func (s *Server) failRequest(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.Error(r.Context(), msg, "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, statusForError(err), publicMessage(err))
}

// statusForError maps the error taxonomy onto HTTP statuses. Configuration
// problems are server-side and not retryable by changing input; connection
// and transfer failures are possibly transient.
func statusForError(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrConfiguration):
		return http.StatusInternalServerError
	case errors.Is(err, common.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, common.ErrConnection), errors.Is(err, common.ErrTransfer):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrValidation):
		return "invalid request"
	case errors.Is(err, common.ErrNotFound):
		return "not found"
	case errors.Is(err, common.ErrTimeout),
		errors.Is(err, common.ErrConnection),
		errors.Is(err, common.ErrTransfer):
		return "upload failed, try again"
	default:
		return "internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
