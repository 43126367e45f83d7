package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxdesk/taxdocs/internal/common"
	"github.com/taxdesk/taxdocs/internal/logging"
	"github.com/taxdesk/taxdocs/internal/server/auth"
	"github.com/taxdesk/taxdocs/internal/server/models"
	"github.com/taxdesk/taxdocs/internal/server/services"
)

const testSecret = "test-secret"

// stubDocuments lets each test script the coordinator's answers and inspect
// what the handlers passed down.
type stubDocuments struct {
	ticket *services.UploadTicket
	doc    *models.Document
	data   []byte
	err    error

	gotOwnerID  string
	gotFileName string
	gotMimeType string
	gotData     []byte
	gotID       string
}

func (f *stubDocuments) RequestUpload(_ context.Context, ownerID, fileName string) (*services.UploadTicket, error) {
	f.gotOwnerID, f.gotFileName = ownerID, fileName
	return f.ticket, f.err
}

func (f *stubDocuments) ConfirmUpload(_ context.Context, ownerID, storageKey, fileName, mimeType string, sizeBytes int64) (*models.Document, error) {
	f.gotOwnerID, f.gotFileName, f.gotMimeType = ownerID, fileName, mimeType
	f.gotID = storageKey
	return f.doc, f.err
}

func (f *stubDocuments) DirectUpload(_ context.Context, ownerID, fileName, mimeType string, data []byte) (*models.Document, error) {
	f.gotOwnerID, f.gotFileName, f.gotMimeType, f.gotData = ownerID, fileName, mimeType, data
	return f.doc, f.err
}

func (f *stubDocuments) Download(_ context.Context, id string) (*models.Document, []byte, error) {
	f.gotID = id
	return f.doc, f.data, f.err
}

func (f *stubDocuments) Delete(_ context.Context, id string) error {
	f.gotID = id
	return f.err
}

func testServer(docs DocumentService) *Server {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewServer("localhost:0", logger, docs, testSecret)
}

func bearerFor(t *testing.T, ownerID string) string {
	t.Helper()
	token, err := auth.GenerateToken(ownerID, []byte(testSecret), time.Minute)
	require.NoError(t, err)
	return "Bearer " + token
}

func testDocument() *models.Document {
	return &models.Document{
		ID:          "0b7f58a2-6f4e-4d2e-9f7a-0f4f5f3c1d21",
		OwnerID:     "client-42",
		LogicalName: "return2025.pdf",
		BackendKind: models.BackendSFTP,
		MimeType:    "application/pdf",
		SizeBytes:   6,
		Version:     1,
		UploadedAt:  time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC),
	}
}

func TestAuthMiddleware(t *testing.T) {
	handler := testServer(&stubDocuments{}).Handler()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/documents/upload-params", strings.NewReader("{}"))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHealthzNeedsNoToken(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer(&stubDocuments{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadParams(t *testing.T) {
	docs := &stubDocuments{ticket: &services.UploadTicket{
		Backend:    models.BackendS3,
		UploadURL:  "https://minio.local/bucket/documents/client-42/k?sig=x",
		StorageKey: "documents/client-42/k",
	}}
	handler := testServer(docs).Handler()

	body := `{"fileName":"return2025.pdf","mimeType":"application/pdf","sizeBytes":6}`
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload-params", strings.NewReader(body))
	req.Header.Set("Authorization", bearerFor(t, "client-42"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "client-42", docs.gotOwnerID)
	assert.Equal(t, "return2025.pdf", docs.gotFileName)

	var resp uploadParamsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s3", resp.Backend)
	assert.Equal(t, "documents/client-42/k", resp.StorageKey)
	assert.NotEmpty(t, resp.UploadURL)
	assert.Empty(t, resp.DirectUploadPath)
}

func TestUploadParamsBadBody(t *testing.T) {
	handler := testServer(&stubDocuments{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload-params", strings.NewReader("{broken"))
	req.Header.Set("Authorization", bearerFor(t, "client-42"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDirectUpload(t *testing.T) {
	docs := &stubDocuments{doc: testDocument()}
	handler := testServer(docs).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", bytes.NewReader([]byte("%PDF-?")))
	req.Header.Set("Authorization", bearerFor(t, "client-42"))
	req.Header.Set(fileNameHeader, "return%202025.pdf")
	req.Header.Set("Content-Type", "application/pdf")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "client-42", docs.gotOwnerID)
	assert.Equal(t, "return 2025.pdf", docs.gotFileName, "header value is percent-decoded")
	assert.Equal(t, "application/pdf", docs.gotMimeType)
	assert.Equal(t, []byte("%PDF-?"), docs.gotData)

	var resp documentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "return2025.pdf", resp.FileName)
	assert.Equal(t, int64(1), resp.Version)
}

func TestDirectUploadMissingFileName(t *testing.T) {
	handler := testServer(&stubDocuments{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", strings.NewReader("data"))
	req.Header.Set("Authorization", bearerFor(t, "client-42"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmUpload(t *testing.T) {
	doc := testDocument()
	doc.BackendKind = models.BackendS3
	doc.StoragePointer = "documents/client-42/key"
	docs := &stubDocuments{doc: doc}
	handler := testServer(docs).Handler()

	body := `{"storageKey":"documents/client-42/key","fileName":"return2025.pdf","mimeType":"application/pdf","sizeBytes":6}`
	req := httptest.NewRequest(http.MethodPost, "/api/documents/confirm", strings.NewReader(body))
	req.Header.Set("Authorization", bearerFor(t, "client-42"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "documents/client-42/key", docs.gotID)
}

func TestDownload(t *testing.T) {
	docs := &stubDocuments{doc: testDocument(), data: []byte("%PDF-?")}
	handler := testServer(docs).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+docs.doc.ID, nil)
	req.Header.Set("Authorization", bearerFor(t, "client-42"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, docs.doc.ID, docs.gotID)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "return2025.pdf")
	assert.Equal(t, []byte("%PDF-?"), rec.Body.Bytes())
}

func TestDownloadNotFound(t *testing.T) {
	docs := &stubDocuments{err: fmt.Errorf("no row: %w", common.ErrNotFound)}
	handler := testServer(docs).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/documents/missing", nil)
	req.Header.Set("Authorization", bearerFor(t, "client-42"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDelete(t *testing.T) {
	docs := &stubDocuments{}
	handler := testServer(docs).Handler()

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/some-id", nil)
	req.Header.Set("Authorization", bearerFor(t, "client-42"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "some-id", docs.gotID)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("bad name: %w", common.ErrValidation), http.StatusBadRequest},
		{"not found", common.ErrNotFound, http.StatusNotFound},
		{"configuration", common.ErrConfiguration, http.StatusInternalServerError},
		{"timeout", fmt.Errorf("write: %w", common.ErrTimeout), http.StatusGatewayTimeout},
		{"connection", common.ErrConnection, http.StatusBadGateway},
		{"transfer", common.ErrTransfer, http.StatusBadGateway},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

func TestErrorBodyStaysGeneric(t *testing.T) {
	docs := &stubDocuments{err: fmt.Errorf("dial tcp sftp.internal:22: %w", common.ErrConnection)}
	handler := testServer(docs).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", strings.NewReader("data"))
	req.Header.Set("Authorization", bearerFor(t, "client-42"))
	req.Header.Set(fileNameHeader, "a.pdf")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sftp.internal", "internal addresses never reach clients")
	assert.Contains(t, rec.Body.String(), "upload failed")
}
