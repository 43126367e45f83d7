// Package httpapi exposes the transfer layer over HTTP: upload
// parameterization, the direct-upload endpoint, object-store confirmation,
// downloads and deletes. Every request runs as its own task; the package
// holds no shared per-request state.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taxdesk/taxdocs/internal/logging"
	"github.com/taxdesk/taxdocs/internal/server/models"
	"github.com/taxdesk/taxdocs/internal/server/services"
)

// DocumentService is the slice of the coordinator the HTTP layer needs.
type DocumentService interface {
	RequestUpload(ctx context.Context, ownerID, fileName string) (*services.UploadTicket, error)
	ConfirmUpload(ctx context.Context, ownerID, storageKey, fileName, mimeType string, sizeBytes int64) (*models.Document, error)
	DirectUpload(ctx context.Context, ownerID, fileName, mimeType string, data []byte) (*models.Document, error)
	Download(ctx context.Context, id string) (*models.Document, []byte, error)
	Delete(ctx context.Context, id string) error
}

type Server struct {
	address   string
	logger    logging.Logger
	documents DocumentService
	jwtSecret []byte
}

func NewServer(address string, logger logging.Logger, documents DocumentService, secretKey string) *Server {
	return &Server{
		address:   address,
		logger:    logger.With("module", "http_server"),
		documents: documents,
		jwtSecret: []byte(secretKey),
	}
}

// Handler assembles the route table. API routes sit behind the owner-token
// middleware; health and metrics do not.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/documents/upload-params", s.handleUploadParams)
	api.HandleFunc("POST /api/documents", s.handleDirectUpload)
	api.HandleFunc("POST /api/documents/confirm", s.handleConfirm)
	api.HandleFunc("GET /api/documents/{id}", s.handleDownload)
	api.HandleFunc("DELETE /api/documents/{id}", s.handleDelete)

	root := http.NewServeMux()
	root.Handle("/api/", s.withOwner(api))
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	root.Handle("GET /metrics", promhttp.Handler())

	return s.withRequestLogging(root)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
