// Package services implements the dual-backend upload coordinator: it
// decides per request which storage backend handles the bytes, runs the
// matching protocol, and records the outcome as a StoredDocument row.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/taxdesk/taxdocs/internal/common"
	"github.com/taxdesk/taxdocs/internal/logging"
	"github.com/taxdesk/taxdocs/internal/pathx"
	"github.com/taxdesk/taxdocs/internal/server/config"
	"github.com/taxdesk/taxdocs/internal/server/metrics"
	"github.com/taxdesk/taxdocs/internal/server/models"
	"github.com/taxdesk/taxdocs/internal/server/repositories/repomanager"
	"github.com/taxdesk/taxdocs/internal/timeoutx"
)

// pointerRoot is the first segment of every storage pointer on both backends.
const pointerRoot = "documents"

// DirectUploadPath is the fixed endpoint remote-file uploads are addressed to.
const DirectUploadPath = "/api/documents"

// FileBackend is the remote-file side of the transfer layer
// (implemented by transfer.SFTPClient).
type FileBackend interface {
	Write(ctx context.Context, pointer string, data []byte) error
	Read(ctx context.Context, pointer string) ([]byte, error)
	Remove(ctx context.Context, pointer string) bool
	List(ctx context.Context, prefix string) ([]string, error)
}

// ObjectBackend is the presigned-URL side of the transfer layer
// (implemented by transfer.ObjectStore).
type ObjectBackend interface {
	PresignPut(ctx context.Context, key string) (string, error)
	Head(ctx context.Context, key string) (int64, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) bool
	List(ctx context.Context, prefix string) ([]string, error)
}

// UploadTicket is the coordinator's answer to an upload-parameter request.
// Exactly one of the presigned pair (UploadURL, StorageKey) or
// DirectUploadPath is populated, depending on the active backend.
type UploadTicket struct {
	Backend          models.BackendKind
	UploadURL        string
	StorageKey       string
	DirectUploadPath string
}

// DocumentService coordinates uploads, downloads and deletes across the two
// backends. The backend choice is a process-wide configuration switch, so a
// record's BackendKind can be trusted without re-deriving it.
type DocumentService struct {
	db      *sql.DB
	repos   repomanager.RepositoryManager
	config  *config.Config
	logger  logging.Logger
	files   FileBackend
	objects ObjectBackend

	// now is a seam for tests that assert stamped names.
	now func() time.Time
}

func NewDocumentService(db *sql.DB, repos repomanager.RepositoryManager, cfg *config.Config,
	logger logging.Logger, files FileBackend, objects ObjectBackend) *DocumentService {
	return &DocumentService{
		db:      db,
		repos:   repos,
		config:  cfg,
		logger:  logger.With("module", "documents"),
		files:   files,
		objects: objects,
		now:     time.Now,
	}
}

func validateUploadInput(ownerID, fileName string) error {
	if err := pathx.ValidateOwnerSegment(ownerID); err != nil {
		return err
	}
	if fileName == "" {
		return fmt.Errorf("%w: file name is empty", common.ErrValidation)
	}
	return nil
}

func (s *DocumentService) objectKey(ownerID string) string {
	return path.Join(pointerRoot, ownerID, uuid.NewString())
}

// RequestUpload parameterizes an upload. For the object store it mints a
// presigned write target and the key the caller must confirm later; for the
// remote-file backend it points the caller at the direct-upload endpoint.
// No record is created here.
func (s *DocumentService) RequestUpload(ctx context.Context, ownerID, fileName string) (*UploadTicket, error) {
	if err := validateUploadInput(ownerID, fileName); err != nil {
		return nil, err
	}

	switch s.config.StorageBackend {
	case config.BackendS3:
		key := s.objectKey(ownerID)
		url, err := s.objects.PresignPut(ctx, key)
		if err != nil {
			return nil, err
		}
		return &UploadTicket{Backend: models.BackendS3, UploadURL: url, StorageKey: key}, nil
	case config.BackendSFTP:
		return &UploadTicket{Backend: models.BackendSFTP, DirectUploadPath: DirectUploadPath}, nil
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", common.ErrConfiguration, s.config.StorageBackend)
	}
}

// ConfirmUpload finishes the two-phase object-store protocol: the caller has
// already PUT the bytes to the presigned target and now reports the key and
// declared metadata. The object is verified retrievable before the record is
// created; an unconfirmed upload therefore never produces a record.
func (s *DocumentService) ConfirmUpload(ctx context.Context, ownerID, storageKey, fileName, mimeType string, sizeBytes int64) (doc *models.Document, err error) {
	defer func() { metrics.Observe("confirm", string(models.BackendS3), err) }()

	if err = validateUploadInput(ownerID, fileName); err != nil {
		return nil, err
	}
	// A caller may only confirm keys minted inside its own namespace.
	if path.Dir(storageKey) != path.Join(pointerRoot, ownerID) {
		return nil, fmt.Errorf("%w: storage key does not belong to owner", common.ErrValidation)
	}

	stored, err := s.objects.Head(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	if stored != sizeBytes {
		s.logger.Warn(ctx, "declared size does not match stored object",
			"key", storageKey, "declared", sizeBytes, "stored", stored)
	}

	return s.createRecord(ctx, &models.Document{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		LogicalName:    fileName,
		StoragePointer: storageKey,
		BackendKind:    models.BackendS3,
		SizeBytes:      sizeBytes,
		MimeType:       mimeType,
	})
}

// DirectUpload runs the single-phase remote-file protocol: sanitize, derive
// the pointer, provision and write under the timeout guard, then create the
// record in the same call. A failure anywhere before the record write leaves
// no partial record.
func (s *DocumentService) DirectUpload(ctx context.Context, ownerID, fileName, mimeType string, data []byte) (doc *models.Document, err error) {
	defer func() { metrics.Observe("upload", string(models.BackendSFTP), err) }()

	if err = validateUploadInput(ownerID, fileName); err != nil {
		return nil, err
	}

	name := pathx.StampedFileName(fileName, s.now())
	pointer := path.Join(pointerRoot, ownerID, name)

	err = timeoutx.Run(ctx, "sftp write "+name, timeoutx.WriteCeiling, func() error {
		return s.files.Write(ctx, pointer, data)
	})
	if err != nil {
		return nil, err
	}

	return s.createRecord(ctx, &models.Document{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		LogicalName:    fileName,
		StoragePointer: pointer,
		BackendKind:    models.BackendSFTP,
		SizeBytes:      int64(len(data)),
		MimeType:       mimeType,
	})
}

// createRecord upserts the slot and, when the upsert replaced an earlier
// version, removes the superseded bytes best-effort. A record failure after
// a successful byte write is the documented orphaned-object condition: it is
// logged here and picked up by the out-of-band audit, not auto-reconciled.
func (s *DocumentService) createRecord(ctx context.Context, doc *models.Document) (*models.Document, error) {
	repo := s.repos.Documents(s.db)

	prev, err := repo.GetBySlot(ctx, doc.OwnerID, doc.LogicalName)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		s.logger.Error(ctx, "slot lookup failed after successful byte write",
			"pointer", doc.StoragePointer, "error", err)
		return nil, err
	}

	created, err := repo.Upsert(ctx, doc)
	if err != nil {
		s.logger.Error(ctx, "record creation failed after successful byte write",
			"pointer", doc.StoragePointer, "backend", doc.BackendKind, "error", err)
		return nil, err
	}

	if prev != nil && prev.StoragePointer != created.StoragePointer {
		if !s.removeBytes(ctx, prev.BackendKind, prev.StoragePointer) {
			s.logger.Warn(ctx, "superseded bytes could not be removed",
				"pointer", prev.StoragePointer, "backend", prev.BackendKind)
		}
	}

	return created, nil
}

// Download resolves a record and streams its bytes back from whichever
// backend the record says holds them.
func (s *DocumentService) Download(ctx context.Context, id string) (doc *models.Document, data []byte, err error) {
	repo := s.repos.Documents(s.db)

	doc, err = repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	backend := doc.BackendKind
	defer func() { metrics.Observe("download", string(backend), err) }()

	switch doc.BackendKind {
	case models.BackendSFTP:
		data, err = s.files.Read(ctx, doc.StoragePointer)
	case models.BackendS3:
		data, err = s.objects.Get(ctx, doc.StoragePointer)
	default:
		err = fmt.Errorf("%w: record %s has unknown backend %q", common.ErrConfiguration, id, doc.BackendKind)
	}
	if err != nil {
		return nil, nil, err
	}
	return doc, data, nil
}

// Delete removes a document. The byte deletion is attempted first; its
// failure is logged as a warning but never blocks the record removal, so the
// document always disappears from the owner's view. Deleting an absent
// record is a no-op.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	repo := s.repos.Documents(s.db)

	doc, err := repo.GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if !s.removeBytes(ctx, doc.BackendKind, doc.StoragePointer) {
		s.logger.Warn(ctx, "byte deletion failed, removing record anyway",
			"id", id, "pointer", doc.StoragePointer, "backend", doc.BackendKind)
	}

	_, err = repo.Delete(ctx, id)
	metrics.Observe("delete", string(doc.BackendKind), err)
	return err
}

func (s *DocumentService) removeBytes(ctx context.Context, backend models.BackendKind, pointer string) bool {
	switch backend {
	case models.BackendSFTP:
		return s.files.Remove(ctx, pointer)
	case models.BackendS3:
		return s.objects.Delete(ctx, pointer)
	default:
		return false
	}
}
