package documents

import (
	"context"

	"github.com/taxdesk/taxdocs/internal/server/models"
)

// Repository persists StoredDocument records. Implementations map "no such
// row" conditions to common.ErrNotFound.
type Repository interface {
	// Upsert creates the record for a new (owner, logical name) slot, or
	// bumps the existing slot's version and replaces its storage pointer.
	// The returned document carries the database-assigned id, version and
	// upload timestamp.
	Upsert(ctx context.Context, doc *models.Document) (*models.Document, error)
	GetByID(ctx context.Context, id string) (*models.Document, error)
	GetBySlot(ctx context.Context, ownerID, logicalName string) (*models.Document, error)
	// Delete removes the record and reports whether a row existed.
	Delete(ctx context.Context, id string) (bool, error)
	// ListPointers returns every storage pointer recorded for a backend,
	// used by the orphan audit.
	ListPointers(ctx context.Context, backend models.BackendKind) ([]string, error)
}
