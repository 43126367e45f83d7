package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taxdesk/taxdocs/internal/common"
	"github.com/taxdesk/taxdocs/internal/dbx"
	"github.com/taxdesk/taxdocs/internal/server/models"
)

// PostgresRepository implements document storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert inserts a record for a new slot or bumps version on an existing one.
// The version arithmetic happens in SQL, so two racing confirmations of the
// same slot both increment it exactly once; the last writer's pointer wins.
// ID and uploaded_at are preserved across bumps.
func (r *PostgresRepository) Upsert(ctx context.Context, doc *models.Document) (*models.Document, error) {
	query := `
		INSERT INTO documents (id, owner_id, logical_name, storage_pointer, backend_kind, size_bytes, mime_type, version, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, now())
		ON CONFLICT (owner_id, logical_name)
		DO UPDATE SET
			storage_pointer = EXCLUDED.storage_pointer,
			backend_kind = EXCLUDED.backend_kind,
			size_bytes = EXCLUDED.size_bytes,
			mime_type = EXCLUDED.mime_type,
			version = documents.version + 1
		RETURNING id, version, uploaded_at;
	`
	result := *doc
	err := r.db.QueryRowContext(ctx, query,
		doc.ID, doc.OwnerID, doc.LogicalName, doc.StoragePointer, string(doc.BackendKind), doc.SizeBytes, doc.MimeType).
		Scan(&result.ID, &result.Version, &result.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert document: %w", err)
	}
	return &result, nil
}

// GetByID returns the full record for id, or common.ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := `
		SELECT id, owner_id, logical_name, storage_pointer, backend_kind, size_bytes, mime_type, version, uploaded_at
		FROM documents WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetBySlot returns the record occupying the (owner, logical name) slot,
// or common.ErrNotFound.
func (r *PostgresRepository) GetBySlot(ctx context.Context, ownerID, logicalName string) (*models.Document, error) {
	query := `
		SELECT id, owner_id, logical_name, storage_pointer, backend_kind, size_bytes, mime_type, version, uploaded_at
		FROM documents WHERE owner_id = $1 AND logical_name = $2
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, ownerID, logicalName))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Document, error) {
	var doc models.Document
	var kind string
	err := row.Scan(&doc.ID, &doc.OwnerID, &doc.LogicalName, &doc.StoragePointer, &kind,
		&doc.SizeBytes, &doc.MimeType, &doc.Version, &doc.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select document: %w", err)
	}
	doc.BackendKind = models.BackendKind(kind)
	return &doc, nil
}

// Delete removes the record for id. Deleting an absent record is not an
// error; the boolean reports whether a row was removed.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

// ListPointers returns all storage pointers recorded for the given backend.
func (r *PostgresRepository) ListPointers(ctx context.Context, backend models.BackendKind) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT storage_pointer FROM documents WHERE backend_kind = $1`, string(backend))
	if err != nil {
		return nil, fmt.Errorf("failed to select pointers: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
