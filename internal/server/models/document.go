// Package models defines server-side data models persisted in the database.
package models

import "time"

// BackendKind identifies which byte-storage backend holds a document's
// content. It is stamped onto the record at creation and is the single
// source of truth for retrieval routing.
type BackendKind string

const (
	// BackendSFTP stores bytes on the remote file host, written by the
	// server itself during a direct upload.
	BackendSFTP BackendKind = "sftp"
	// BackendS3 stores bytes in the object store, written by the client
	// through a presigned URL.
	BackendS3 BackendKind = "s3"
)

// Valid reports whether k names a known backend.
func (k BackendKind) Valid() bool {
	return k == BackendSFTP || k == BackendS3
}

// Document describes one stored artifact. There is one row per logical slot
// (owner + logical name); re-uploading the same slot bumps Version and
// replaces StoragePointer while ID and UploadedAt are preserved.
type Document struct {
	// ID is the opaque record identifier, generated at confirmation time.
	ID string
	// OwnerID is the client the artifact belongs to. Never empty.
	OwnerID string
	// LogicalName is the original file name, kept for display only. It is
	// never used to build a storage path.
	LogicalName string
	// StoragePointer is the backend-specific locator: a remote path relative
	// to the SFTP base directory, or an object-store key. Opaque to every
	// caller outside the transfer layer.
	StoragePointer string
	// BackendKind records which backend holds the bytes.
	BackendKind BackendKind
	// SizeBytes and MimeType are advisory; they are not re-verified against
	// the stored bytes after the write.
	SizeBytes int64
	MimeType  string
	// Version starts at 1 and increments each time the slot is re-uploaded.
	Version int64
	// UploadedAt is the creation timestamp. Immutable.
	UploadedAt time.Time
}
