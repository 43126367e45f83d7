// Package common defines shared constants and sentinel errors used across
// the transfer layer. Callers should use errors.Is to match these values;
// producers wrap them with fmt.Errorf("%w: ...") to attach context.
package common

import "errors"

var (
	// ErrConfiguration means required settings are absent or unusable. Fatal
	// for the requested operation, never for the process, never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrConnection means the remote host rejected or never completed the
	// handshake. The caller owns any retry policy.
	ErrConnection = errors.New("connection error")

	// ErrTimeout means an operation exceeded its ceiling. The session that
	// was running it must not be reused.
	ErrTimeout = errors.New("operation timed out")

	// ErrTransfer means a read or write failed after a session was
	// established.
	ErrTransfer = errors.New("transfer error")

	// ErrValidation means unsafe or malformed caller input, rejected before
	// any remote call.
	ErrValidation = errors.New("validation error")

	// ErrNotFound means the requested record or remote object does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidToken means the owner-context token is missing, expired or
	// malformed.
	ErrInvalidToken = errors.New("invalid token")
)
