// Package transfer moves document bytes between the portal and its two
// storage backends: a remote file host reached over SFTP and an
// S3-compatible object store reached through presigned URLs.
//
// Neither backend pools sessions or connections. Every SFTP operation opens
// its own authenticated session and closes it on all exit paths; the object
// store builds a fresh client per call. Connection-setup overhead is traded
// for the absence of stale-session and cross-request-leakage bugs.
package transfer
