// Package pathx derives safe remote file names and path segments from
// untrusted caller input. Original file names are kept verbatim only for
// display; anything that becomes part of a remote path goes through here
// first.
package pathx

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/taxdesk/taxdocs/internal/common"
)

// maxFileNameLen bounds the sanitized name so it stays valid on every
// filesystem the remote host might use.
const maxFileNameLen = 200

var (
	unsafeChars    = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	dotRuns        = regexp.MustCompile(`\.{2,}`)
	underscoreRuns = regexp.MustCompile(`_{2,}`)
)

// SafeFileName replaces every character outside [A-Za-z0-9._-] with an
// underscore, collapses parent references and runs of underscores, and
// truncates the result to 200 characters. Path separators, ".." sequences
// and control characters do not survive.
func SafeFileName(name string) string {
	s := dotRuns.ReplaceAllString(name, "_")
	s = unsafeChars.ReplaceAllString(s, "_")
	s = underscoreRuns.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		s = "file"
	}
	if len(s) > maxFileNameLen {
		s = s[:maxFileNameLen]
	}
	return s
}

// StampedFileName prefixes the sanitized name with a millisecond timestamp.
// Two uploads of the same original name in the same millisecond are the only
// remaining collision; that residual risk is accepted.
func StampedFileName(name string, now time.Time) string {
	return fmt.Sprintf("%d_%s", now.UnixMilli(), SafeFileName(name))
}

// ValidateOwnerSegment checks that an owner id can be used verbatim as a
// remote directory segment. Empty ids, path separators and parent references
// are rejected with ErrValidation.
func ValidateOwnerSegment(ownerID string) error {
	if ownerID == "" {
		return fmt.Errorf("%w: owner id is empty", common.ErrValidation)
	}
	if strings.ContainsAny(ownerID, "/\\") || strings.Contains(ownerID, "..") {
		return fmt.Errorf("%w: owner id is not a safe path segment", common.ErrValidation)
	}
	return nil
}
