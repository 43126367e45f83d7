package transfer

import (
	"fmt"
	"path"
	"strings"

	"github.com/taxdesk/taxdocs/internal/common"
)

// ensurePath creates every missing segment of dir, one segment at a time.
// Calling it for a path that already exists is a no-op, and losing a create
// race to a concurrent caller counts as success: a Mkdir failure followed by
// a successful Stat means someone else just created the segment.
func ensurePath(fs remoteFS, dir string) error {
	dir = path.Clean(dir)
	if dir == "." || dir == "/" {
		return nil
	}

	acc := ""
	if strings.HasPrefix(dir, "/") {
		acc = "/"
	}

	for _, segment := range strings.Split(dir, "/") {
		if segment == "" {
			continue
		}
		acc = path.Join(acc, segment)

		if _, err := fs.Stat(acc); err == nil {
			continue
		}
		if err := fs.Mkdir(acc); err != nil {
			if _, statErr := fs.Stat(acc); statErr == nil {
				continue
			}
			return fmt.Errorf("%w: creating directory %s: %v", common.ErrTransfer, acc, err)
		}
	}

	return nil
}
