package services

import (
	"context"
	"fmt"

	"github.com/taxdesk/taxdocs/internal/common"
	"github.com/taxdesk/taxdocs/internal/server/config"
	"github.com/taxdesk/taxdocs/internal/server/models"
)

// AuditOrphans lists the active backend's stored pointers and returns those
// with no matching document record. An orphan means a byte write succeeded
// but the process failed before the record was created; the audit surfaces
// them out of band, it does not remove them.
func (s *DocumentService) AuditOrphans(ctx context.Context) ([]string, error) {
	var backend models.BackendKind
	var remote []string
	var err error

	switch s.config.StorageBackend {
	case config.BackendSFTP:
		backend = models.BackendSFTP
		remote, err = s.files.List(ctx, pointerRoot)
	case config.BackendS3:
		backend = models.BackendS3
		remote, err = s.objects.List(ctx, pointerRoot+"/")
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", common.ErrConfiguration, s.config.StorageBackend)
	}
	if err != nil {
		return nil, err
	}

	known, err := s.repos.Documents(s.db).ListPointers(ctx, backend)
	if err != nil {
		return nil, err
	}
	knownSet := make(map[string]struct{}, len(known))
	for _, p := range known {
		knownSet[p] = struct{}{}
	}

	var orphans []string
	for _, p := range remote {
		if _, ok := knownSet[p]; !ok {
			orphans = append(orphans, p)
		}
	}
	return orphans, nil
}
