package transfer

import (
	"context"
	"errors"
	"testing"

	"github.com/taxdesk/taxdocs/internal/common"
	"github.com/taxdesk/taxdocs/internal/server/config"
)

func newUnconfiguredSFTP(t *testing.T) *SFTPClient {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults() // defaults carry no SFTP credentials
	return NewSFTPClient(cfg, testLogger())
}

func TestSFTP_MissingCredentialsFailFast(t *testing.T) {
	client := newUnconfiguredSFTP(t)
	ctx := context.Background()

	if err := client.Write(ctx, "documents/c/f", []byte("x")); !errors.Is(err, common.ErrConfiguration) {
		t.Fatalf("Write: want ErrConfiguration, got %v", err)
	}
	if _, err := client.Read(ctx, "documents/c/f"); !errors.Is(err, common.ErrConfiguration) {
		t.Fatalf("Read: want ErrConfiguration, got %v", err)
	}
	if _, err := client.List(ctx, "documents"); !errors.Is(err, common.ErrConfiguration) {
		t.Fatalf("List: want ErrConfiguration, got %v", err)
	}
	// Boolean operations never throw.
	if client.Exists(ctx, "documents/c/f") {
		t.Fatal("Exists must read as false when unconfigured")
	}
	if client.Remove(ctx, "documents/c/f") {
		t.Fatal("Remove must report failure when unconfigured")
	}
}

func TestSFTP_FullPathStaysUnderBaseDir(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SFTPBaseDir = "/srv/taxdocs"
	client := NewSFTPClient(cfg, testLogger())

	if got := client.fullPath("documents/client-42/1_a.pdf"); got != "/srv/taxdocs/documents/client-42/1_a.pdf" {
		t.Fatalf("unexpected full path: %q", got)
	}
}
