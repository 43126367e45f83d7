package config

import (
	"testing"
	"time"

	"github.com/taxdesk/taxdocs/internal/timex"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if cfg.EndpointAddrHTTP != ":8080" {
		t.Fatalf("unexpected default address: %q", cfg.EndpointAddrHTTP)
	}
	if cfg.StorageBackend != BackendSFTP {
		t.Fatalf("unexpected default backend: %q", cfg.StorageBackend)
	}
	if cfg.PresignValidityDuration != 15*time.Minute {
		t.Fatalf("unexpected default presign TTL: %v", cfg.PresignValidityDuration)
	}
	if cfg.SFTPPort != 22 {
		t.Fatalf("unexpected default sftp port: %d", cfg.SFTPPort)
	}
	// Missing SFTP credentials are a valid state; the SFTP client rejects
	// operations instead of the process refusing to start.
	if cfg.SFTPHost != "" || cfg.SFTPUser != "" || cfg.SFTPPassword != "" {
		t.Fatal("defaults must not invent SFTP credentials")
	}
}

func TestApplyJson_OverridesOnlyProvidedFields(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	applyJson(cfg, &JsonConfig{
		StorageBackend:          BackendS3,
		S3Bucket:                "uploads",
		PresignValidityDuration: timex.Duration{Duration: 5 * time.Minute},
		SFTPHost:                "files.internal",
	})

	if cfg.StorageBackend != BackendS3 {
		t.Fatalf("backend not overridden: %q", cfg.StorageBackend)
	}
	if cfg.S3Bucket != "uploads" {
		t.Fatalf("bucket not overridden: %q", cfg.S3Bucket)
	}
	if cfg.PresignValidityDuration != 5*time.Minute {
		t.Fatalf("presign TTL not overridden: %v", cfg.PresignValidityDuration)
	}
	if cfg.SFTPHost != "files.internal" {
		t.Fatalf("sftp host not overridden: %q", cfg.SFTPHost)
	}
	// Untouched fields keep their defaults.
	if cfg.DatabaseDSN == "" || cfg.EndpointAddrHTTP != ":8080" {
		t.Fatal("fields absent from JSON must keep defaults")
	}
}
