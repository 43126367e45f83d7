package config

import (
	"encoding/json"
	"os"

	"github.com/taxdesk/taxdocs/internal/flagx"
	"github.com/taxdesk/taxdocs/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. It uses timex.Duration for interval fields, which allows parsing
// both string values such as "15m" and integer nanoseconds. After
// unmarshalling, its fields are copied into the runtime Config struct.
type JsonConfig struct {
	EndpointAddrHTTP        string         `json:"endpoint_addr_http"`
	DatabaseDSN             string         `json:"database_dsn"`
	SecretKey               string         `json:"secret_key"`
	StorageBackend          string         `json:"storage_backend"`
	S3RootUser              string         `json:"s3_root_user"`
	S3RootPassword          string         `json:"s3_root_password"`
	S3Bucket                string         `json:"s3_bucket"`
	S3Region                string         `json:"s3_region"`
	S3BaseEndpoint          string         `json:"s3_base_endpoint"`
	PresignValidityDuration timex.Duration `json:"presign_validity_duration"`
	SFTPHost                string         `json:"sftp_host"`
	SFTPPort                int            `json:"sftp_port"`
	SFTPUser                string         `json:"sftp_user"`
	SFTPPassword            string         `json:"sftp_password"`
	SFTPBaseDir             string         `json:"sftp_base_dir"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config. The file path comes from the -c or -config command-line flags; if
// neither is set, no JSON file is loaded. Unreadable or invalid files panic:
// a half-applied configuration is worse than a refused start.
//
// Only fields present in the file override the current values, so the JSON
// layer composes with defaults and flags.
func parseJson(config *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	jc := &JsonConfig{}
	if err := json.Unmarshal(data, jc); err != nil {
		panic(err)
	}

	applyJson(config, jc)
}

func applyJson(config *Config, jc *JsonConfig) {
	if jc.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = jc.EndpointAddrHTTP
	}
	if jc.DatabaseDSN != "" {
		config.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.SecretKey != "" {
		config.SecretKey = jc.SecretKey
	}
	if jc.StorageBackend != "" {
		config.StorageBackend = jc.StorageBackend
	}
	if jc.S3RootUser != "" {
		config.S3RootUser = jc.S3RootUser
	}
	if jc.S3RootPassword != "" {
		config.S3RootPassword = jc.S3RootPassword
	}
	if jc.S3Bucket != "" {
		config.S3Bucket = jc.S3Bucket
	}
	if jc.S3Region != "" {
		config.S3Region = jc.S3Region
	}
	if jc.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = jc.S3BaseEndpoint
	}
	if jc.PresignValidityDuration.Duration != 0 {
		config.PresignValidityDuration = jc.PresignValidityDuration.Duration
	}
	if jc.SFTPHost != "" {
		config.SFTPHost = jc.SFTPHost
	}
	if jc.SFTPPort != 0 {
		config.SFTPPort = jc.SFTPPort
	}
	if jc.SFTPUser != "" {
		config.SFTPUser = jc.SFTPUser
	}
	if jc.SFTPPassword != "" {
		config.SFTPPassword = jc.SFTPPassword
	}
	if jc.SFTPBaseDir != "" {
		config.SFTPBaseDir = jc.SFTPBaseDir
	}
}
