package config

import (
	"flag"
	"os"
	"time"

	"github.com/taxdesk/taxdocs/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          HTTP bind address (e.g., ":8080")
//	-d string          PostgreSQL DSN
//	-s string          JWT HMAC secret key
//	-k string          storage backend: "sftp" or "s3"
//	-u string          S3 root user
//	-p string          S3 root password
//	-b string          S3 bucket name
//	-g string          S3 region
//	-e string          S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-presign-ttl int   presigned URL validity, minutes
//	-sftp-host string  SFTP host
//	-sftp-port int     SFTP port
//	-sftp-user string  SFTP user
//	-sftp-pass string  SFTP password
//	-sftp-dir string   SFTP base directory
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-k", "-u", "-p", "-b", "-g", "-e",
		"-presign-ttl", "-sftp-host", "-sftp-port", "-sftp-user", "-sftp-pass", "-sftp-dir",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.StorageBackend, "k", config.StorageBackend, "storage backend (sftp or s3)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	presignTTL := fs.Int("presign-ttl", int(config.PresignValidityDuration.Minutes()), "presigned URL validity (in minutes)")

	fs.StringVar(&config.SFTPHost, "sftp-host", config.SFTPHost, "SFTP host")
	fs.IntVar(&config.SFTPPort, "sftp-port", config.SFTPPort, "SFTP port")
	fs.StringVar(&config.SFTPUser, "sftp-user", config.SFTPUser, "SFTP user")
	fs.StringVar(&config.SFTPPassword, "sftp-pass", config.SFTPPassword, "SFTP password")
	fs.StringVar(&config.SFTPBaseDir, "sftp-dir", config.SFTPBaseDir, "SFTP base directory")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.PresignValidityDuration = time.Duration(*presignTTL) * time.Minute
}
