package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/taxdesk/taxdocs/internal/common"
	"github.com/taxdesk/taxdocs/internal/logging"
	"github.com/taxdesk/taxdocs/internal/server/config"
)

// handshakeTimeout bounds the TCP dial plus SSH handshake. A host that is
// reachable but unresponsive must not hold a request longer than this.
const handshakeTimeout = 30 * time.Second

// SFTPClient performs exactly one remote operation per call over a freshly
// authenticated session. Storage pointers passed to it are relative to the
// configured base directory; the absolute remote path never leaves this type.
type SFTPClient struct {
	host     string
	port     int
	user     string
	password string
	baseDir  string
	logger   logging.Logger
}

// NewSFTPClient builds a client from configuration. Missing credentials are
// not an error here; each operation fails fast with ErrConfiguration
// instead, so a deployment running purely on the object store starts fine.
func NewSFTPClient(cfg *config.Config, logger logging.Logger) *SFTPClient {
	return &SFTPClient{
		host:     cfg.SFTPHost,
		port:     cfg.SFTPPort,
		user:     cfg.SFTPUser,
		password: cfg.SFTPPassword,
		baseDir:  cfg.SFTPBaseDir,
		logger:   logger.With("module", "sftp"),
	}
}

// remoteFS is the slice of *sftp.Client the directory provisioner needs.
type remoteFS interface {
	Stat(p string) (os.FileInfo, error)
	Mkdir(p string) error
}

// connect opens a new SSH connection and SFTP session. The caller owns both
// returned closers and must close the session before the connection.
func (c *SFTPClient) connect() (*sftp.Client, *ssh.Client, error) {
	if c.host == "" || c.user == "" || c.password == "" {
		return nil, nil, fmt.Errorf("%w: sftp host, user and password are required", common.ErrConfiguration)
	}

	sshConfig := &ssh.ClientConfig{
		User:            c.user,
		Auth:            []ssh.AuthMethod{ssh.Password(c.password)},
		// The file host lives on the office's private network segment;
		// host identity is pinned at the network layer.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         handshakeTimeout,
	}

	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))
	conn, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: dialing %s: %v", common.ErrConnection, addr, err)
	}

	session, err := sftp.NewClient(conn)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("%w: opening sftp session: %v", common.ErrConnection, err)
	}

	return session, conn, nil
}

func (c *SFTPClient) fullPath(pointer string) string {
	return path.Join(c.baseDir, pointer)
}

// Write stores the full payload at pointer, overwriting any existing file
// and creating missing directories first. After a successful write the
// remote size is compared with the payload length; a mismatch is logged at
// warning level but does not fail the operation.
func (c *SFTPClient) Write(ctx context.Context, pointer string, data []byte) error {
	session, conn, err := c.connect()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer session.Close()

	target := c.fullPath(pointer)

	if err := ensurePath(session, path.Dir(target)); err != nil {
		return err
	}

	f, err := session.Create(target)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", common.ErrTransfer, pointer, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: writing %s: %v", common.ErrTransfer, pointer, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", common.ErrTransfer, pointer, err)
	}

	if fi, err := session.Stat(target); err == nil && fi.Size() != int64(len(data)) {
		c.logger.Warn(ctx, "remote size does not match payload after write",
			"pointer", pointer, "wrote", len(data), "remote", fi.Size())
	}

	return nil
}

// Read returns the full remote file. A missing file maps to ErrNotFound.
func (c *SFTPClient) Read(ctx context.Context, pointer string) ([]byte, error) {
	session, conn, err := c.connect()
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	defer session.Close()

	f, err := session.Open(c.fullPath(pointer))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrNotFound, pointer)
		}
		return nil, fmt.Errorf("%w: opening %s: %v", common.ErrTransfer, pointer, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", common.ErrTransfer, pointer, err)
	}
	return data, nil
}

// Remove deletes a file and reports success as a boolean: deleting a file
// that is already gone is a common, non-fatal race and counts as success.
func (c *SFTPClient) Remove(ctx context.Context, pointer string) bool {
	session, conn, err := c.connect()
	if err != nil {
		c.logger.Warn(ctx, "remote delete could not connect", "pointer", pointer, "error", err)
		return false
	}
	defer conn.Close()
	defer session.Close()

	target := c.fullPath(pointer)
	if err := session.Remove(target); err != nil {
		if _, statErr := session.Stat(target); statErr != nil {
			return true // already gone
		}
		c.logger.Warn(ctx, "remote delete failed", "pointer", pointer, "error", err)
		return false
	}
	return true
}

// Exists reports whether pointer resolves to a remote file. Existence checks
// never throw: every error, including connection failures, reads as false.
func (c *SFTPClient) Exists(ctx context.Context, pointer string) bool {
	session, conn, err := c.connect()
	if err != nil {
		return false
	}
	defer conn.Close()
	defer session.Close()

	_, err = session.Stat(c.fullPath(pointer))
	return err == nil
}

// List walks the tree under prefix and returns every file as a pointer
// relative to the base directory. Used by the orphan audit.
func (c *SFTPClient) List(ctx context.Context, prefix string) ([]string, error) {
	session, conn, err := c.connect()
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	defer session.Close()

	root := c.fullPath(prefix)
	var result []string

	walker := session.Walk(root)
	for walker.Step() {
		if walker.Err() != nil {
			continue
		}
		if walker.Stat().IsDir() {
			continue
		}
		rel := strings.TrimPrefix(walker.Path(), c.baseDir)
		result = append(result, strings.TrimPrefix(rel, "/"))
	}
	return result, nil
}
