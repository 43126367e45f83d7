package transfer

import (
	"errors"
	"io/fs"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/taxdesk/taxdocs/internal/common"
)

type fakeDirInfo struct{ name string }

func (f fakeDirInfo) Name() string       { return f.name }
func (f fakeDirInfo) Size() int64        { return 0 }
func (f fakeDirInfo) Mode() fs.FileMode  { return fs.ModeDir }
func (f fakeDirInfo) ModTime() time.Time { return time.Time{} }
func (f fakeDirInfo) IsDir() bool        { return true }
func (f fakeDirInfo) Sys() any           { return nil }

// fakeRemoteFS records the directories that exist and the calls made.
type fakeRemoteFS struct {
	existing map[string]bool
	mkdirs   []string
	// mkdirErr, when set, makes Mkdir fail for the named path.
	mkdirErr map[string]error
	// racedPaths simulate a concurrent creator: Mkdir fails but the
	// directory exists on the follow-up Stat.
	racedPaths map[string]bool
}

func newFakeRemoteFS() *fakeRemoteFS {
	return &fakeRemoteFS{
		existing:   map[string]bool{},
		mkdirErr:   map[string]error{},
		racedPaths: map[string]bool{},
	}
}

func (f *fakeRemoteFS) Stat(p string) (os.FileInfo, error) {
	if f.existing[p] || f.racedPaths[p] {
		return fakeDirInfo{name: p}, nil
	}
	return nil, os.ErrNotExist
}

func (f *fakeRemoteFS) Mkdir(p string) error {
	f.mkdirs = append(f.mkdirs, p)
	if err, ok := f.mkdirErr[p]; ok {
		return err
	}
	if f.racedPaths[p] {
		return errors.New("failure: file exists")
	}
	f.existing[p] = true
	return nil
}

func TestEnsurePath_CreatesEverySegment(t *testing.T) {
	remote := newFakeRemoteFS()

	if err := ensurePath(remote, "/srv/taxdocs/documents/client-42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"/srv", "/srv/taxdocs", "/srv/taxdocs/documents", "/srv/taxdocs/documents/client-42"}
	if !reflect.DeepEqual(remote.mkdirs, want) {
		t.Fatalf("mkdir calls = %v, want %v", remote.mkdirs, want)
	}
}

func TestEnsurePath_Idempotent(t *testing.T) {
	remote := newFakeRemoteFS()

	if err := ensurePath(remote, "/srv/docs/a"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	created := len(remote.mkdirs)

	if err := ensurePath(remote, "/srv/docs/a"); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if len(remote.mkdirs) != created {
		t.Fatalf("second call created directories: %v", remote.mkdirs[created:])
	}
}

func TestEnsurePath_SkipsExistingPrefix(t *testing.T) {
	remote := newFakeRemoteFS()
	remote.existing["/srv"] = true
	remote.existing["/srv/docs"] = true

	if err := ensurePath(remote, "/srv/docs/client-7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"/srv/docs/client-7"}
	if !reflect.DeepEqual(remote.mkdirs, want) {
		t.Fatalf("mkdir calls = %v, want %v", remote.mkdirs, want)
	}
}

func TestEnsurePath_ConcurrentCreateWinsCountAsSuccess(t *testing.T) {
	remote := newFakeRemoteFS()
	// Another caller creates /srv/docs between our Stat and Mkdir.
	remote.racedPaths["/srv/docs"] = true

	if err := ensurePath(remote, "/srv/docs/client-7"); err != nil {
		t.Fatalf("racing creator must not surface as an error, got: %v", err)
	}
}

func TestEnsurePath_RealFailurePropagates(t *testing.T) {
	remote := newFakeRemoteFS()
	remote.mkdirErr["/srv"] = errors.New("permission denied")

	err := ensurePath(remote, "/srv/docs")
	if !errors.Is(err, common.ErrTransfer) {
		t.Fatalf("want ErrTransfer, got %v", err)
	}
}

func TestEnsurePath_RootAndEmptyAreNoOps(t *testing.T) {
	remote := newFakeRemoteFS()
	for _, dir := range []string{"/", ".", ""} {
		if err := ensurePath(remote, dir); err != nil {
			t.Fatalf("ensurePath(%q): %v", dir, err)
		}
	}
	if len(remote.mkdirs) != 0 {
		t.Fatalf("no directories should be created, got %v", remote.mkdirs)
	}
}
