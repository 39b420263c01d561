// Package uploads spools request-scoped audio uploads to uniquely named
// temporary files.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Spool writes uploads into a shared directory. Names never collide, so
// concurrent requests need no coordination; each request deletes its own file.
type Spool struct {
	dir string
}

// NewSpool ensures the spool directory exists.
func NewSpool(dir string) (*Spool, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	return &Spool{dir: dir}, nil
}

// Artifact is one spooled upload. It lives for a single request.
type Artifact struct {
	Path        string
	ContentType string
	Size        int64
}

// Stash copies src into a fresh uniquely named file.
func (s *Spool) Stash(src io.Reader, contentType string) (*Artifact, error) {
	path := filepath.Join(s.dir, "audio-"+uuid.NewString())
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}
	written, err := io.Copy(file, src)
	if err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write spool file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close spool file: %w", err)
	}
	return &Artifact{Path: path, ContentType: contentType, Size: written}, nil
}

// Open returns a reader over the spooled bytes.
func (a *Artifact) Open() (*os.File, error) {
	return os.Open(a.Path)
}

// Remove deletes the artifact. Cleanup is best-effort and never surfaces to
// the caller.
func (a *Artifact) Remove() {
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Debug("spool cleanup failed", "path", a.Path, "error", err)
	}
}
