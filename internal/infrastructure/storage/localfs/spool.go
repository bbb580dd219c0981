package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
)

// Spool holds transient binary payloads as temp files. Every Acquire must be
// paired with a Release.
type Spool struct {
	dir string
}

func NewSpool(dir string) (*Spool, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	return &Spool{dir: dir}, nil
}

func (s *Spool) Acquire(ctx context.Context, data io.Reader) (domain.BlobHandle, error) {
	if err := ctx.Err(); err != nil {
		return domain.BlobHandle{}, err
	}

	id := uuid.NewString()
	f, err := os.CreateTemp(s.dir, "gst-report-"+id+"-*.blob")
	if err != nil {
		return domain.BlobHandle{}, fmt.Errorf("create spool file: %w", err)
	}
	size, err := io.Copy(f, data)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(f.Name())
		return domain.BlobHandle{}, fmt.Errorf("write spool file: %w", err)
	}

	return domain.BlobHandle{ID: id, Path: f.Name(), Size: size}, nil
}

// Release removes the spooled file. Releasing twice is not an error.
func (s *Spool) Release(_ context.Context, handle domain.BlobHandle) error {
	if handle.Path == "" {
		return nil
	}
	if filepath.Dir(handle.Path) != filepath.Clean(s.dir) {
		return fmt.Errorf("handle %s does not belong to spool %s", handle.ID, s.dir)
	}
	if err := os.Remove(handle.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove spool file: %w", err)
	}
	return nil
}
