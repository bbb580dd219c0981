package localfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSpoolAcquireAndRelease(t *testing.T) {
	spool, err := NewSpool(t.TempDir())
	if err != nil {
		t.Fatalf("NewSpool() error = %v", err)
	}

	handle, err := spool.Acquire(context.Background(), strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if handle.ID == "" || handle.Size != int64(len("%PDF-1.4")) {
		t.Fatalf("unexpected handle: %+v", handle)
	}
	data, err := os.ReadFile(handle.Path)
	if err != nil || string(data) != "%PDF-1.4" {
		t.Fatalf("unexpected spooled data %q (%v)", data, err)
	}

	if err := spool.Release(context.Background(), handle); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := os.Stat(handle.Path); !os.IsNotExist(err) {
		t.Fatalf("expected spool file removed, stat err = %v", err)
	}
	if err := spool.Release(context.Background(), handle); err != nil {
		t.Fatalf("second Release() error = %v", err)
	}
}

func TestSpoolReleaseRejectsForeignPath(t *testing.T) {
	spool, err := NewSpool(t.TempDir())
	if err != nil {
		t.Fatalf("NewSpool() error = %v", err)
	}
	outside := filepath.Join(t.TempDir(), "keep.txt")
	if err := os.WriteFile(outside, []byte("keep"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	handle, err := spool.Acquire(context.Background(), strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	handle.Path = outside
	if err := spool.Release(context.Background(), handle); err == nil {
		t.Fatalf("expected foreign path to be rejected")
	}
	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("foreign file must survive: %v", err)
	}
}

func TestStorageSaveUsesBaseName(t *testing.T) {
	dir := t.TempDir()
	storage, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	path, err := storage.Save(context.Background(), "../GST_Risk_Report_a1b2c3d4.pdf", strings.NewReader("report"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if path != filepath.Join(dir, "GST_Risk_Report_a1b2c3d4.pdf") {
		t.Fatalf("unexpected path: %s", path)
	}

	reader, err := storage.Open(context.Background(), "GST_Risk_Report_a1b2c3d4.pdf")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reader.Close()
	data, _ := io.ReadAll(reader)
	if string(data) != "report" {
		t.Fatalf("unexpected content: %q", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected no temporary files left, got %d entries", len(entries))
	}
}
