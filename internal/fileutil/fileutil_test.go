package fileutil

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateTruncatesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	if err := os.WriteFile(path, []byte("stale content that is long"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("new"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Fatalf("content mismatch: got %q", got)
	}
}

func TestCopyHashed(t *testing.T) {
	var dst bytes.Buffer
	written, sum, err := CopyHashed(&dst, strings.NewReader("hello world"))
	if err != nil {
		t.Fatal(err)
	}
	if written != 11 {
		t.Fatalf("written = %d, want 11", written)
	}
	const want = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if sum != want {
		t.Fatalf("sha256 = %s, want %s", sum, want)
	}
	if dst.String() != "hello world" {
		t.Fatalf("dst = %q", dst.String())
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestCopyHashedPropagatesReadError(t *testing.T) {
	if _, sum, err := CopyHashed(&bytes.Buffer{}, failingReader{}); err == nil || sum != "" {
		t.Fatalf("expected error and empty sum, got sum=%q err=%v", sum, err)
	}
}

func TestRemoveQuietly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "screenshot.png")
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !RemoveQuietly(path) {
		t.Fatal("expected removal to succeed")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file to be gone, stat err=%v", err)
	}
	if !RemoveQuietly(path) {
		t.Fatal("expected missing file to count as removed")
	}
	if !RemoveQuietly("") {
		t.Fatal("expected empty path to be a no-op")
	}
}
