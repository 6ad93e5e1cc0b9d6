package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
)

// Create opens path for writing with default permissions (0o644), creating
// it or truncating an existing file.
func Create(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}

// CopyHashed streams src into dst and returns the byte count together with
// the hex SHA256 of everything written.
func CopyHashed(dst io.Writer, src io.Reader) (int64, string, error) {
	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(dst, hasher), src)
	if err != nil {
		return written, "", err
	}
	return written, hex.EncodeToString(hasher.Sum(nil)), nil
}

// RemoveQuietly deletes path, ignoring a missing file and any other error.
// It reports whether the path is gone afterwards.
func RemoveQuietly(path string) bool {
	if path == "" {
		return true
	}
	err := os.Remove(path)
	return err == nil || errors.Is(err, fs.ErrNotExist)
}
