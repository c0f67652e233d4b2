package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store persists uploaded artwork and generated receipts and serves them
// back by URL.
type Store interface {
	Upload(ctx context.Context, name string, data []byte, progress func(written, total int64)) (string, error)
	Delete(ctx context.Context, name string) error
}

// DiskStore writes media files under a root directory and maps them to URLs
// under a base path (served by the router's file server).
type DiskStore struct {
	Root    string
	BaseURL string
}

func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory %s: %w", root, err)
	}
	return &DiskStore{Root: root, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// uploadChunkSize keeps progress callbacks responsive on large flyers.
const uploadChunkSize = 64 * 1024

// Upload stores data under name (a relative path like "flyers/b1.png") and
// returns the public URL. The progress callback, if set, is invoked as bytes
// are written.
func (s *DiskStore) Upload(ctx context.Context, name string, data []byte, progress func(written, total int64)) (string, error) {
	clean, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media subdirectory: %w", err)
	}

	// Write to a temp file first so a partial write never shows up at the
	// public URL.
	tmp, err := os.CreateTemp(filepath.Dir(clean), ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	total := int64(len(data))
	var written int64
	reader := bytes.NewReader(data)
	buf := make([]byte, uploadChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			tmp.Close()
			return "", err
		}
		n, rerr := reader.Read(buf)
		if n > 0 {
			if _, werr := tmp.Write(buf[:n]); werr != nil {
				tmp.Close()
				return "", werr
			}
			written += int64(n)
			if progress != nil {
				progress(written, total)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			tmp.Close()
			return "", rerr
		}
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), clean); err != nil {
		return "", err
	}

	return s.BaseURL + "/" + filepath.ToSlash(name), nil
}

// Delete removes a stored file. Deleting a missing file is not an error.
func (s *DiskStore) Delete(ctx context.Context, name string) error {
	clean, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(clean); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// resolve maps a relative media name to an absolute path, rejecting anything
// that escapes the root.
func (s *DiskStore) resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid media name %q", name)
	}
	return filepath.Join(s.Root, clean), nil
}
