package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
)

// Local keeps objects on disk under dir/bucket.
type Local struct {
	root    string
	bucket  string
	baseURL string
}

var _ Store = (*Local)(nil)

func NewLocal(dir, bucket, baseURL string) (*Local, error) {
	root := filepath.Join(dir, bucket)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{root: root, bucket: bucket, baseURL: baseURL}, nil
}

func (l *Local) Bucket() string { return l.bucket }

func (l *Local) file(objectPath string) (string, error) {
	clean, err := CleanPath(objectPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

func (l *Local) Upload(ctx context.Context, objectPath, contentType string, data []byte) (string, error) {
	clean, err := CleanPath(objectPath)
	if err != nil {
		return "", err
	}
	dst, _ := l.file(clean)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	slog.DebugContext(ctx, "Object stored", "path", clean, "bytes", len(data), "content_type", contentType)
	return clean, nil
}

func (l *Local) PublicURL(objectPath string) string {
	return publicURL(l.baseURL, l.bucket, objectPath)
}

func (l *Local) Remove(ctx context.Context, paths []string) error {
	var errs []error
	for _, p := range paths {
		dst, err := l.file(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", p, err))
		}
	}
	if len(errs) > 0 {
		slog.WarnContext(ctx, "Some objects could not be removed", "failed", len(errs), "requested", len(paths))
	}
	return errors.Join(errs...)
}

func (l *Local) Open(_ context.Context, objectPath string) (io.ReadCloser, string, error) {
	dst, err := l.file(objectPath)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(dst)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("open object: %w", err)
	}
	ct := mime.TypeByExtension(filepath.Ext(dst))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return f, ct, nil
}
