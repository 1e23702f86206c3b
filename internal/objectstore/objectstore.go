// Package objectstore uploads, serves and removes listing photos.
//
// Public URLs follow {base}/storage/v1/object/public/{bucket}/{path}, the
// convention core.ExtractStoragePath understands.
package objectstore

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"propcrm/internal/core"
)

var (
	ErrInvalidPath = errors.New("invalid object path")
	ErrNotFound    = errors.New("object not found")
)

// Store is the object storage port.
type Store interface {
	// Upload writes data at objectPath and returns the stored path.
	Upload(ctx context.Context, objectPath, contentType string, data []byte) (string, error)
	PublicURL(objectPath string) string
	// Remove deletes every path it can. Missing objects are not errors;
	// the remaining failures are joined.
	Remove(ctx context.Context, paths []string) error
	// Open streams an object back for the public route.
	Open(ctx context.Context, objectPath string) (io.ReadCloser, string, error)
	Bucket() string
}

// CleanPath rejects empty, absolute-escaping and parent-relative paths and
// returns the slash-normalized form.
func CleanPath(p string) (string, error) {
	p = strings.TrimLeft(strings.TrimSpace(p), "/")
	if p == "" {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", ErrInvalidPath
		}
	}
	clean := path.Clean(p)
	if clean == "." {
		return "", ErrInvalidPath
	}
	return clean, nil
}

func publicURL(base, bucket, objectPath string) string {
	return strings.TrimRight(base, "/") + core.PublicObjectPrefix + bucket + "/" + strings.TrimLeft(objectPath, "/")
}

// PhotoPath builds the object path for a new listing photo.
func PhotoPath(listingID, id, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".heic", ".gif":
	default:
		ext = ".jpg"
	}
	return "listings/" + listingID + "/" + id + ext
}
