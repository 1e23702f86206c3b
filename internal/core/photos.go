package core

import (
	"encoding/json"
	"net/url"
	"strings"
)

// PublicObjectPrefix is the path segment that precedes the bucket name in
// public object URLs.
const PublicObjectPrefix = "/storage/v1/object/public/"

// PhotoFields lists the legacy listing columns that may carry photo
// references, in lookup order.
var PhotoFields = []string{"photos", "photo_urls", "images", "image_urls"}

// RefsKind tags a PhotoRefs result.
type RefsKind int

const (
	RefsNone RefsKind = iota
	RefsPaths
)

// PhotoRefs is the outcome of normalizing a photo column: either nothing or
// a non-empty list of paths/URLs.
type PhotoRefs struct {
	Kind  RefsKind
	Paths []string
}

// NormalizePhotoRefs looks through the candidate fields of a raw row and
// decodes the first usable one. A field may hold a []string, a []any,
// a JSON-encoded array, a comma-separated string or a single reference.
func NormalizePhotoRefs(row map[string]any) PhotoRefs {
	for _, field := range PhotoFields {
		v, ok := row[field]
		if !ok || v == nil {
			continue
		}
		if refs, ok := decodeRefs(v); ok {
			return refs
		}
	}
	return PhotoRefs{Kind: RefsNone}
}

func decodeRefs(v any) (PhotoRefs, bool) {
	switch x := v.(type) {
	case []string:
		return pathsOf(compact(x)), true
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return pathsOf(compact(out)), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return PhotoRefs{}, false
		}
		if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err == nil {
				return pathsOf(compact(arr)), true
			}
		}
		if strings.Contains(s, ",") {
			parts := strings.Split(s, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return pathsOf(compact(parts)), true
		}
		return pathsOf([]string{s}), true
	}
	return PhotoRefs{}, false
}

func pathsOf(p []string) PhotoRefs {
	if len(p) == 0 {
		return PhotoRefs{Kind: RefsNone}
	}
	return PhotoRefs{Kind: RefsPaths, Paths: p}
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ExtractStoragePath maps a stored photo reference back to a bare object
// path. Non-URL references are treated as paths; URLs must be public
// object URLs for bucket.
func ExtractStoragePath(ref, bucket string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	if !strings.HasPrefix(ref, "http") {
		p := strings.TrimLeft(ref, "/")
		return p, p != ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	marker := PublicObjectPrefix + bucket + "/"
	idx := strings.Index(u.Path, marker)
	if idx == -1 {
		return "", false
	}
	p := strings.TrimLeft(u.Path[idx+len(marker):], "/")
	return p, p != ""
}

// StoragePaths resolves every reference in refs, dropping the ones that do
// not belong to bucket.
func StoragePaths(refs PhotoRefs, bucket string) []string {
	if refs.Kind != RefsPaths {
		return nil
	}
	out := make([]string, 0, len(refs.Paths))
	for _, r := range refs.Paths {
		if p, ok := ExtractStoragePath(r, bucket); ok {
			out = append(out, p)
		}
	}
	return out
}
