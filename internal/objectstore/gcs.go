package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gstorage "google.golang.org/api/storage/v1"
)

// GCS stores objects in a Google Cloud Storage bucket through the JSON API.
type GCS struct {
	svc     *gstorage.Service
	bucket  string
	baseURL string
}

var _ Store = (*GCS)(nil)

// GCSConfig selects credentials for NewGCS. CredentialsJSON wins over
// CredentialsFile; with neither, application default credentials apply.
type GCSConfig struct {
	Bucket          string
	PublicBaseURL   string
	CredentialsJSON string
	CredentialsFile string
}

func NewGCS(ctx context.Context, cfg GCSConfig, extra ...goption.ClientOption) (*GCS, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("missing storage bucket")
	}
	opts := []goption.ClientOption{
		goption.WithScopes(gstorage.DevstorageReadWriteScope),
	}
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, goption.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		opts = append(opts, goption.WithCredentialsJSON(b))
	}
	if len(extra) == 0 {
		opts = append(opts, goption.WithHTTPClient(newHTTPClientWithPooling()))
	}
	opts = append(opts, extra...)

	svc, err := gstorage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}
	slog.InfoContext(ctx, "Google Cloud Storage client created", "bucket", cfg.Bucket)
	return &GCS{svc: svc, bucket: cfg.Bucket, baseURL: cfg.PublicBaseURL}, nil
}

// newHTTPClientWithPooling keeps connections to the storage API warm.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

func (g *GCS) Bucket() string { return g.bucket }

func (g *GCS) Upload(ctx context.Context, objectPath, contentType string, data []byte) (string, error) {
	clean, err := CleanPath(objectPath)
	if err != nil {
		return "", err
	}
	obj := &gstorage.Object{Name: clean, ContentType: contentType}
	_, err = g.svc.Objects.Insert(g.bucket, obj).
		Media(bytes.NewReader(data), googleapi.ContentType(contentType)).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}
	slog.InfoContext(ctx, "Object uploaded", "bucket", g.bucket, "path", clean, "bytes", len(data))
	return clean, nil
}

func (g *GCS) PublicURL(objectPath string) string {
	return publicURL(g.baseURL, g.bucket, objectPath)
}

func (g *GCS) Remove(ctx context.Context, paths []string) error {
	var errs []error
	for _, p := range paths {
		clean, err := CleanPath(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		err = g.svc.Objects.Delete(g.bucket, clean).Context(ctx).Do()
		if err != nil && !isNotFound(err) {
			errs = append(errs, fmt.Errorf("delete %s: %w", clean, err))
		}
	}
	if len(errs) > 0 {
		slog.WarnContext(ctx, "Some objects could not be removed", "bucket", g.bucket, "failed", len(errs), "requested", len(paths))
	}
	return errors.Join(errs...)
}

func (g *GCS) Open(ctx context.Context, objectPath string) (io.ReadCloser, string, error) {
	clean, err := CleanPath(objectPath)
	if err != nil {
		return nil, "", err
	}
	resp, err := g.svc.Objects.Get(g.bucket, clean).Context(ctx).Download()
	if isNotFound(err) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("download object: %w", err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return resp.Body, ct, nil
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
