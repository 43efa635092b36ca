// Package uploader publishes report artifacts to object storage.
package uploader

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Uploader stores one object and returns its URL.
type Uploader interface {
	Enabled() bool
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// NoopUploader discards uploads.
type NoopUploader struct{}

// Enabled always returns false.
func (NoopUploader) Enabled() bool {
	return false
}

// Upload does nothing.
func (NoopUploader) Upload(context.Context, string, []byte, string) (string, error) {
	return "", nil
}

// Location is a parsed object storage URL such as s3://bucket/reports/run.json.
type Location struct {
	Scheme string
	Bucket string
	Key    string
}

func (l Location) String() string {
	return fmt.Sprintf("%s://%s/%s", l.Scheme, l.Bucket, l.Key)
}

// ParseLocation parses s3:// and gs:// URLs. ok is false for anything else.
func ParseLocation(raw string) (loc Location, ok bool, err error) {
	if !strings.HasPrefix(raw, "s3://") && !strings.HasPrefix(raw, "gs://") {
		return Location{}, false, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, true, fmt.Errorf("invalid storage URL %q: %w", raw, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" || strings.HasSuffix(key, "/") {
		return Location{}, true, fmt.Errorf("storage URL %q must name a bucket and an object key", raw)
	}
	return Location{Scheme: u.Scheme, Bucket: u.Host, Key: key}, true, nil
}
