package uploader

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSConfig configures Google Cloud Storage. An empty credentials file uses
// application default credentials.
type GCSConfig struct {
	Bucket          string `koanf:"bucket"`
	CredentialsFile string `koanf:"credentials_file"`
}

// GCSUploader uploads report artifacts to Google Cloud Storage.
type GCSUploader struct {
	bucket string
	client *storage.Client
}

// NewGCS constructs an uploader for one bucket.
func NewGCS(ctx context.Context, cfg GCSConfig) (*GCSUploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs uploader requires a bucket")
	}
	opts := []option.ClientOption{}
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(strings.TrimSpace(cfg.CredentialsFile)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSUploader{bucket: cfg.Bucket, client: client}, nil
}

// Enabled reports whether the uploader has a client.
func (u *GCSUploader) Enabled() bool {
	return u != nil && u.client != nil
}

// Upload writes body to key and returns its gs:// URL.
func (u *GCSUploader) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if !u.Enabled() {
		return "", fmt.Errorf("gcs uploader is not initialized")
	}
	w := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload gs://%s/%s: %w", u.bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload gs://%s/%s: %w", u.bucket, key, err)
	}
	return Location{Scheme: "gs", Bucket: u.bucket, Key: key}.String(), nil
}

// Close releases the underlying client.
func (u *GCSUploader) Close() error {
	if u == nil || u.client == nil {
		return nil
	}
	return u.client.Close()
}
