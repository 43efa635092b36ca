package uploader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Location
		ok      bool
		wantErr string
	}{
		{name: "s3", raw: "s3://reports/ci/run.json", want: Location{Scheme: "s3", Bucket: "reports", Key: "ci/run.json"}, ok: true},
		{name: "gcs", raw: "gs://bkt/run.md.zst", want: Location{Scheme: "gs", Bucket: "bkt", Key: "run.md.zst"}, ok: true},
		{name: "local path", raw: "out/report.json"},
		{name: "stdout", raw: "-"},
		{name: "no key", raw: "s3://reports", ok: true, wantErr: "must name a bucket and an object key"},
		{name: "directory key", raw: "gs://bkt/dir/", ok: true, wantErr: "must name a bucket and an object key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, ok, err := ParseLocation(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, loc)
		})
	}
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "s3://b/k/x.json", Location{Scheme: "s3", Bucket: "b", Key: "k/x.json"}.String())
}

func TestNoopUploader(t *testing.T) {
	var u Uploader = NoopUploader{}
	assert.False(t, u.Enabled())
	url, err := u.Upload(context.Background(), "k", []byte("x"), "")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestConstructorsRequireBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{})
	assert.EqualError(t, err, "s3 uploader requires a bucket")

	_, err = NewGCS(context.Background(), GCSConfig{})
	assert.EqualError(t, err, "gcs uploader requires a bucket")
}

func TestUninitialisedUploadersFail(t *testing.T) {
	_, err := (&S3Uploader{bucket: "b"}).Upload(context.Background(), "k", nil, "")
	assert.EqualError(t, err, "s3 uploader is not initialized")

	_, err = (&GCSUploader{bucket: "b"}).Upload(context.Background(), "k", nil, "")
	assert.EqualError(t, err, "gcs uploader is not initialized")
}
