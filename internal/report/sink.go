package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/leapstack-labs/leapcheck/internal/uploader"
)

const zstdSuffix = ".zst"

// Sink is one destination for a rendered report: the console, a file, or an
// object in S3 or GCS.
type Sink struct {
	Target   string
	Format   Format
	Compress bool
	// Location is set for s3:// and gs:// targets.
	Location *uploader.Location
}

// IsConsole reports whether the sink writes to standard output.
func (s Sink) IsConsole() bool {
	return s.Target == "-" || s.Target == "stdout"
}

// ParseSink interprets a --report value. The format follows the file
// extension (.json, .md, .txt) after an optional .zst suffix, falling back
// to the given format.
func ParseSink(raw string, fallback Format) (Sink, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Sink{}, errors.New("report destination is empty")
	}
	sink := Sink{Target: raw, Format: fallback}
	if sink.IsConsole() {
		return sink, nil
	}

	loc, remote, err := uploader.ParseLocation(raw)
	if err != nil {
		return Sink{}, err
	}
	if remote {
		sink.Location = &loc
	}

	name := raw
	if strings.HasSuffix(name, zstdSuffix) {
		sink.Compress = true
		name = strings.TrimSuffix(name, zstdSuffix)
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		sink.Format = FormatJSON
	case ".md", ".markdown":
		sink.Format = FormatMarkdown
	case ".txt", ".log":
		sink.Format = FormatText
	}
	return sink, nil
}

func (s Sink) contentType() string {
	if s.Compress {
		return "application/zstd"
	}
	switch s.Format {
	case FormatJSON:
		return "application/json"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// UploaderFactory opens an uploader for a storage scheme and bucket.
type UploaderFactory func(ctx context.Context, loc uploader.Location) (uploader.Uploader, error)

// Publisher renders a summary into each configured sink.
type Publisher struct {
	Stdout io.Writer
	// Color styles console output.
	Color   bool
	Verbose bool
	// NewUploader is consulted for s3:// and gs:// sinks.
	NewUploader UploaderFactory
	Logger      *slog.Logger
}

// Publish writes the summary to every sink and returns where each report
// ended up. All sinks are attempted; failures are joined.
func (p *Publisher) Publish(ctx context.Context, s Summary, sinks []Sink) ([]string, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var written []string
	var errs []error
	for _, sink := range sinks {
		dest, err := p.publish(ctx, s, sink)
		if err != nil {
			logger.Warn("failed to write report", "target", sink.Target, "error", err)
			errs = append(errs, fmt.Errorf("report %s: %w", sink.Target, err))
			continue
		}
		logger.Debug("report written", "target", dest, "format", sink.Format, "compressed", sink.Compress)
		written = append(written, dest)
	}
	return written, errors.Join(errs...)
}

func (p *Publisher) publish(ctx context.Context, s Summary, sink Sink) (string, error) {
	if sink.IsConsole() {
		out := p.Stdout
		if out == nil {
			out = os.Stdout
		}
		return "stdout", Write(out, s, Options{Format: sink.Format, Color: p.Color, Verbose: p.Verbose})
	}

	body, err := Render(s, sink, p.Verbose)
	if err != nil {
		return "", err
	}

	if sink.Location != nil {
		if p.NewUploader == nil {
			return "", fmt.Errorf("no uploader configured for %s://", sink.Location.Scheme)
		}
		up, err := p.NewUploader(ctx, *sink.Location)
		if err != nil {
			return "", err
		}
		if c, ok := up.(io.Closer); ok {
			defer func() { _ = c.Close() }()
		}
		return up.Upload(ctx, sink.Location.Key, body, sink.contentType())
	}

	if dir := filepath.Dir(sink.Target); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(sink.Target, body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return sink.Target, nil
}

// Render produces the bytes of a file or object sink. Files are never
// colored and always list passing examples. Run ids, timestamps and
// durations are only kept when timings is set.
func Render(s Summary, sink Sink, timings bool) ([]byte, error) {
	if !timings {
		s = s.WithoutTimings()
	}
	var buf bytes.Buffer
	if err := Write(&buf, s, Options{Format: sink.Format, Verbose: true}); err != nil {
		return nil, err
	}
	if !sink.Compress {
		return buf.Bytes(), nil
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	defer func() { _ = enc.Close() }()
	return enc.EncodeAll(buf.Bytes(), nil), nil
}

// DefaultUploaderFactory builds S3 and GCS uploaders from base settings,
// taking the bucket from the sink URL.
func DefaultUploaderFactory(s3cfg uploader.S3Config, gcscfg uploader.GCSConfig) UploaderFactory {
	return func(ctx context.Context, loc uploader.Location) (uploader.Uploader, error) {
		switch loc.Scheme {
		case "s3":
			cfg := s3cfg
			cfg.Bucket = loc.Bucket
			return uploader.NewS3(ctx, cfg)
		case "gs":
			cfg := gcscfg
			cfg.Bucket = loc.Bucket
			return uploader.NewGCS(ctx, cfg)
		default:
			return nil, fmt.Errorf("unsupported storage scheme %q", loc.Scheme)
		}
	}
}
