package batch

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/webp"

	"github.com/fpang/creatia/internal/imagegen"
)

// DefaultJPEGQuality is the encoder quality for persisted JPEG files.
const DefaultJPEGQuality = 95

// Mirror copies a persisted file to secondary storage and returns its location.
type Mirror interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// DiskSink writes generated images under Dir using the name
// {prefix}_{index}_{YYYYmmdd_HHMMSS}_{random8}.{format}.
// Every call draws a fresh random token, so concurrent tasks never share a path.
type DiskSink struct {
	Dir         string
	Prefix      string
	Format      string
	JPEGQuality int
	Mirror      Mirror

	now   func() time.Time
	token func() string
}

// NewDiskSink creates a sink for one batch. Empty prefix and format fall back
// to DefaultFilenamePrefix and DefaultOutputFormat.
func NewDiskSink(dir, prefix, format string) *DiskSink {
	if prefix == "" {
		prefix = DefaultFilenamePrefix
	}
	if format == "" {
		format = DefaultOutputFormat
	}
	return &DiskSink{
		Dir:         dir,
		Prefix:      prefix,
		Format:      strings.ToLower(format),
		JPEGQuality: DefaultJPEGQuality,
		now:         time.Now,
		token:       randomToken,
	}
}

func randomToken() string {
	return uuid.New().String()[:8]
}

// Path builds a fresh destination path for the given task index.
func (s *DiskSink) Path(index int) string {
	name := fmt.Sprintf("%s_%d_%s_%s.%s",
		s.Prefix, index, s.now().Format("20060102_150405"), s.token(), s.Format)
	return filepath.Join(s.Dir, name)
}

// Persist decodes the base64 payload, encodes it in the sink's format and
// writes it to a new file.
func (s *DiskSink) Persist(ctx context.Context, index int, img *imagegen.Image) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", s.Dir, err)
	}

	raw, err := base64.StdEncoding.DecodeString(img.B64JSON)
	if err != nil {
		return "", fmt.Errorf("decode base64 payload: %w", err)
	}

	data, err := encodeAs(raw, s.Format, s.JPEGQuality)
	if err != nil {
		return "", err
	}

	path := s.Path(index)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	log.Debug().
		Int("index", index).
		Str("path", path).
		Int("bytes", len(data)).
		Msg("Image persisted")

	if s.Mirror != nil {
		location, err := s.Mirror.Upload(ctx, path)
		if err != nil {
			// The index is reported save_failed without a path, so the
			// local copy must not outlive it.
			if rmErr := os.Remove(path); rmErr != nil {
				log.Warn().Err(rmErr).Str("path", path).Msg("Failed to remove unmirrored image")
			}
			return "", fmt.Errorf("mirror %s: %w", filepath.Base(path), err)
		}
		log.Debug().Int("index", index).Str("location", location).Msg("Image mirrored")
	}

	return path, nil
}

// encodeAs re-encodes raw image bytes so the file content matches its
// extension. WebP has no pure-Go encoder, so a WebP payload is validated and
// kept as-is.
func encodeAs(raw []byte, format string, quality int) ([]byte, error) {
	if format == "webp" {
		if ct := http.DetectContentType(raw); ct != "image/webp" {
			return nil, fmt.Errorf("cannot write %s payload as webp", ct)
		}
		if _, err := webp.DecodeConfig(bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("decode webp: %w", err)
		}
		return raw, nil
	}

	decoded, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var buf bytes.Buffer
	switch format {
	case "jpeg", "jpg":
		if quality <= 0 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		err = jpeg.Encode(&buf, decoded, &jpeg.Options{Quality: quality})
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, decoded)
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
