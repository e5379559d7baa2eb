package filehandler

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ImageInfo describes a catalog image without decoding its pixels.
type ImageInfo struct {
	Path     string `json:"path"`
	Format   string `json:"format"`
	MIMEType string `json:"mime_type"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Bytes    int64  `json:"bytes"`
}

// Inspect reads the image header of path. SVG files are vector images, so
// only their size on disk is reported.
func Inspect(path string) (*ImageInfo, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mimeType, ok := SupportedImageExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported image extension %q", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	info := &ImageInfo{Path: path, MIMEType: mimeType, Bytes: st.Size()}
	if ext == ".svg" {
		info.Format = "svg"
		return info, nil
	}

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read image header of %s: %w", path, err)
	}
	info.Format = format
	info.Width = cfg.Width
	info.Height = cfg.Height
	return info, nil
}

// InspectAll inspects every path, skipping files whose header cannot be read.
func InspectAll(paths []string) []*ImageInfo {
	out := make([]*ImageInfo, 0, len(paths))
	for _, p := range paths {
		if info, err := Inspect(p); err == nil {
			out = append(out, info)
		}
	}
	return out
}
