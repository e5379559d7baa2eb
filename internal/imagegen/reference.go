package imagegen

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Reference is a reference image read once and shared read-only by every
// edit call of a batch.
type Reference struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Reader returns a fresh reader over the image bytes.
func (r Reference) Reader() io.Reader {
	return bytes.NewReader(r.Data)
}

// referenceMIMETypes maps accepted reference extensions to MIME types.
var referenceMIMETypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// LoadReferences opens and reads every path once, in order.
func LoadReferences(paths []string) ([]Reference, error) {
	refs := make([]Reference, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read reference image %s: %w", p, err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("reference image %s is empty", p)
		}

		mime, ok := referenceMIMETypes[strings.ToLower(filepath.Ext(p))]
		if !ok {
			mime = http.DetectContentType(data)
		}

		log.Debug().
			Str("path", p).
			Str("mime_type", mime).
			Int("size_bytes", len(data)).
			Msg("Reference image loaded")

		refs = append(refs, Reference{
			Name:     filepath.Base(p),
			MIMEType: mime,
			Data:     data,
		})
	}
	return refs, nil
}
