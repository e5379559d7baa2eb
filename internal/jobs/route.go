package jobs

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// IDParam reads the named chi URL parameter and normalizes it to a full ID,
// adding idPrefix when the client sent only the hex part. ok is false when
// the result is not a well-formed ID.
func IDParam(r *http.Request, name, idPrefix string) (id string, ok bool) {
	id = strings.TrimSpace(chi.URLParam(r, name))
	if id == "" {
		return "", false
	}
	if !strings.HasPrefix(id, idPrefix) {
		id = idPrefix + id
	}
	return id, ValidID(id, idPrefix)
}
