package jobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestGenerateID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateID(BatchPrefix)
		if !strings.HasPrefix(id, BatchPrefix) {
			t.Fatalf("id %q missing prefix", id)
		}
		if !ValidID(id, BatchPrefix) {
			t.Fatalf("generated id %q is not valid", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"batch-0123456789abcdef0123456789abcdef", true},
		{"batch-0123456789ABCDEF0123456789abcdef", false},
		{"batch-0123", false},
		{"plan-0123456789abcdef0123456789abcdef", false},
		{"batch-", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidID(tt.id, BatchPrefix); got != tt.want {
			t.Errorf("ValidID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestIDParam(t *testing.T) {
	const hex = "0123456789abcdef0123456789abcdef"
	tests := []struct {
		param  string
		wantID string
		wantOK bool
	}{
		{BatchPrefix + hex, BatchPrefix + hex, true},
		{hex, BatchPrefix + hex, true},
		{"nope", BatchPrefix + "nope", false},
		{"", "", false},
	}

	for _, tt := range tests {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("batchID", tt.param)
		r := httptest.NewRequest(http.MethodGet, "/images/batch-status/x", nil)
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

		id, ok := IDParam(r, "batchID", BatchPrefix)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("IDParam(%q) = (%q, %v), want (%q, %v)", tt.param, id, ok, tt.wantID, tt.wantOK)
		}
	}
}
