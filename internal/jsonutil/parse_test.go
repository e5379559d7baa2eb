package jsonutil

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `  {"a":1}  `, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```", `[1,2]`},
		{"prose around fence", "Here you go:\n```json\n{\"a\":1}\n```\nEnjoy!", `{"a":1}`},
		{"single line fence", "```{\"a\":1}```", `{"a":1}`},
		{"unterminated fence", "```json\n{\"a\":1}", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.in); got != tt.want {
				t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`The plan is {"lunes": {"description": "uses } and ] inside"}} and more text {"x":1}`, `{"lunes": {"description": "uses } and ] inside"}}`},
		{`result: [{"a":"\"quoted\""}, 2]`, `[{"a":"\"quoted\""}, 2]`},
	}
	for _, tt := range tests {
		got, err := Extract(tt.in)
		if err != nil {
			t.Errorf("Extract(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Extract(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := Extract("no json here"); !errors.Is(err, ErrNoJSON) {
		t.Errorf("expected ErrNoJSON, got %v", err)
	}
	if _, err := Extract(`{"a": [1, 2}`); err == nil || !strings.Contains(err.Error(), "unbalanced") {
		t.Errorf("expected unbalanced error, got %v", err)
	}
	if _, err := Extract(`{"a": 1`); err == nil || !strings.Contains(err.Error(), "unterminated") {
		t.Errorf("expected unterminated error, got %v", err)
	}
}

func TestParseJSON(t *testing.T) {
	type day struct {
		ReferenceImages []string `json:"reference_images"`
		Description     string   `json:"description"`
	}

	plan, err := ParseJSON[map[string]day]("```json\n{\"lunes\":{\"reference_images\":[\"a.png\"],\"description\":\"Kickoff\"}}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan["lunes"].Description != "Kickoff" {
		t.Errorf("description = %q", plan["lunes"].Description)
	}
	if !reflect.DeepEqual(plan["lunes"].ReferenceImages, []string{"a.png"}) {
		t.Errorf("references = %v", plan["lunes"].ReferenceImages)
	}

	if _, err := ParseJSON[map[string]day]("sorry, I cannot help"); !errors.Is(err, ErrNoJSON) {
		t.Errorf("expected ErrNoJSON, got %v", err)
	}
	if _, err := ParseJSON[map[string]day](`{"lunes": "not an object"}`); err == nil || !strings.Contains(err.Error(), "invalid JSON") {
		t.Errorf("expected invalid JSON error, got %v", err)
	}
}
