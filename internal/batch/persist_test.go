package batch

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/fpang/creatia/internal/imagegen"
)

var pathPattern = regexp.MustCompile(`^hackathon_(\d+)_(\d{8}_\d{6})_([0-9a-f]{8})\.(png|jpeg|webp)$`)

func TestDiskSink_PathShape(t *testing.T) {
	dir := t.TempDir()
	sink := NewDiskSink(dir, "hackathon", "PNG")
	sink.now = func() time.Time { return time.Date(2025, 6, 14, 9, 5, 7, 0, time.UTC) }

	p := sink.Path(7)

	if filepath.Dir(p) != dir {
		t.Errorf("dir = %s, want %s", filepath.Dir(p), dir)
	}
	m := pathPattern.FindStringSubmatch(filepath.Base(p))
	if m == nil {
		t.Fatalf("unexpected file name %s", filepath.Base(p))
	}
	if m[1] != "7" || m[2] != "20250614_090507" || m[4] != "png" {
		t.Errorf("unexpected name parts %v", m[1:])
	}
}

func TestDiskSink_DefaultPrefix(t *testing.T) {
	sink := NewDiskSink(t.TempDir(), "", "")
	if base := filepath.Base(sink.Path(0)); !strings.HasPrefix(base, DefaultFilenamePrefix+"_0_") {
		t.Errorf("name %s should start with the default prefix", base)
	}
	if ext := filepath.Ext(sink.Path(0)); ext != ".png" {
		t.Errorf("extension = %s, want .png", ext)
	}
}

func TestDiskSink_PathsUniqueWithinSameSecond(t *testing.T) {
	sink := NewDiskSink(t.TempDir(), "same", "jpeg")
	frozen := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return frozen }

	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		p := sink.Path(i % 10)
		if seen[p] {
			t.Fatalf("collision on %s", p)
		}
		seen[p] = true
	}
}

func TestDiskSink_PersistFormats(t *testing.T) {
	payload := pngPayload(t)

	tests := []struct {
		format string
		magic  []byte
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF}},
		{"png", []byte{0x89, 'P', 'N', 'G'}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out", "deep")
			sink := NewDiskSink(dir, "img", tt.format)

			path, err := sink.Persist(context.Background(), 0, &imagegen.Image{B64JSON: payload})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read %s: %v", path, err)
			}
			if !bytes.HasPrefix(data, tt.magic) {
				t.Errorf("file %s has wrong signature", path)
			}
			if filepath.Ext(path) != "."+tt.format {
				t.Errorf("extension of %s, want .%s", path, tt.format)
			}
		})
	}
}

func TestDiskSink_WebPRejectsNonWebPPayload(t *testing.T) {
	sink := NewDiskSink(t.TempDir(), "img", "webp")

	_, err := sink.Persist(context.Background(), 0, &imagegen.Image{B64JSON: pngPayload(t)})
	if err == nil || !strings.Contains(err.Error(), "webp") {
		t.Errorf("expected webp error, got %v", err)
	}
}

func TestDiskSink_InvalidPayloads(t *testing.T) {
	sink := NewDiskSink(t.TempDir(), "img", "jpeg")

	_, err := sink.Persist(context.Background(), 0, &imagegen.Image{B64JSON: "%%% not base64"})
	if err == nil || !strings.Contains(err.Error(), "base64") {
		t.Errorf("expected base64 error, got %v", err)
	}

	garbage := base64.StdEncoding.EncodeToString([]byte("definitely not an image"))
	_, err = sink.Persist(context.Background(), 0, &imagegen.Image{B64JSON: garbage})
	if err == nil || !strings.Contains(err.Error(), "decode image") {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestDiskSink_DirectoryCreationFailure(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	sink := NewDiskSink(filepath.Join(blocker, "sub"), "img", "png")
	_, err := sink.Persist(context.Background(), 0, &imagegen.Image{B64JSON: pngPayload(t)})
	if err == nil || !strings.Contains(err.Error(), "create directory") {
		t.Errorf("expected create directory error, got %v", err)
	}
}

type recordingMirror struct {
	uploaded []string
	err      error
}

func (m *recordingMirror) Upload(ctx context.Context, localPath string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.uploaded = append(m.uploaded, localPath)
	return "s3://bucket/" + filepath.Base(localPath), nil
}

func TestDiskSink_Mirror(t *testing.T) {
	dir := t.TempDir()
	mirror := &recordingMirror{}
	sink := NewDiskSink(dir, "img", "png")
	sink.Mirror = mirror

	path, err := sink.Persist(context.Background(), 1, &imagegen.Image{B64JSON: pngPayload(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(mirror.uploaded, []string{path}) {
		t.Errorf("uploaded = %v, want [%s]", mirror.uploaded, path)
	}

	sink.Mirror = &recordingMirror{err: errors.New("access denied")}
	_, err = sink.Persist(context.Background(), 2, &imagegen.Image{B64JSON: pngPayload(t)})
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("expected mirror error, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != filepath.Base(path) {
		t.Errorf("unmirrored file should be removed, directory holds %v", entries)
	}
}

func TestAggregate_OrdersByIndexAndCountsFromLists(t *testing.T) {
	img := &imagegen.Image{B64JSON: "ignored"}
	outcomes := []Outcome{
		Failed(3, errors.New("timeout")),
		Succeeded(1, img),
		Succeeded(0, img),
		Failed(2, errors.New("rate limited")),
		{Index: 4},
	}

	report := Aggregate(context.Background(), outcomes, nil)

	if report.TotalRequested != 5 {
		t.Errorf("requested = %d, want 5", report.TotalRequested)
	}
	if got := indicesOfSuccessful(report); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("successful indices = %v", got)
	}
	if got := indicesOfFailed(report); !reflect.DeepEqual(got, []int{2, 3, 4}) {
		t.Errorf("failed indices = %v", got)
	}
	if report.TotalSuccessful != len(report.Successful) || report.TotalFailed != len(report.Failed) {
		t.Error("totals must match the list lengths")
	}
	if report.Failed[0].Error != "rate limited" {
		t.Errorf("first failure = %q", report.Failed[0].Error)
	}
	if got := report.Summary(); got != "2 successful, 3 failed" {
		t.Errorf("Summary() = %q", got)
	}
}

func TestAggregate_TwiceYieldsSameTotalsDifferentPaths(t *testing.T) {
	dir := t.TempDir()
	img := &imagegen.Image{B64JSON: pngPayload(t)}
	outcomes := []Outcome{Succeeded(0, img), Failed(1, errors.New("nope")), Succeeded(2, img)}

	first := Aggregate(context.Background(), outcomes, NewDiskSink(dir, "run", "png"))
	second := Aggregate(context.Background(), outcomes, NewDiskSink(dir, "run", "png"))

	if first.TotalSuccessful != second.TotalSuccessful || first.TotalFailed != second.TotalFailed {
		t.Error("totals should not depend on the run")
	}
	pattern := regexp.MustCompile(`^run_\d+_\d{8}_\d{6}_[0-9a-f]{8}\.png$`)
	for i := range first.Successful {
		if first.Successful[i].ImagePath == second.Successful[i].ImagePath {
			t.Errorf("index %d reused path %s", i, first.Successful[i].ImagePath)
		}
		if base := filepath.Base(second.Successful[i].ImagePath); !pattern.MatchString(base) {
			t.Errorf("unexpected file name %s", base)
		}
	}
}
