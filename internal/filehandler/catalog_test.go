package filehandler

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func setupCatalog(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"templates", "avatars", "avatars/nested"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{
		"templates/b.PNG", "templates/a.jpg", "templates/notes.txt",
		"avatars/mascot.webp", "avatars/logo.svg", "avatars/nested/deep.png",
	} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestCatalogList(t *testing.T) {
	root := setupCatalog(t)
	c := NewCatalog(root)

	got, err := c.List("templates")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{filepath.Join(root, "templates", "a.jpg"), filepath.Join(root, "templates", "b.PNG")}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("templates = %v, want %v", got, want)
	}

	avatars, _ := c.List("avatars")
	if len(avatars) != 2 {
		t.Errorf("avatars should skip subdirectories, got %v", avatars)
	}

	elements, err := c.List("elements")
	if err != nil || elements == nil || len(elements) != 0 {
		t.Errorf("missing category should be an empty list, got %v, %v", elements, err)
	}

	if _, err := c.List("videos"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestCatalogAll(t *testing.T) {
	root := setupCatalog(t)
	c := NewCatalog(root)

	all, err := c.All()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 categories, got %d", len(all))
	}

	images, err := c.AllImages()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(images) != 4 {
		t.Fatalf("expected 4 images, got %v", images)
	}
	for i := 1; i < len(images); i++ {
		if images[i-1] > images[i] {
			t.Errorf("images not sorted: %v", images)
		}
	}
}

func TestValidate(t *testing.T) {
	root := setupCatalog(t)
	existing := filepath.Join(root, "templates", "a.jpg")
	missing := filepath.Join(root, "templates", "zzz.png")

	valid, invalid := Validate([]string{missing, existing})
	if len(valid) != 1 || valid[0] != existing {
		t.Errorf("valid = %v", valid)
	}
	if len(invalid) != 1 || invalid[0] != missing {
		t.Errorf("invalid = %v", invalid)
	}

	valid, invalid = Validate(nil)
	if valid == nil || invalid == nil {
		t.Error("empty input should give empty, non-nil lists")
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "banner.png")
	writePNG(t, pngPath, 40, 20)

	info, err := Inspect(pngPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Format != "png" || info.Width != 40 || info.Height != 20 || info.MIMEType != "image/png" {
		t.Errorf("unexpected info %+v", info)
	}

	svgPath := filepath.Join(dir, "logo.svg")
	if err := os.WriteFile(svgPath, []byte("<svg/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	info, err = Inspect(svgPath)
	if err != nil || info.Format != "svg" || info.Bytes != 6 {
		t.Errorf("svg info = %+v, %v", info, err)
	}

	broken := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(broken, []byte("not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Inspect(broken); err == nil {
		t.Error("expected error for broken image")
	}
	if _, err := Inspect(filepath.Join(dir, "clip.mp4")); err == nil {
		t.Error("expected error for unsupported extension")
	}

	if got := InspectAll([]string{pngPath, broken, svgPath}); len(got) != 2 {
		t.Errorf("InspectAll should skip unreadable files, got %d", len(got))
	}
}
