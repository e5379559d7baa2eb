// Package filehandler serves the resource catalog: the brand templates,
// graphic elements, avatars and images that can be used as reference images.
package filehandler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Categories are the catalog subdirectories, in display order.
var Categories = []string{"templates", "elements", "avatars", "images"}

// SupportedImageExtensions are the file extensions listed by the catalog.
var SupportedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// IsSupportedImage reports whether path has a catalog image extension.
func IsSupportedImage(path string) bool {
	_, ok := SupportedImageExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Catalog lists resources under Root/{category}.
type Catalog struct {
	Root string
}

// NewCatalog creates a catalog rooted at root.
func NewCatalog(root string) *Catalog {
	return &Catalog{Root: root}
}

// ValidCategory reports whether name is one of Categories.
func ValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// List returns the sorted image paths of one category. A missing category
// directory yields an empty list; subdirectories are not descended into.
func (c *Catalog) List(category string) ([]string, error) {
	if !ValidCategory(category) {
		return nil, fmt.Errorf("unknown resource category %q", category)
	}

	dir := filepath.Join(c.Root, category)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("dir", dir).Msg("Resource category directory missing")
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	files := []string{}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if !e.Type().IsRegular() {
			// Follow symlinks to files only.
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		}
		if IsSupportedImage(e.Name()) {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files, nil
}

// All returns every category's listing.
func (c *Catalog) All() (map[string][]string, error) {
	out := make(map[string][]string, len(Categories))
	for _, cat := range Categories {
		files, err := c.List(cat)
		if err != nil {
			return nil, err
		}
		out[cat] = files
	}
	return out, nil
}

// AllImages returns the sorted union of every category.
func (c *Catalog) AllImages() ([]string, error) {
	all, err := c.All()
	if err != nil {
		return nil, err
	}
	images := []string{}
	for _, files := range all {
		images = append(images, files...)
	}
	sort.Strings(images)
	return images, nil
}

// Validate splits paths into those that exist and those that do not,
// preserving input order.
func Validate(paths []string) (valid, invalid []string) {
	valid, invalid = []string{}, []string{}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			valid = append(valid, p)
		} else {
			log.Warn().Str("path", p).Msg("Resource does not exist")
			invalid = append(invalid, p)
		}
	}
	return valid, invalid
}
