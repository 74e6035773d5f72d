package document

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Template documents are layer manifests; design assets are the raster
// formats the host environment can decode, plus layer manifests themselves
// (substituted as their flattened render). Recognition is by extension only,
// decoding problems surface later as per-item errors.
var (
	templateSuffixes = []string{".mockup.yaml", ".mockup.yml"}
	assetExts        = map[string]bool{
		".png":  true,
		".jpg":  true,
		".jpeg": true,
		".gif":  true,
		".tif":  true,
		".tiff": true,
		".bmp":  true,
	}
)

// IsTemplate reports whether path names a recognized template document.
func IsTemplate(path string) bool {
	lower := strings.ToLower(path)
	for _, s := range templateSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// IsAsset reports whether path names a recognized design asset.
func IsAsset(path string) bool {
	return assetExts[strings.ToLower(filepath.Ext(path))] || IsTemplate(path)
}

// Stem returns the base name of path with recognized suffixes stripped; it
// is the identity used in output names and log lines.
func Stem(path string) string {
	base := filepath.Base(path)
	lower := strings.ToLower(base)
	for _, s := range templateSuffixes {
		if strings.HasSuffix(lower, s) {
			return base[:len(base)-len(s)]
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ScanTemplates lists the recognized template documents directly inside dir,
// sorted by name.
func ScanTemplates(dir string) ([]string, error) {
	return scanDir(dir, IsTemplate)
}

// ScanAssets lists the recognized design assets directly inside dir, sorted
// by name.
func ScanAssets(dir string) ([]string, error) {
	return scanDir(dir, IsAsset)
}

func scanDir(dir string, accept func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if accept(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
