// Package export implements the engine-side export policy: the registry of
// known output formats, output file naming, and the overwrite/skip rule.
// Actual encoding happens behind document.Document.Export.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mockpress/mockpress/pkg/document"
)

// Format describes one known export format.
type Format struct {
	// ID is the identifier used in the configuration's formats list.
	ID string
	// Ext is the output file extension, without the dot.
	Ext string
	// Lossy marks formats whose quality option is meaningful.
	Lossy bool
}

var registry = map[string]Format{
	"png":    {ID: "png", Ext: "png"},
	"jpg":    {ID: "jpg", Ext: "jpg", Lossy: true},
	"jpeg":   {ID: "jpeg", Ext: "jpg", Lossy: true},
	"layers": {ID: "layers", Ext: "layers"},
	"tiff":   {ID: "tiff", Ext: "tif"},
	"pdf":    {ID: "pdf", Ext: "pdf"},
}

// Known resolves a requested format identifier. Unknown identifiers are a
// per-item warning for the caller, never a fatal error.
func Known(id string) (Format, bool) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(id))]
	return f, ok
}

// Spec builds the export spec for a format. Quality clamping is left to the
// encoders so out-of-range values are corrected, not rejected.
func Spec(f Format, jpgQuality int) document.ExportSpec {
	return document.ExportSpec{Format: f.ID, JPEGQuality: jpgQuality}
}

// Write exports doc into dir as <stem>.<ext> for the given format. When the
// destination exists and overwrite is disabled the export is skipped
// silently and written reports false; this is not an error and the caller
// must not count it. The parent directory is created on first use.
func Write(doc document.Document, dir, stem string, f Format, spec document.ExportSpec, overwrite bool) (written bool, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, stem+"."+f.Ext)
	if !overwrite {
		if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
			log.Debug().Str("path", path).Msg("destination exists, overwrite disabled")
			return false, nil
		}
	}
	if err := doc.Export(path, spec); err != nil {
		return false, fmt.Errorf("failed to export %s: %w", path, err)
	}
	log.Debug().Str("path", path).Str("format", f.ID).Msg("exported")
	return true, nil
}
