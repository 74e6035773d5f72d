// Package document defines the capability interface through which the
// composition engine talks to the host document environment, together with
// the snapshot types the placeholder finder walks. The engine never owns a
// document; it borrows handles and duplicates them per work item.
package document

import "github.com/mockpress/mockpress/pkg/fit"

// Units is the process-wide measurement unit preference of the host
// environment. The batch runner captures it before the loop and restores it
// unconditionally afterwards.
type Units string

const (
	UnitsPixels Units = "pixels"
	UnitsInches Units = "inches"
	UnitsMM     Units = "mm"
	UnitsPoints Units = "points"
)

// NodeKind distinguishes interior groups from leaf regions in a document's
// structural tree.
type NodeKind string

const (
	KindGroup  NodeKind = "group"
	KindRegion NodeKind = "region"
)

// Node is an immutable snapshot of one tree node, re-queried lazily via
// Document.Children rather than held across mutations.
type Node struct {
	ID            string
	Name          string
	Kind          NodeKind
	Substitutable bool
	Bounds        fit.Box
}

// Region identifies a placeholder region selected for substitution.
type Region struct {
	ID     string
	Name   string
	Bounds fit.Box
}

// ExportSpec is one requested output format with its format-specific
// options. Out-of-range values are clamped by the implementation, never
// rejected.
type ExportSpec struct {
	// Format is the registry identifier: png, jpg, jpeg, layers, tiff, pdf.
	Format string
	// JPEGQuality applies to lossy raster output, on the encoder's 1-100
	// scale.
	JPEGQuality int
}

// Document is a borrowed handle on one host-owned document. Mutating calls
// are only valid on working duplicates created through Duplicate; the
// original template document is never written to.
type Document interface {
	Name() string
	// Size reports the canvas dimensions in pixels.
	Size() (width, height int)

	// RootID returns the ID of the top-level group.
	RootID() string
	// Children lists the direct children of a group node. Malformed or
	// inaccessible nodes surface as an error for that node only; callers
	// are expected to skip and continue.
	Children(id string) ([]Node, error)

	// Duplicate creates an isolated working copy under the given name.
	Duplicate(name string) (Document, error)

	// ReplaceContent substitutes a region's content with the design asset
	// at path. Afterwards the region's bounds reflect the asset's native
	// size, centered on the region's previous center.
	ReplaceContent(regionID, assetPath string) error
	// RegionBounds re-queries a region's current bounding box.
	RegionBounds(regionID string) (fit.Box, error)
	// ScaleRegion scales a region's content uniformly about its center.
	ScaleRegion(regionID string, factor float64) error

	// Resize resamples the whole document to the given pixel dimensions.
	Resize(width, height int) error

	// Export writes the document to path according to spec.
	Export(path string, spec ExportSpec) error

	// Close releases the handle. Closing a duplicate discards it.
	Close() error
}

// Service is the host environment boundary: it opens template documents,
// exposes the currently active one, and owns the unit preference.
type Service interface {
	// OpenTemplate loads the template document at path.
	OpenTemplate(path string) (Document, error)
	// Active returns the currently open document, if any.
	Active() (Document, error)

	Units() Units
	SetUnits(u Units)
}
