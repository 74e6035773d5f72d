// Package imagedoc is an in-process host document environment: template
// documents are raster layer stacks described by a *.mockup.yaml manifest,
// composed and resampled with the imaging library. It implements
// document.Service so the composition engine stays host-agnostic.
package imagedoc

import (
	"github.com/mockpress/mockpress/pkg/document"
)

// Service holds the environment-wide state: the unit preference and the
// optional currently active document.
type Service struct {
	units  document.Units
	active *Doc
}

// NewService returns a host environment with the unit preference set to
// pixels and no active document.
func NewService() *Service {
	return &Service{units: document.UnitsPixels}
}

// OpenTemplate loads the template manifest at path and all the layer
// rasters it references.
func (s *Service) OpenTemplate(path string) (document.Document, error) {
	return openManifest(path)
}

// SetActive registers a document as the currently open one.
func (s *Service) SetActive(d document.Document) {
	if doc, ok := d.(*Doc); ok {
		s.active = doc
	}
}

// Active returns the currently open document.
func (s *Service) Active() (document.Document, error) {
	if s.active == nil {
		return nil, errNoActive
	}
	return s.active, nil
}

// Units reports the environment-wide measurement unit preference.
func (s *Service) Units() document.Units { return s.units }

// SetUnits overrides the measurement unit preference.
func (s *Service) SetUnits(u document.Units) { s.units = u }

var _ document.Service = (*Service)(nil)
