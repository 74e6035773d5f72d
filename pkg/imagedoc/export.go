package imagedoc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/jung-kurt/gofpdf"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/mockpress/mockpress/pkg/document"
)

// Export writes the document to path in the requested format. Quality values
// outside the encoder's range are clamped, never rejected.
func (d *Doc) Export(path string, spec document.ExportSpec) error {
	if d.closed {
		return errClosed
	}
	switch spec.Format {
	case "png", "tiff":
		return imaging.Save(d.flatten(), path)
	case "jpg", "jpeg":
		// JPEG carries no alpha channel; matte onto white.
		flat := imaging.Overlay(
			imaging.New(d.width, d.height, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}),
			d.flatten(), image.Point{}, 1.0)
		return imaging.Save(flat, path, imaging.JPEGQuality(clampQuality(spec.JPEGQuality)))
	case "layers":
		return d.exportLayers(path)
	case "pdf":
		return d.exportPDF(path)
	default:
		return fmt.Errorf("unsupported export format %q", spec.Format)
	}
}

func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}

// layersEntry mirrors one tree node inside a .layers archive manifest.
type layersEntry struct {
	Name   string        `yaml:"name"`
	Kind   string        `yaml:"kind,omitempty"`
	Bounds []float64     `yaml:"bounds,omitempty"`
	Color  string        `yaml:"color,omitempty"`
	File   string        `yaml:"file,omitempty"`
	Layers []layersEntry `yaml:"layers,omitempty"`
}

type layersManifest struct {
	Name   string `yaml:"name"`
	Canvas struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"canvas"`
	Background string        `yaml:"background,omitempty"`
	Layers     []layersEntry `yaml:"layers"`
}

// exportLayers writes the structure-preserving format: a zip archive with a
// manifest.yaml plus one PNG per raster leaf. The archive is written
// atomically so a failed item never leaves a truncated file behind.
func (d *Doc) exportLayers(path string) error {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	var m layersManifest
	m.Name = d.name
	m.Canvas.Width = d.width
	m.Canvas.Height = d.height
	if d.bg != nil {
		m.Background = hexColor(*d.bg)
	}

	for _, c := range d.root.children {
		entry, err := layersNode(zw, c)
		if err != nil {
			return err
		}
		m.Layers = append(m.Layers, entry)
	}

	manifestData, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("failed to marshal layers manifest: %w", err)
	}
	mf, err := zw.Create("manifest.yaml")
	if err != nil {
		return fmt.Errorf("failed to create manifest entry: %w", err)
	}
	if _, err := mf.Write(manifestData); err != nil {
		return fmt.Errorf("failed to write manifest entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize layers archive: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("failed to write layers archive %s: %w", path, err)
	}
	return nil
}

func layersNode(zw *zip.Writer, n *node) (layersEntry, error) {
	entry := layersEntry{Name: n.name}
	if n.kind == document.KindGroup {
		for _, c := range n.children {
			child, err := layersNode(zw, c)
			if err != nil {
				return layersEntry{}, err
			}
			entry.Layers = append(entry.Layers, child)
		}
		return entry, nil
	}

	entry.Kind = n.leafKind
	entry.Bounds = []float64{n.bounds.Left, n.bounds.Top, n.bounds.Right, n.bounds.Bottom}
	if n.corrupt != nil {
		return entry, nil
	}
	switch n.leafKind {
	case leafImage:
		if n.img == nil {
			return entry, nil
		}
		entry.File = "layers/" + n.id + ".png"
		w, err := zw.Create(entry.File)
		if err != nil {
			return layersEntry{}, fmt.Errorf("failed to create layer entry %s: %w", entry.File, err)
		}
		if err := imaging.Encode(w, n.img, imaging.PNG); err != nil {
			return layersEntry{}, fmt.Errorf("failed to encode layer %q: %w", n.name, err)
		}
	case leafFill, leafText:
		entry.Color = hexColor(n.fill)
	}
	return entry, nil
}

// exportPDF renders the flattened document onto a single page sized so one
// pixel maps to one point.
func (d *Doc) exportPDF(path string) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, d.flatten(), imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode page image: %w", err)
	}

	w, h := float64(d.width), float64(d.height)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.AddPage()
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(d.name, opts, &buf)
	pdf.ImageOptions(d.name, 0, 0, w, h, false, opts, 0, "")
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to write PDF %s: %w", path, err)
	}
	return nil
}

func hexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
