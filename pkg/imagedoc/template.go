package imagedoc

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mockpress/mockpress/pkg/document"
	"github.com/mockpress/mockpress/pkg/fit"
)

var (
	errNoActive   = errors.New("no document is open")
	errClosed     = errors.New("document is closed")
	errNotRegion  = errors.New("node is not a substitutable region")
	errNotGroup   = errors.New("node is not a group")
	errUnknownID  = errors.New("unknown node id")
	errCorruptVal = errors.New("malformed layer entry")
)

const rootID = "root"

// Leaf kinds. Only image leaves are substitution targets; fill and text
// leaves render as solid blocks and are never replaced.
const (
	leafImage = "image"
	leafFill  = "fill"
	leafText  = "text"
)

// manifest is the on-disk template document format.
type manifest struct {
	Name   string `yaml:"name"`
	Canvas struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"canvas"`
	Background string         `yaml:"background"`
	Layers     []manifestNode `yaml:"layers"`
}

// manifestNode is one tree entry; the presence of nested layers makes it a
// group, otherwise it is a leaf. Layers are listed bottom to top.
type manifestNode struct {
	Name   string         `yaml:"name"`
	Kind   string         `yaml:"kind"`
	Source string         `yaml:"source"`
	Color  string         `yaml:"color"`
	Value  string         `yaml:"value"`
	Bounds []float64      `yaml:"bounds"`
	Layers []manifestNode `yaml:"layers"`
}

type node struct {
	id       string
	name     string
	kind     document.NodeKind
	leafKind string
	bounds   fit.Box
	img      image.Image
	fill     color.NRGBA
	corrupt  error
	children []*node
}

// Doc is one loaded document. Template handles stay read-only; the engine
// mutates working duplicates only.
type Doc struct {
	name    string
	width   int
	height  int
	bg      *color.NRGBA
	root    *node
	index   map[string]*node
	closed  bool
	nextLID int
}

var _ document.Document = (*Doc)(nil)

func openManifest(path string) (*Doc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", path, err)
	}
	if m.Canvas.Width < 1 || m.Canvas.Height < 1 {
		return nil, fmt.Errorf("template %s: canvas dimensions must be positive", path)
	}

	d := &Doc{
		name:   m.Name,
		width:  m.Canvas.Width,
		height: m.Canvas.Height,
		index:  map[string]*node{},
	}
	if d.name == "" {
		d.name = document.Stem(path)
	}
	if m.Background != "" {
		c, err := parseHexColor(m.Background)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", path, err)
		}
		d.bg = &c
	}

	d.root = &node{id: rootID, name: d.name, kind: document.KindGroup}
	d.index[rootID] = d.root
	baseDir := filepath.Dir(path)
	for _, mn := range m.Layers {
		d.root.children = append(d.root.children, d.buildNode(mn, baseDir))
	}
	return d, nil
}

func (d *Doc) buildNode(mn manifestNode, baseDir string) *node {
	n := &node{id: d.nextID(), name: mn.Name}
	d.index[n.id] = n

	if len(mn.Layers) > 0 {
		n.kind = document.KindGroup
		for _, child := range mn.Layers {
			n.children = append(n.children, d.buildNode(child, baseDir))
		}
		return n
	}

	n.kind = document.KindRegion
	n.leafKind = mn.Kind
	if n.leafKind == "" {
		n.leafKind = leafImage
	}
	if len(mn.Bounds) != 4 {
		n.corrupt = fmt.Errorf("%w: layer %q needs bounds [left, top, right, bottom]", errCorruptVal, mn.Name)
		return n
	}
	n.bounds = fit.Box{Left: mn.Bounds[0], Top: mn.Bounds[1], Right: mn.Bounds[2], Bottom: mn.Bounds[3]}

	switch n.leafKind {
	case leafImage:
		if mn.Source != "" {
			img, err := imaging.Open(filepath.Join(baseDir, mn.Source))
			if err != nil {
				// A broken layer source degrades the layer, not the whole
				// template; the finder and renderer skip it.
				n.corrupt = fmt.Errorf("%w: layer %q source %s: %v", errCorruptVal, mn.Name, mn.Source, err)
				log.Warn().Str("layer", mn.Name).Str("source", mn.Source).Msg("layer source unreadable")
				return n
			}
			n.img = img
		}
	case leafFill, leafText:
		n.fill = color.NRGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
		if mn.Color != "" {
			c, err := parseHexColor(mn.Color)
			if err != nil {
				n.corrupt = fmt.Errorf("%w: layer %q: %v", errCorruptVal, mn.Name, err)
				return n
			}
			n.fill = c
		}
	default:
		n.corrupt = fmt.Errorf("%w: layer %q has unknown kind %q", errCorruptVal, mn.Name, mn.Kind)
	}
	return n
}

func (d *Doc) nextID() string {
	d.nextLID++
	return fmt.Sprintf("L%d", d.nextLID)
}

// Name returns the document's stable identity.
func (d *Doc) Name() string { return d.name }

// Size reports the canvas dimensions in pixels.
func (d *Doc) Size() (int, int) { return d.width, d.height }

// RootID returns the id of the top-level group.
func (d *Doc) RootID() string { return rootID }

// Children lists the direct children of a group as snapshots. A corrupt node
// or a non-group id reports an error for that node only.
func (d *Doc) Children(id string) ([]document.Node, error) {
	if d.closed {
		return nil, errClosed
	}
	n, ok := d.index[id]
	if !ok {
		return nil, errUnknownID
	}
	if n.corrupt != nil {
		return nil, n.corrupt
	}
	if n.kind != document.KindGroup {
		return nil, errNotGroup
	}
	out := make([]document.Node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, document.Node{
			ID:            c.id,
			Name:          c.name,
			Kind:          c.kind,
			Substitutable: c.kind == document.KindRegion && c.leafKind == leafImage && c.corrupt == nil,
			Bounds:        c.bounds,
		})
	}
	return out, nil
}

// Duplicate deep-copies the tree under a new name. Layer rasters are shared
// until a mutation replaces them, which keeps duplication cheap and the
// original untouched.
func (d *Doc) Duplicate(name string) (document.Document, error) {
	if d.closed {
		return nil, errClosed
	}
	dup := &Doc{
		name:    name,
		width:   d.width,
		height:  d.height,
		bg:      d.bg,
		index:   map[string]*node{},
		nextLID: d.nextLID,
	}
	dup.root = copyTree(d.root, dup.index)
	return dup, nil
}

func copyTree(n *node, index map[string]*node) *node {
	c := *n
	c.children = make([]*node, 0, len(n.children))
	index[c.id] = &c
	for _, child := range n.children {
		c.children = append(c.children, copyTree(child, index))
	}
	return &c
}

// ReplaceContent loads the design asset and substitutes it into the region.
// The region's bounds become the asset's native size, centered where the
// placeholder's center was.
func (d *Doc) ReplaceContent(regionID, assetPath string) error {
	n, err := d.region(regionID)
	if err != nil {
		return err
	}
	img, err := loadAsset(assetPath)
	if err != nil {
		return err
	}
	cx, cy := n.bounds.CenterX(), n.bounds.CenterY()
	w := float64(img.Bounds().Dx())
	h := float64(img.Bounds().Dy())
	n.img = img
	n.bounds = fit.Box{Left: cx - w/2, Top: cy - h/2, Right: cx + w/2, Bottom: cy + h/2}
	return nil
}

// RegionBounds re-queries a region's current bounding box.
func (d *Doc) RegionBounds(regionID string) (fit.Box, error) {
	n, err := d.region(regionID)
	if err != nil {
		return fit.Box{}, err
	}
	return n.bounds, nil
}

// ScaleRegion resamples the region's raster by a uniform factor, keeping the
// region centered on its current center.
func (d *Doc) ScaleRegion(regionID string, factor float64) error {
	n, err := d.region(regionID)
	if err != nil {
		return err
	}
	if factor <= 0 {
		return fmt.Errorf("scale factor must be positive, got %v", factor)
	}
	w := pxAtLeast1(n.bounds.Width() * factor)
	h := pxAtLeast1(n.bounds.Height() * factor)
	if n.img != nil {
		n.img = imaging.Resize(n.img, w, h, imaging.Lanczos)
	}
	cx, cy := n.bounds.CenterX(), n.bounds.CenterY()
	fw, fh := float64(w), float64(h)
	n.bounds = fit.Box{Left: cx - fw/2, Top: cy - fh/2, Right: cx + fw/2, Bottom: cy + fh/2}
	return nil
}

// Resize resamples the whole document to the given dimensions, scaling every
// layer's bounds and raster along with the canvas.
func (d *Doc) Resize(width, height int) error {
	if d.closed {
		return errClosed
	}
	if width < 1 || height < 1 {
		return fmt.Errorf("resize dimensions must be positive, got %dx%d", width, height)
	}
	sx := float64(width) / float64(d.width)
	sy := float64(height) / float64(d.height)
	resizeTree(d.root, sx, sy)
	d.width = width
	d.height = height
	return nil
}

func resizeTree(n *node, sx, sy float64) {
	if n.kind == document.KindRegion && n.corrupt == nil {
		n.bounds = fit.Box{
			Left:   n.bounds.Left * sx,
			Top:    n.bounds.Top * sy,
			Right:  n.bounds.Right * sx,
			Bottom: n.bounds.Bottom * sy,
		}
		if n.img != nil {
			w := pxAtLeast1(n.bounds.Width())
			h := pxAtLeast1(n.bounds.Height())
			n.img = imaging.Resize(n.img, w, h, imaging.Lanczos)
		}
	}
	for _, c := range n.children {
		resizeTree(c, sx, sy)
	}
}

// Close releases the handle; further operations fail.
func (d *Doc) Close() error {
	d.closed = true
	d.index = nil
	d.root = nil
	return nil
}

func (d *Doc) region(id string) (*node, error) {
	if d.closed {
		return nil, errClosed
	}
	n, ok := d.index[id]
	if !ok {
		return nil, errUnknownID
	}
	if n.kind != document.KindRegion || n.leafKind != leafImage || n.corrupt != nil {
		return nil, errNotRegion
	}
	return n, nil
}

// loadAsset decodes a design asset. A layer manifest substitutes as its
// flattened render at canvas size; anything else decodes as a raster.
func loadAsset(path string) (image.Image, error) {
	if document.IsTemplate(path) {
		sub, err := openManifest(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load design asset %s: %w", path, err)
		}
		flat := sub.flatten()
		_ = sub.Close()
		return flat, nil
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load design asset %s: %w", path, err)
	}
	return img, nil
}

func pxAtLeast1(v float64) int {
	px := int(v + 0.5)
	if px < 1 {
		return 1
	}
	return px
}

func parseHexColor(s string) (color.NRGBA, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q (want #rrggbb)", s)
	}
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}
