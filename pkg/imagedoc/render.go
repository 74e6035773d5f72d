package imagedoc

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/mockpress/mockpress/pkg/document"
)

// flatten composites the layer tree onto a single canvas. Layers draw in
// manifest order, bottom to top; corrupt layers are skipped.
func (d *Doc) flatten() *image.NRGBA {
	bg := color.NRGBA{}
	if d.bg != nil {
		bg = *d.bg
	}
	canvas := imaging.New(d.width, d.height, bg)
	return drawTree(canvas, d.root)
}

func drawTree(canvas *image.NRGBA, n *node) *image.NRGBA {
	if n.kind == document.KindRegion {
		return drawLeaf(canvas, n)
	}
	for _, c := range n.children {
		canvas = drawTree(canvas, c)
	}
	return canvas
}

func drawLeaf(canvas *image.NRGBA, n *node) *image.NRGBA {
	if n.corrupt != nil {
		return canvas
	}
	w := pxAtLeast1(n.bounds.Width())
	h := pxAtLeast1(n.bounds.Height())

	var raster image.Image
	switch n.leafKind {
	case leafImage:
		if n.img == nil {
			return canvas
		}
		raster = n.img
		if raster.Bounds().Dx() != w || raster.Bounds().Dy() != h {
			raster = imaging.Resize(raster, w, h, imaging.Lanczos)
		}
	case leafFill, leafText:
		raster = imaging.New(w, h, n.fill)
	default:
		return canvas
	}

	at := image.Pt(int(n.bounds.Left+0.5), int(n.bounds.Top+0.5))
	return imaging.Overlay(canvas, raster, at, 1.0)
}
