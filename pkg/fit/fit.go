package fit

// Box is an axis-aligned bounding box in document pixel coordinates.
type Box struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Width returns the box width, clamped to a minimum of 1.
func (b Box) Width() float64 {
	return clampDim(b.Right - b.Left)
}

// Height returns the box height, clamped to a minimum of 1.
func (b Box) Height() float64 {
	return clampDim(b.Bottom - b.Top)
}

// CenterX returns the horizontal center of the box.
func (b Box) CenterX() float64 { return (b.Left + b.Right) / 2 }

// CenterY returns the vertical center of the box.
func (b Box) CenterY() float64 { return (b.Top + b.Bottom) / 2 }

// clampDim keeps degenerate boxes from producing a zero divisor.
func clampDim(d float64) float64 {
	if d < 1 {
		return 1
	}
	return d
}

// Scale computes the uniform factor that fits newBox entirely inside
// original on both axes. The tighter axis wins; the other axis is left with
// residual margin. Both boxes are dimension-clamped before dividing, so the
// result is always positive and finite.
func Scale(original, newBox Box) float64 {
	sw := original.Width() / newBox.Width()
	sh := original.Height() / newBox.Height()
	if sw < sh {
		return sw
	}
	return sh
}

// CapLongEdge computes the target dimensions for a document whose longer
// edge must not exceed maxLong pixels. It never upscales: when the long edge
// already fits (or maxLong is not positive), the input dimensions come back
// unchanged and resize reports false. Rounded dimensions are clamped to a
// minimum of 1 pixel each.
func CapLongEdge(width, height, maxLong int) (w, h int, resize bool) {
	long := width
	if height > long {
		long = height
	}
	if maxLong <= 0 || long <= maxLong {
		return width, height, false
	}
	factor := float64(maxLong) / float64(long)
	w = clampPx(int(float64(width)*factor + 0.5))
	h = clampPx(int(float64(height)*factor + 0.5))
	return w, h, true
}

func clampPx(px int) int {
	if px < 1 {
		return 1
	}
	return px
}
