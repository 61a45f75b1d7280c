package gfx

// Rect is a destination region on the display, in pixels.
type Rect struct {
	X, Y int
	W, H int
}

// DestRect computes where a srcW x srcH frame lands on a dstW x dstH
// display under the given scaling mode. All modes center the result.
// ScaleLinear shares ScaleNearest's layout; filtering is a backend
// concern, not a layout concern.
func DestRect(mode ScalingMode, srcW, srcH, dstW, dstH int) Rect {
	switch mode {
	case ScaleFullscreen:
		return Rect{X: 0, Y: 0, W: dstW, H: dstH}

	case ScaleAspect:
		sx := float64(dstW) / float64(srcW)
		sy := float64(dstH) / float64(srcH)
		scale := sx
		if sy < sx {
			scale = sy
		}
		w := int(float64(srcW) * scale)
		h := int(float64(srcH) * scale)
		return Rect{X: (dstW - w) / 2, Y: (dstH - h) / 2, W: w, H: h}

	case ScaleInteger:
		sx := dstW / srcW
		sy := dstH / srcH
		scale := sx
		if sy < sx {
			scale = sy
		}
		// A source larger than the display still gets factor 1; the
		// blit clips to the display edges.
		if scale < 1 {
			scale = 1
		}
		w := srcW * scale
		h := srcH * scale
		return Rect{X: (dstW - w) / 2, Y: (dstH - h) / 2, W: w, H: h}

	default: // ScaleNearest, ScaleLinear
		return Rect{X: (dstW - srcW) / 2, Y: (dstH - srcH) / 2, W: srcW, H: srcH}
	}
}
