package fbdev

import (
	"github.com/e7canasta/videopipe/gfx"
	"github.com/e7canasta/videopipe/pixel"
)

// formatFromBits maps fbdev pixel layout to a Format. 16 bpp panels
// differ only in channel order: a red offset of 11 is RGB565,
// everything else is treated as BGR565. 32 bpp is assumed XRGB8888.
// The second return is false when the frame buffer uses a depth this
// pipeline cannot feed, in which case callers fall back to RGB565 and
// warn.
func formatFromBits(bitsPerPixel, redOffset int) (pixel.Format, bool) {
	switch bitsPerPixel {
	case 16:
		if redOffset == 11 {
			return pixel.RGB565, true
		}
		return pixel.BGR565, true
	case 32:
		return pixel.XRGB8888, true
	default:
		return pixel.RGB565, false
	}
}

// bufferCount decides how many buffers page flipping can use, given
// how much virtual y resolution the driver exposes.
func bufferCount(yres, yresVirtual int) int {
	switch {
	case yres <= 0:
		return 1
	case yresVirtual >= 3*yres:
		return 3
	case yresVirtual >= 2*yres:
		return 2
	default:
		return 1
	}
}

// surface describes one mapped destination buffer for the blitters.
type surface struct {
	buf    []byte
	width  int
	height int
	pitch  int
	bpp    int
}

// blitDirect copies an unscaled frame row by row into dst at r's
// position. Rows and columns falling outside dst are clipped; the
// source frame is never read out of bounds.
func blitDirect(dst surface, r gfx.Rect, src []byte, srcW, srcH, srcPitch int) {
	rowBytes := srcW * dst.bpp
	for y := 0; y < srcH; y++ {
		dy := r.Y + y
		if dy < 0 || dy >= dst.height {
			continue
		}
		sx, dx := 0, r.X
		n := rowBytes
		if dx < 0 {
			sx = -dx * dst.bpp
			n -= sx
			dx = 0
		}
		if max := (dst.width - dx) * dst.bpp; n > max {
			n = max
		}
		if n <= 0 {
			continue
		}
		srcRow := src[y*srcPitch:]
		copy(dst.buf[dy*dst.pitch+dx*dst.bpp:], srcRow[sx:sx+n])
	}
}

// blitNearest scales a frame into the r region of dst with
// nearest-neighbor sampling. Out-of-bounds destination pixels are
// clipped.
func blitNearest(dst surface, r gfx.Rect, src []byte, srcW, srcH, srcPitch int) {
	if r.W <= 0 || r.H <= 0 {
		return
	}
	for dy := 0; dy < r.H; dy++ {
		oy := r.Y + dy
		if oy < 0 || oy >= dst.height {
			continue
		}
		sy := dy * srcH / r.H
		srcRow := src[sy*srcPitch:]
		dstRow := dst.buf[oy*dst.pitch:]
		for dx := 0; dx < r.W; dx++ {
			ox := r.X + dx
			if ox < 0 || ox >= dst.width {
				continue
			}
			sx := dx * srcW / r.W
			copy(dstRow[ox*dst.bpp:(ox+1)*dst.bpp], srcRow[sx*dst.bpp:(sx+1)*dst.bpp])
		}
	}
}
