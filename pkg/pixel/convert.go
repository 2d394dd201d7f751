// Package pixel normalizes platform-native frame buffers into the packed
// RGB layout the wire protocol carries.
package pixel

import (
	"fmt"

	"github.com/TabCasterOrg/TabCaster/pkg/capture"
)

// ToRGB24 converts a FrameBuffer into a packed 3-byte-per-pixel RGB sequence
// of length width*height*3 in row-major order, whatever the source layout or
// row padding. Pure function: the input buffer is never modified or
// retained.
func ToRGB24(fb *capture.FrameBuffer) ([]byte, error) {
	if fb == nil {
		return nil, fmt.Errorf("pixel: nil frame buffer")
	}
	if fb.Width <= 0 || fb.Height <= 0 {
		return nil, fmt.Errorf("pixel: invalid dimensions %dx%d", fb.Width, fb.Height)
	}

	bpp := fb.Layout.BytesPerPixel()
	if fb.BitsPerPixel != bpp*8 {
		return nil, fmt.Errorf("pixel: %d bits per pixel does not match layout %s", fb.BitsPerPixel, fb.Layout)
	}
	rowBytes := fb.Width * bpp
	if fb.Stride < rowBytes {
		return nil, fmt.Errorf("pixel: stride %d shorter than row of %d bytes", fb.Stride, rowBytes)
	}
	if need := fb.Stride*(fb.Height-1) + rowBytes; len(fb.Data) < need {
		return nil, fmt.Errorf("pixel: buffer is %d bytes, want at least %d", len(fb.Data), need)
	}

	var rOff, gOff, bOff int
	switch fb.Layout {
	case capture.LayoutRGBA, capture.LayoutRGB:
		rOff, gOff, bOff = 0, 1, 2
	case capture.LayoutBGRA, capture.LayoutBGR:
		rOff, gOff, bOff = 2, 1, 0
	case capture.LayoutARGB:
		rOff, gOff, bOff = 1, 2, 3
	default:
		return nil, fmt.Errorf("pixel: unsupported layout %s", fb.Layout)
	}

	out := make([]byte, fb.Width*fb.Height*3)
	for y := 0; y < fb.Height; y++ {
		src := fb.Data[y*fb.Stride:]
		dst := out[y*fb.Width*3:]
		for x := 0; x < fb.Width; x++ {
			px := src[x*bpp:]
			dst[x*3+0] = px[rOff]
			dst[x*3+1] = px[gOff]
			dst[x*3+2] = px[bOff]
		}
	}
	return out, nil
}
