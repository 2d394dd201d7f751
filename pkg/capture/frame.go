package capture

import "fmt"

// PixelLayout names the channel order of a FrameBuffer's pixel data as it
// sits in memory, independent of the host's byte order.
type PixelLayout uint8

const (
	// LayoutRGBA is 32bpp with R in the lowest-addressed byte (image.RGBA).
	LayoutRGBA PixelLayout = iota
	// LayoutBGRA is 32bpp little-endian X11 ZPixmap.
	LayoutBGRA
	// LayoutARGB is 32bpp big-endian X11 ZPixmap.
	LayoutARGB
	// LayoutRGB is packed 24bpp.
	LayoutRGB
	// LayoutBGR is packed 24bpp with channels reversed.
	LayoutBGR
)

func (l PixelLayout) BytesPerPixel() int {
	switch l {
	case LayoutRGB, LayoutBGR:
		return 3
	default:
		return 4
	}
}

func (l PixelLayout) String() string {
	switch l {
	case LayoutRGBA:
		return "RGBA"
	case LayoutBGRA:
		return "BGRA"
	case LayoutARGB:
		return "ARGB"
	case LayoutRGB:
		return "RGB"
	case LayoutBGR:
		return "BGR"
	default:
		return "unknown"
	}
}

// Region is the screen rectangle a capture session is bound to. It is
// immutable once the session exists.
type Region struct {
	X      int32
	Y      int32
	Width  uint32
	Height uint32
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// FrameBuffer is one raw pixel snapshot. Rows are Stride bytes apart, which
// may exceed Width*BitsPerPixel/8 when the source pads its rows.
type FrameBuffer struct {
	Data         []byte
	Width        int
	Height       int
	BitsPerPixel int
	Stride       int
	Layout       PixelLayout
}
