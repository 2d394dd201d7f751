package capture

import (
	"fmt"

	"github.com/kbinani/screenshot"
)

// ScreenGrabber acquires snapshots from the platform display server. The
// returned buffers are image.RGBA backed: 32bpp, R first in memory.
type ScreenGrabber struct{}

func NewScreenGrabber() *ScreenGrabber {
	return &ScreenGrabber{}
}

func (g *ScreenGrabber) Grab(region Region) (*FrameBuffer, error) {
	img, err := screenshot.Capture(int(region.X), int(region.Y), int(region.Width), int(region.Height))
	if err != nil {
		return nil, fmt.Errorf("screenshot %s: %w", region, err)
	}

	bounds := img.Bounds()
	return &FrameBuffer{
		Data:         img.Pix,
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		BitsPerPixel: 32,
		Stride:       img.Stride,
		Layout:       LayoutRGBA,
	}, nil
}
