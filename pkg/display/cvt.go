package display

import (
	"fmt"
	"math"
)

// VESA Coordinated Video Timings constants (CVT 1.1, no margins, no
// interlace).
const (
	cvtClockStepMHz  = 0.25
	cvtHGranularity  = 8
	cvtMinVSyncBPUs  = 550.0
	cvtMinVPorch     = 3
	cvtMinVBPorch    = 6
	cvtHSyncPercent  = 8.0
	cvtCPrime        = 30.0 // ((C - J) * K / 256) + J with C=40, J=20, K=128
	cvtMPrime        = 300.0 // K / 256 * M with M=600
	cvtRBMinVBlankUs = 460.0
	cvtRBHSync       = 32
	cvtRBHBlank      = 160
	cvtRBVFPorch     = 3
)

// Modeline is a fully computed video timing, ready to be registered with
// the display server.
type Modeline struct {
	Name     string
	ClockMHz float64

	HDisplay   uint16
	HSyncStart uint16
	HSyncEnd   uint16
	HTotal     uint16

	VDisplay   uint16
	VSyncStart uint16
	VSyncEnd   uint16
	VTotal     uint16

	HSyncPositive bool
	VSyncPositive bool
}

// DotClock is the pixel clock in Hz.
func (m Modeline) DotClock() uint32 {
	return uint32(math.Round(m.ClockMHz * 1e6))
}

// RefreshHz is the vertical refresh rate the timing actually achieves.
func (m Modeline) RefreshHz() float64 {
	if m.HTotal == 0 || m.VTotal == 0 {
		return 0
	}
	return m.ClockMHz * 1e6 / (float64(m.HTotal) * float64(m.VTotal))
}

func (m Modeline) String() string {
	hsync, vsync := "-hsync", "-vsync"
	if m.HSyncPositive {
		hsync = "+hsync"
	}
	if m.VSyncPositive {
		vsync = "+vsync"
	}
	return fmt.Sprintf("Modeline %q %.2f %d %d %d %d %d %d %d %d %s %s",
		m.Name, m.ClockMHz,
		m.HDisplay, m.HSyncStart, m.HSyncEnd, m.HTotal,
		m.VDisplay, m.VSyncStart, m.VSyncEnd, m.VTotal,
		hsync, vsync)
}

// CVTModeline computes a VESA CVT timing for the requested resolution and
// refresh rate. Reduced blanking trades sync margin for a lower pixel clock
// and only makes sense on digital links.
func CVTModeline(width, height uint32, refresh float64, reducedBlanking bool) (Modeline, error) {
	if width < 1 || width > 32767 || height < 1 || height > 32767 {
		return Modeline{}, fmt.Errorf("invalid resolution %dx%d", width, height)
	}
	if refresh <= 0 || refresh > 240 {
		return Modeline{}, fmt.Errorf("invalid refresh rate %.2f", refresh)
	}

	// Horizontal pixels snap down to the character cell.
	hDisplay := width - width%cvtHGranularity
	vDisplay := height

	vSync := vSyncWidth(hDisplay, vDisplay)

	m := Modeline{
		Name:     fmt.Sprintf("%dx%d_%.2f", width, height, refresh),
		HDisplay: uint16(hDisplay),
		VDisplay: uint16(vDisplay),
	}

	if reducedBlanking {
		hPeriod := (1e6/refresh - cvtRBMinVBlankUs) / float64(vDisplay)
		if hPeriod <= 0 {
			return Modeline{}, fmt.Errorf("refresh %.2f too high for %dx%d with reduced blanking", refresh, width, height)
		}

		vbiLines := uint32(math.Floor(cvtRBMinVBlankUs/hPeriod)) + 1
		if floor := uint32(cvtRBVFPorch + vSync + cvtMinVBPorch); vbiLines < floor {
			vbiLines = floor
		}

		vTotal := vDisplay + vbiLines
		hTotal := hDisplay + cvtRBHBlank

		clock := float64(vTotal) * float64(hTotal) * refresh / 1e6
		clock = math.Floor(clock/cvtClockStepMHz) * cvtClockStepMHz

		m.ClockMHz = clock
		m.HTotal = uint16(hTotal)
		m.HSyncEnd = uint16(hTotal - cvtRBHBlank/2)
		m.HSyncStart = m.HSyncEnd - cvtRBHSync
		m.VTotal = uint16(vTotal)
		m.VSyncStart = uint16(vDisplay + cvtRBVFPorch)
		m.VSyncEnd = m.VSyncStart + uint16(vSync)
		m.HSyncPositive = true
		m.VSyncPositive = false
		return m, nil
	}

	hPeriod := (1e6/refresh - cvtMinVSyncBPUs) / float64(vDisplay+cvtMinVPorch)
	if hPeriod <= 0 {
		return Modeline{}, fmt.Errorf("refresh %.2f too high for %dx%d", refresh, width, height)
	}

	vSyncBP := uint32(math.Floor(cvtMinVSyncBPUs/hPeriod)) + 1
	if floor := vSync + cvtMinVBPorch; vSyncBP < floor {
		vSyncBP = floor
	}
	vTotal := vDisplay + vSyncBP + cvtMinVPorch

	dutyCycle := cvtCPrime - cvtMPrime*hPeriod/1000.0
	if dutyCycle < 20 {
		dutyCycle = 20
	}
	hBlank := uint32(math.Floor(float64(hDisplay)*dutyCycle/(100.0-dutyCycle)/(2*cvtHGranularity))) * (2 * cvtHGranularity)
	hTotal := hDisplay + hBlank

	clock := float64(hTotal) / hPeriod
	clock = math.Floor(clock/cvtClockStepMHz) * cvtClockStepMHz

	hSync := uint32(math.Floor(cvtHSyncPercent/100.0*float64(hTotal)/cvtHGranularity)) * cvtHGranularity

	m.ClockMHz = clock
	m.HTotal = uint16(hTotal)
	m.HSyncEnd = uint16(hTotal - hBlank/2)
	m.HSyncStart = m.HSyncEnd - uint16(hSync)
	m.VTotal = uint16(vTotal)
	m.VSyncStart = uint16(vDisplay + cvtMinVPorch)
	m.VSyncEnd = m.VSyncStart + uint16(vSync)
	m.HSyncPositive = false
	m.VSyncPositive = true
	return m, nil
}

// vSyncWidth picks the CVT sync width for the display's aspect ratio.
func vSyncWidth(h, v uint32) uint32 {
	switch {
	case v%3 == 0 && v*4/3 == h:
		return 4
	case v%9 == 0 && v*16/9 == h:
		return 5
	case v%10 == 0 && v*16/10 == h:
		return 6
	case v%4 == 0 && v*5/4 == h:
		return 7
	case v%9 == 0 && v*15/9 == h:
		return 7
	default:
		// Custom aspect ratio.
		return 10
	}
}
