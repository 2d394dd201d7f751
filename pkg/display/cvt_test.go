package display

import (
	"math"
	"testing"
)

func TestCVTModeline1080p60(t *testing.T) {
	m, err := CVTModeline(1920, 1080, 60, false)
	if err != nil {
		t.Fatalf("cvt: %v", err)
	}

	// Reference timing from the VESA CVT 1.1 spreadsheet.
	if m.ClockMHz != 173.00 {
		t.Fatalf("clock %.2f MHz, want 173.00", m.ClockMHz)
	}
	checkTiming(t, m,
		1920, 2048, 2248, 2576,
		1080, 1083, 1088, 1120)
	if m.HSyncPositive || !m.VSyncPositive {
		t.Fatalf("polarity +h=%v +v=%v, want -hsync +vsync", m.HSyncPositive, m.VSyncPositive)
	}
}

func TestCVTModeline1080p60ReducedBlanking(t *testing.T) {
	m, err := CVTModeline(1920, 1080, 60, true)
	if err != nil {
		t.Fatalf("cvt: %v", err)
	}

	if m.ClockMHz != 138.50 {
		t.Fatalf("clock %.2f MHz, want 138.50", m.ClockMHz)
	}
	checkTiming(t, m,
		1920, 1968, 2000, 2080,
		1080, 1083, 1088, 1111)
	if !m.HSyncPositive || m.VSyncPositive {
		t.Fatalf("polarity +h=%v +v=%v, want +hsync -vsync", m.HSyncPositive, m.VSyncPositive)
	}
}

func TestCVTModelineCustomAspect(t *testing.T) {
	// A tablet-shaped sidecar resolution with no standard aspect ratio.
	m, err := CVTModeline(2336, 1080, 60, true)
	if err != nil {
		t.Fatalf("cvt: %v", err)
	}

	if m.HDisplay != 2336 || m.VDisplay != 1080 {
		t.Fatalf("active area %dx%d, want 2336x1080", m.HDisplay, m.VDisplay)
	}
	if m.HDisplay >= m.HSyncStart || m.HSyncStart >= m.HSyncEnd || m.HSyncEnd > m.HTotal {
		t.Fatalf("horizontal timing out of order: %d %d %d %d", m.HDisplay, m.HSyncStart, m.HSyncEnd, m.HTotal)
	}
	if m.VDisplay >= m.VSyncStart || m.VSyncStart >= m.VSyncEnd || m.VSyncEnd > m.VTotal {
		t.Fatalf("vertical timing out of order: %d %d %d %d", m.VDisplay, m.VSyncStart, m.VSyncEnd, m.VTotal)
	}

	// The achieved refresh may only undershoot slightly because the pixel
	// clock snaps down to the 0.25 MHz step.
	if got := m.RefreshHz(); got > 60.0 || math.Abs(got-60.0) > 0.5 {
		t.Fatalf("achieved refresh %.3f Hz, want just under 60", got)
	}
}

func TestCVTModelineSnapsWidthToCharacterCell(t *testing.T) {
	m, err := CVTModeline(1366, 768, 60, false)
	if err != nil {
		t.Fatalf("cvt: %v", err)
	}
	if m.HDisplay != 1360 {
		t.Fatalf("width %d, want snap down to 1360", m.HDisplay)
	}
}

func TestCVTModelineRejectsBadInput(t *testing.T) {
	if _, err := CVTModeline(0, 1080, 60, false); err == nil {
		t.Fatal("expected error for zero width")
	}
	if _, err := CVTModeline(1920, 0, 60, false); err == nil {
		t.Fatal("expected error for zero height")
	}
	if _, err := CVTModeline(1920, 1080, 0, false); err == nil {
		t.Fatal("expected error for zero refresh")
	}
	if _, err := CVTModeline(1920, 1080, 500, false); err == nil {
		t.Fatal("expected error for absurd refresh")
	}
}

func TestModelineString(t *testing.T) {
	m, err := CVTModeline(1920, 1080, 60, false)
	if err != nil {
		t.Fatalf("cvt: %v", err)
	}
	want := `Modeline "1920x1080_60.00" 173.00 1920 2048 2248 2576 1080 1083 1088 1120 -hsync +vsync`
	if got := m.String(); got != want {
		t.Fatalf("modeline string:\n got %s\nwant %s", got, want)
	}
}

func checkTiming(t *testing.T, m Modeline, hd, hss, hse, ht, vd, vss, vse, vt uint16) {
	t.Helper()
	if m.HDisplay != hd || m.HSyncStart != hss || m.HSyncEnd != hse || m.HTotal != ht {
		t.Fatalf("horizontal timing %d %d %d %d, want %d %d %d %d",
			m.HDisplay, m.HSyncStart, m.HSyncEnd, m.HTotal, hd, hss, hse, ht)
	}
	if m.VDisplay != vd || m.VSyncStart != vss || m.VSyncEnd != vse || m.VTotal != vt {
		t.Fatalf("vertical timing %d %d %d %d, want %d %d %d %d",
			m.VDisplay, m.VSyncStart, m.VSyncEnd, m.VTotal, vd, vss, vse, vt)
	}
}
