package capture

import (
	"errors"
	"testing"
	"time"
)

type fakeGrabber struct {
	grabs int
	fail  bool
}

func (g *fakeGrabber) Grab(region Region) (*FrameBuffer, error) {
	if g.fail {
		return nil, errors.New("snapshot unavailable")
	}
	g.grabs++
	return &FrameBuffer{
		Data:         make([]byte, int(region.Width)*int(region.Height)*4),
		Width:        int(region.Width),
		Height:       int(region.Height),
		BitsPerPixel: 32,
		Stride:       int(region.Width) * 4,
		Layout:       LayoutRGBA,
	}, nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedSession(t *testing.T, fps int) (*Session, *fakeGrabber, *fakeClock) {
	t.Helper()
	g := &fakeGrabber{}
	s, err := NewSession(g, Region{Width: 1920, Height: 1080}, fps)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	s.now = clock.now
	return s, g, clock
}

func TestNewSessionRejectsEmptyRegion(t *testing.T) {
	_, err := NewSession(&fakeGrabber{}, Region{Width: 0, Height: 1080}, 30)
	if !errors.Is(err, ErrInvalidRegion) {
		t.Fatalf("expected ErrInvalidRegion, got %v", err)
	}
	_, err = NewSession(&fakeGrabber{}, Region{Width: 1920, Height: 0}, 30)
	if !errors.Is(err, ErrInvalidRegion) {
		t.Fatalf("expected ErrInvalidRegion, got %v", err)
	}
}

func TestNewSessionFpsBounds(t *testing.T) {
	s, _, _ := newClockedSession(t, 0)
	if s.TargetFps() != DefaultFps {
		t.Fatalf("fps %d, want default %d", s.TargetFps(), DefaultFps)
	}

	s, _, _ = newClockedSession(t, 10_000)
	if s.TargetFps() != MaxFps {
		t.Fatalf("fps %d, want clamp to %d", s.TargetFps(), MaxFps)
	}

	s, _, _ = newClockedSession(t, 30)
	if s.FrameInterval() != 33333*time.Microsecond {
		t.Fatalf("interval %v, want 33.333ms", s.FrameInterval())
	}
}

func TestCaptureBeforeStart(t *testing.T) {
	s, _, _ := newClockedSession(t, 30)
	if _, err := s.Capture(); !errors.Is(err, ErrNotCapturing) {
		t.Fatalf("expected ErrNotCapturing, got %v", err)
	}
}

func TestCaptureEnforcesRate(t *testing.T) {
	s, g, clock := newClockedSession(t, 30)
	s.Start()

	// 10ms then another 10ms: both polls land inside the 33.333ms window.
	clock.advance(10 * time.Millisecond)
	status, err := s.Capture()
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if status != StatusNotYet {
		t.Fatalf("status %v at 10ms, want StatusNotYet", status)
	}

	clock.advance(10 * time.Millisecond)
	status, err = s.Capture()
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if status != StatusNotYet {
		t.Fatalf("status %v at 20ms, want StatusNotYet", status)
	}
	if g.grabs != 0 {
		t.Fatalf("grabber invoked %d times inside the rate window", g.grabs)
	}

	// 40ms past the baseline clears the interval.
	clock.advance(20 * time.Millisecond)
	status, err = s.Capture()
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if status != StatusNewFrame {
		t.Fatalf("status %v at 40ms, want StatusNewFrame", status)
	}
	if g.grabs != 1 {
		t.Fatalf("grabber invoked %d times, want 1", g.grabs)
	}
	if !s.HasNewFrame() {
		t.Fatal("new frame not flagged")
	}
	if s.CurrentFrame() == nil {
		t.Fatal("no current frame after successful capture")
	}
}

func TestMarkConsumedKeepsBuffer(t *testing.T) {
	s, _, clock := newClockedSession(t, 30)
	s.Start()
	clock.advance(40 * time.Millisecond)
	if _, err := s.Capture(); err != nil {
		t.Fatalf("capture: %v", err)
	}

	frame := s.CurrentFrame()
	s.MarkConsumed()
	if s.HasNewFrame() {
		t.Fatal("frame still flagged after consumption")
	}
	if s.CurrentFrame() != frame {
		t.Fatal("buffer replaced by MarkConsumed")
	}
}

func TestAcquisitionFailureIsTransient(t *testing.T) {
	s, g, clock := newClockedSession(t, 30)
	s.Start()
	clock.advance(40 * time.Millisecond)

	g.fail = true
	_, err := s.Capture()
	if !errors.Is(err, ErrAcquisitionFailed) {
		t.Fatalf("expected ErrAcquisitionFailed, got %v", err)
	}

	// The baseline must not advance on failure, so the retry on the next
	// poll is immediate once the grabber recovers.
	g.fail = false
	status, err := s.Capture()
	if err != nil {
		t.Fatalf("capture after recovery: %v", err)
	}
	if status != StatusNewFrame {
		t.Fatalf("status %v after recovery, want StatusNewFrame", status)
	}
}

func TestStartResetsBaseline(t *testing.T) {
	s, _, clock := newClockedSession(t, 30)
	s.Start()
	clock.advance(40 * time.Millisecond)

	// Restarting moves the baseline to now, so the interval applies afresh.
	s.Start()
	status, err := s.Capture()
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if status != StatusNotYet {
		t.Fatalf("status %v right after restart, want StatusNotYet", status)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s, _, _ := newClockedSession(t, 30)
	s.Start()
	s.Stop()
	s.Stop()
	if _, err := s.Capture(); !errors.Is(err, ErrNotCapturing) {
		t.Fatalf("expected ErrNotCapturing after stop, got %v", err)
	}
}
