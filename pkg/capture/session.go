package capture

import (
	"errors"
	"fmt"
	"time"

	"github.com/TabCasterOrg/TabCaster/internal"
)

var (
	// ErrInvalidRegion is fatal to session creation: a zero-sized capture
	// target can never produce a frame.
	ErrInvalidRegion = errors.New("capture: region has zero width or height")

	// ErrNotCapturing is a sequencing error: Capture was called before
	// Start or after Stop.
	ErrNotCapturing = errors.New("capture: session is not capturing")

	// ErrAcquisitionFailed marks a transient snapshot failure. The session
	// stays alive and the next poll retries.
	ErrAcquisitionFailed = errors.New("capture: frame acquisition failed")
)

// Status is the outcome of one Capture poll.
type Status int

const (
	// StatusNotYet means the target rate has not elapsed. Not a failure;
	// this is how the session throttles CPU and network regardless of how
	// often the driver polls.
	StatusNotYet Status = iota
	// StatusNewFrame means a fresh FrameBuffer replaced the previous one.
	StatusNewFrame
)

const (
	DefaultFps = 30
	MaxFps     = 240
)

// Grabber acquires one pixel snapshot of a screen rectangle.
type Grabber interface {
	Grab(region Region) (*FrameBuffer, error)
}

// Session produces a rate-limited sequence of pixel snapshots of a fixed
// screen rectangle. It owns at most one live FrameBuffer: each successful
// capture releases the previous one, so consumers must finish with (or copy)
// the current frame before the next Capture call.
type Session struct {
	grabber       Grabber
	region        Region
	targetFps     int
	frameInterval time.Duration

	lastCapture time.Time
	capturing   bool
	frame       *FrameBuffer
	frameReady  bool

	now func() time.Time
}

// NewSession validates the region and derives the capture interval. A
// non-positive fps falls back to DefaultFps; values beyond MaxFps are
// clamped.
func NewSession(grabber Grabber, region Region, fps int) (*Session, error) {
	if grabber == nil {
		return nil, errors.New("capture: nil grabber")
	}
	if region.Width == 0 || region.Height == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRegion, region)
	}
	if fps <= 0 {
		fps = DefaultFps
	}
	if fps > MaxFps {
		fps = MaxFps
	}

	return &Session{
		grabber:       grabber,
		region:        region,
		targetFps:     fps,
		frameInterval: time.Duration(1_000_000/fps) * time.Microsecond,
		now:           time.Now,
	}, nil
}

func (s *Session) Region() Region { return s.region }

func (s *Session) TargetFps() int { return s.targetFps }

// FrameInterval is the minimum spacing between two successful captures.
func (s *Session) FrameInterval() time.Duration { return s.frameInterval }

// Start transitions the session to capturing and records the rate-limit
// baseline. Calling it while already capturing just resets the baseline.
func (s *Session) Start() {
	s.capturing = true
	s.lastCapture = s.now()
	s.frameReady = false

	internal.Info("capture started", internal.Fields{
		internal.FieldRegion: s.region.String(),
		internal.FieldFps:    s.targetFps,
	})
}

// Capture polls for a new frame. Callable at any cadence; the configured
// rate is enforced internally via StatusNotYet results.
func (s *Session) Capture() (Status, error) {
	if !s.capturing {
		return StatusNotYet, ErrNotCapturing
	}

	now := s.now()
	if now.Sub(s.lastCapture) < s.frameInterval {
		return StatusNotYet, nil
	}

	frame, err := s.grabber.Grab(s.region)
	if err != nil {
		return StatusNotYet, fmt.Errorf("%w: %v", ErrAcquisitionFailed, err)
	}

	// The previous frame is dropped here; there is never more than one
	// live buffer per session.
	s.frame = frame
	s.frameReady = true
	s.lastCapture = now
	return StatusNewFrame, nil
}

// CurrentFrame returns the live FrameBuffer, or nil while no frame has been
// captured yet. It does not clear readiness.
func (s *Session) CurrentFrame() *FrameBuffer {
	return s.frame
}

// HasNewFrame reports whether a captured frame is waiting to be consumed.
func (s *Session) HasNewFrame() bool {
	return s.frameReady
}

// MarkConsumed clears the new-frame indicator. The buffer itself stays
// readable until the next successful Capture replaces it.
func (s *Session) MarkConsumed() {
	s.frameReady = false
}

// Stop transitions back to idle. Idempotent; Capture fails with
// ErrNotCapturing until Start is called again.
func (s *Session) Stop() {
	if !s.capturing {
		return
	}
	s.capturing = false
	internal.Info("capture stopped", internal.Fields{
		internal.FieldRegion: s.region.String(),
	})
}
