package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultNamespace = "tabcaster"
	subsystemStream  = "stream"
)

// StreamCollector keeps capture/send statistics for one streaming run and
// exposes them via Prometheus compatible collectors.
type StreamCollector struct {
	mu        sync.RWMutex
	namespace string
	registry  *prometheus.Registry

	startTime       time.Time
	framesCaptured  uint64
	framesSent      uint64
	packetsSent     uint64
	bytesSent       uint64
	sendErrors      uint64
	captureFailures uint64
}

// StreamSnapshot is a point-in-time view of the collected metrics.
type StreamSnapshot struct {
	Elapsed         time.Duration
	FramesCaptured  uint64
	FramesSent      uint64
	PacketsSent     uint64
	BytesSent       uint64
	SendErrors      uint64
	CaptureFailures uint64
	FramesPerSec    float64
	ThroughputBps   float64
	ThroughputMbps  float64
}

// NewStreamCollector creates a collector and wires up prometheus collectors.
func NewStreamCollector(namespace string) *StreamCollector {
	if strings.TrimSpace(namespace) == "" {
		namespace = defaultNamespace
	}
	sc := &StreamCollector{
		namespace: namespace,
		registry:  prometheus.NewRegistry(),
	}
	sc.registerMetrics()
	return sc
}

// Registry returns the prometheus registry managed by this collector.
func (c *StreamCollector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveFrameCaptured records one successful capture.
func (c *StreamCollector) ObserveFrameCaptured() {
	c.mu.Lock()
	c.ensureStartTimeLocked()
	c.framesCaptured++
	c.mu.Unlock()
}

// ObserveCaptureFailure records a transient acquisition failure.
func (c *StreamCollector) ObserveCaptureFailure() {
	c.mu.Lock()
	c.ensureStartTimeLocked()
	c.captureFailures++
	c.mu.Unlock()
}

// ObserveFrameSent records one fully transmitted frame. Byte accounting
// happens per datagram in ObservePacketSend.
func (c *StreamCollector) ObserveFrameSent() {
	c.mu.Lock()
	c.ensureStartTimeLocked()
	c.framesSent++
	c.mu.Unlock()
}

// ObservePacketSend records a transmitted datagram.
func (c *StreamCollector) ObservePacketSend(bytes int) {
	if bytes < 0 {
		return
	}
	c.mu.Lock()
	c.ensureStartTimeLocked()
	c.packetsSent++
	c.bytesSent += uint64(bytes)
	c.mu.Unlock()
}

// ObserveSendError records a transport-level transmit failure.
func (c *StreamCollector) ObserveSendError() {
	c.mu.Lock()
	c.ensureStartTimeLocked()
	c.sendErrors++
	c.mu.Unlock()
}

// Snapshot creates a read-only view of the collected metrics.
func (c *StreamCollector) Snapshot() StreamSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buildSnapshotLocked(time.Now())
}

func (c *StreamCollector) buildSnapshotLocked(now time.Time) StreamSnapshot {
	elapsed := time.Duration(0)
	if !c.startTime.IsZero() {
		elapsed = now.Sub(c.startTime)
	}

	throughput := 0.0
	fps := 0.0
	if elapsed > 0 {
		throughput = float64(c.bytesSent) / elapsed.Seconds()
		fps = float64(c.framesSent) / elapsed.Seconds()
	}

	return StreamSnapshot{
		Elapsed:         elapsed,
		FramesCaptured:  c.framesCaptured,
		FramesSent:      c.framesSent,
		PacketsSent:     c.packetsSent,
		BytesSent:       c.bytesSent,
		SendErrors:      c.sendErrors,
		CaptureFailures: c.captureFailures,
		FramesPerSec:    fps,
		ThroughputBps:   throughput,
		ThroughputMbps:  throughput * 8 / 1e6,
	}
}

func (c *StreamCollector) registerMetrics() {
	makeGauge := func(name, help string, valueFn func(StreamSnapshot) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: c.namespace,
			Subsystem: subsystemStream,
			Name:      name,
			Help:      help,
		}, func() float64 {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return valueFn(c.buildSnapshotLocked(time.Now()))
		})
	}

	makeCounter := func(name, help string, valueFn func() float64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: subsystemStream,
			Name:      name,
			Help:      help,
		}, valueFn)
	}

	c.registry.MustRegister(makeGauge(
		"frames_per_second",
		"Frames transmitted per second since the stream started.",
		func(s StreamSnapshot) float64 { return s.FramesPerSec },
	))
	c.registry.MustRegister(makeGauge(
		"throughput_bytes_per_second",
		"Datagram payload bytes transmitted per second.",
		func(s StreamSnapshot) float64 { return s.ThroughputBps },
	))

	c.registry.MustRegister(makeCounter(
		"frames_captured_total",
		"Frames successfully captured from the screen region.",
		func() float64 {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return float64(c.framesCaptured)
		},
	))
	c.registry.MustRegister(makeCounter(
		"frames_sent_total",
		"Frames fully packetized and handed to the socket.",
		func() float64 {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return float64(c.framesSent)
		},
	))
	c.registry.MustRegister(makeCounter(
		"packets_sent_total",
		"Data packets transmitted.",
		func() float64 {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return float64(c.packetsSent)
		},
	))
	c.registry.MustRegister(makeCounter(
		"bytes_sent_total",
		"Payload bytes transmitted including packet headers.",
		func() float64 {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return float64(c.bytesSent)
		},
	))
	c.registry.MustRegister(makeCounter(
		"send_errors_total",
		"Transport-level send failures. Each one costs a single frame.",
		func() float64 {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return float64(c.sendErrors)
		},
	))
	c.registry.MustRegister(makeCounter(
		"capture_failures_total",
		"Transient screen acquisition failures.",
		func() float64 {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return float64(c.captureFailures)
		},
	))
}

func (c *StreamCollector) ensureStartTimeLocked() {
	if c.startTime.IsZero() {
		c.startTime = time.Now()
	}
}
