package streamer

import (
	"context"
	"fmt"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/TabCasterOrg/TabCaster/internal"
	"github.com/TabCasterOrg/TabCaster/pkg/metrics"
	"github.com/TabCasterOrg/TabCaster/pkg/streamwire"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

type State uint8

const (
	StateCreated State = iota
	StateListening
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateListening:
		return "listening"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type Config struct {
	// MaxPacketSize bounds header + payload per datagram. Defaults to
	// streamwire.MaxPacketSize.
	MaxPacketSize int

	// PacketGap is the fixed pause between data packets of one frame. This
	// is deliberate constant pacing, not congestion control.
	PacketGap time.Duration

	// InfoDelay is the pause after the frame-info packet so a viewer sees
	// the dimensions before the first fragments arrive.
	InfoDelay time.Duration

	// HandshakeTimeout bounds WaitForClient. Zero means wait until the
	// context is cancelled.
	HandshakeTimeout time.Duration

	// SocketBufferSize is applied to the socket send and receive buffers
	// when > 0.
	SocketBufferSize int

	// Collector receives send-side counters when set.
	Collector *metrics.StreamCollector
}

const handshakePollInterval = 250 * time.Millisecond

// Session owns the bound datagram socket and the single-peer connection
// lifecycle: Created -> Listening -> Connected -> Closed. Frame traffic is
// send-and-forget; lost fragments are never retransmitted.
type Session struct {
	id   uuid.UUID
	cfg  Config
	conn *net.UDPConn

	mu          sync.Mutex
	state       State
	peer        *net.UDPAddr
	frameWidth  uint32
	frameHeight uint32
	nextFrameID uint32

	sendBuf []byte
}

// NewSession binds a UDP socket on the given port and leaves the session in
// the Listening state. Port 0 picks an ephemeral port.
func NewSession(port int, cfg Config) (*Session, error) {
	if cfg.MaxPacketSize <= 0 {
		cfg.MaxPacketSize = streamwire.MaxPacketSize
	}
	if cfg.MaxPacketSize <= streamwire.HeaderLen {
		return nil, fmt.Errorf("max packet size %d must exceed header size %d", cfg.MaxPacketSize, streamwire.HeaderLen)
	}
	if cfg.PacketGap < 0 {
		cfg.PacketGap = 0
	}

	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	pc, err := lc.ListenPacket(context.Background(), "udp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("bind udp port %d: %w", port, err)
	}
	conn, ok := pc.(*net.UDPConn)
	if !ok {
		pc.Close()
		return nil, fmt.Errorf("unexpected packet conn type %T", pc)
	}

	if cfg.SocketBufferSize > 0 {
		if err := conn.SetReadBuffer(cfg.SocketBufferSize); err != nil {
			internal.Warn("failed to set socket read buffer", internal.Fields{
				internal.FieldError: err.Error(),
			})
		}
		if err := conn.SetWriteBuffer(cfg.SocketBufferSize); err != nil {
			internal.Warn("failed to set socket write buffer", internal.Fields{
				internal.FieldError: err.Error(),
			})
		}
	}

	s := &Session{
		id:      uuid.New(),
		cfg:     cfg,
		conn:    conn,
		state:   StateListening,
		sendBuf: make([]byte, cfg.MaxPacketSize),
	}

	internal.Info("stream session listening", internal.Fields{
		internal.FieldSession: s.id.String(),
		internal.FieldPort:    conn.LocalAddr().String(),
	})
	return s, nil
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) LocalAddr() net.Addr { return s.conn.LocalAddr() }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Peer returns the connected viewer's address, or nil before the handshake.
func (s *Session) Peer() *net.UDPAddr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer
}

// NextFrameID hands out the per-session frame sequence number. Starts at 0
// and wraps with the natural uint32 overflow.
func (s *Session) NextFrameID() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextFrameID
	s.nextFrameID++
	return id
}

// WaitForClient blocks until a datagram carrying the handshake token
// arrives, then records the sender as the session's only peer and replies
// with the acknowledgment token. Datagrams with any other payload are
// rejected and the session keeps listening. The wait is cancellable through
// ctx and bounded by Config.HandshakeTimeout when non-zero.
func (s *Session) WaitForClient(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateListening {
		state := s.state
		s.mu.Unlock()
		if state == StateClosed {
			return ErrClosed
		}
		return fmt.Errorf("%w (state %s)", ErrNotListening, state)
	}
	s.mu.Unlock()

	var deadline time.Time
	if s.cfg.HandshakeTimeout > 0 {
		deadline = time.Now().Add(s.cfg.HandshakeTimeout)
	}

	buf := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return ErrHandshakeTimeout
		}

		// Short read deadlines keep the wait responsive to cancellation.
		_ = s.conn.SetReadDeadline(time.Now().Add(handshakePollInterval))
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return fmt.Errorf("handshake read: %w", err)
		}
		if n == 0 {
			continue
		}

		if !streamwire.IsHandshake(buf[:n]) {
			internal.Warn("rejected handshake attempt", internal.Fields{
				internal.FieldError: ErrInvalidHandshake.Error(),
				internal.FieldPeer:  addr.String(),
				internal.FieldBytes: n,
			})
			continue
		}

		_ = s.conn.SetReadDeadline(time.Time{})
		if _, err := s.conn.WriteToUDP([]byte(streamwire.HandshakeAck), addr); err != nil {
			return fmt.Errorf("send handshake ack: %w", err)
		}

		s.mu.Lock()
		s.peer = addr
		s.state = StateConnected
		s.mu.Unlock()

		internal.Info("client connected", internal.Fields{
			internal.FieldSession: s.id.String(),
			internal.FieldPeer:    addr.String(),
		})
		return nil
	}
}

// SendFrameInfo transmits the frame dimensions once, ahead of any pixel
// data. Valid only while connected.
func (s *Session) SendFrameInfo(width, height uint32) error {
	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		return ErrNotConnected
	}
	peer := s.peer
	s.frameWidth = width
	s.frameHeight = height
	s.mu.Unlock()

	if _, err := s.conn.WriteToUDP(streamwire.EncodeFrameInfo(width, height), peer); err != nil {
		return fmt.Errorf("%w: frame info: %v", ErrSendFailed, err)
	}

	internal.Info("sent frame info", internal.Fields{
		internal.FieldSession: s.id.String(),
		internal.FieldRegion:  fmt.Sprintf("%dx%d", width, height),
	})

	// Give the viewer a beat to process the dimensions before fragments
	// start arriving.
	if s.cfg.InfoDelay > 0 {
		time.Sleep(s.cfg.InfoDelay)
	}
	return nil
}

// SendFrame fragments one packed RGB payload and transmits every fragment in
// packet id order with constant pacing between datagrams. A transport error
// abandons the rest of the frame; the session stays connected and the next
// frame is attempted normally.
func (s *Session) SendFrame(rgb []byte, frameID uint32) error {
	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		return ErrNotConnected
	}
	peer := s.peer
	s.mu.Unlock()

	packets, err := Packetize(frameID, rgb, s.cfg.MaxPacketSize)
	if err != nil {
		return err
	}

	for i := range packets {
		n, err := packets[i].Encode(s.sendBuf)
		if err != nil {
			return err
		}
		wrote, err := s.conn.WriteToUDP(s.sendBuf[:n], peer)
		if err != nil {
			if s.cfg.Collector != nil {
				s.cfg.Collector.ObserveSendError()
			}
			return fmt.Errorf("%w: packet %d/%d of frame %d: %v", ErrSendFailed, i, len(packets), frameID, err)
		}
		if wrote != n {
			// Best-effort protocol: a short write costs one fragment, not
			// the stream.
			internal.Warn("partial packet send", internal.Fields{
				internal.FieldFrameID: frameID,
				internal.FieldPackets: fmt.Sprintf("%d/%d", i, len(packets)),
				internal.FieldBytes:   fmt.Sprintf("%d/%d", wrote, n),
			})
		}
		if s.cfg.Collector != nil {
			s.cfg.Collector.ObservePacketSend(wrote)
		}
		if s.cfg.PacketGap > 0 && i < len(packets)-1 {
			time.Sleep(s.cfg.PacketGap)
		}
	}

	if s.cfg.Collector != nil {
		s.cfg.Collector.ObserveFrameSent()
	}

	internal.Debug("frame sent", internal.Fields{
		internal.FieldSession: s.id.String(),
		internal.FieldFrameID: frameID,
		internal.FieldPackets: len(packets),
		internal.FieldBytes:   len(rgb),
	})
	return nil
}

// Close releases the socket. Safe to call from any state, any number of
// times.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed
	s.peer = nil
	return s.conn.Close()
}
