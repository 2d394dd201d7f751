package streamer

import "errors"

var (
	// ErrNotConnected is a sequencing error: frame traffic was attempted
	// before the handshake completed.
	ErrNotConnected = errors.New("streamer: no peer connected")

	// ErrNotListening is returned when WaitForClient is called outside the
	// Listening state. Only one peer is supported per session.
	ErrNotListening = errors.New("streamer: session is not listening")

	// ErrInvalidHandshake marks a datagram that did not carry the expected
	// handshake token. The listener keeps waiting after rejecting it.
	ErrInvalidHandshake = errors.New("streamer: invalid handshake payload")

	// ErrHandshakeTimeout is returned when the configured bounded wait for
	// a client elapsed.
	ErrHandshakeTimeout = errors.New("streamer: timed out waiting for client")

	// ErrSendFailed wraps a transport-level transmit error. The current
	// frame is abandoned; the session stays connected.
	ErrSendFailed = errors.New("streamer: send failed")

	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("streamer: session closed")
)
