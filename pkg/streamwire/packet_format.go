package streamwire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// MaxPacketSize keeps header + payload under common path MTU so
	// datagrams are never IP-fragmented.
	MaxPacketSize = 1400

	// HeaderLen is the fixed data packet header:
	// frame_id(4) + packet_id(4) + total_packets(4) + data_size(4).
	HeaderLen = 16

	// HandshakeToken is the payload a viewer sends to open the single
	// supported stream peer slot.
	HandshakeToken = "HELLO"

	// HandshakeAck is sent back once the peer address is recorded.
	HandshakeAck = "HELLO_ACK"

	frameInfoPrefix = "INFO:"
)

// DataPacket carries one fragment of a frame's packed RGB payload. All
// header fields travel in network byte order. PacketID values are dense and
// zero based within [0, TotalPackets).
type DataPacket struct {
	FrameID      uint32
	PacketID     uint32
	TotalPackets uint32
	DataSize     uint32
	Payload      []byte
}

func (p *DataPacket) Encode(dst []byte) (int, error) {
	need := HeaderLen + len(p.Payload)
	if len(dst) < need {
		return 0, errors.New("buffer too small")
	}
	if p.DataSize != uint32(len(p.Payload)) {
		return 0, fmt.Errorf("data_size %d does not match payload length %d", p.DataSize, len(p.Payload))
	}
	binary.BigEndian.PutUint32(dst[0:4], p.FrameID)
	binary.BigEndian.PutUint32(dst[4:8], p.PacketID)
	binary.BigEndian.PutUint32(dst[8:12], p.TotalPackets)
	binary.BigEndian.PutUint32(dst[12:16], p.DataSize)
	copy(dst[HeaderLen:], p.Payload)
	return need, nil
}

func (p *DataPacket) Decode(src []byte) (int, error) {
	if len(src) < HeaderLen {
		return 0, errors.New("packet length too short")
	}
	p.FrameID = binary.BigEndian.Uint32(src[0:4])
	p.PacketID = binary.BigEndian.Uint32(src[4:8])
	p.TotalPackets = binary.BigEndian.Uint32(src[8:12])
	p.DataSize = binary.BigEndian.Uint32(src[12:16])

	if p.TotalPackets == 0 {
		return 0, errors.New("total_packets is zero")
	}
	if p.PacketID >= p.TotalPackets {
		return 0, fmt.Errorf("packet_id %d out of range [0,%d)", p.PacketID, p.TotalPackets)
	}
	need := HeaderLen + int(p.DataSize)
	if len(src) < need {
		return 0, errors.New("payload truncated")
	}
	p.Payload = src[HeaderLen:need]
	return need, nil
}

// EncodeFrameInfo builds the metadata packet announcing the frame
// dimensions. Its ASCII shape keeps it distinguishable from data fragments
// without relying on arrival order.
func EncodeFrameInfo(width, height uint32) []byte {
	return []byte(fmt.Sprintf("%s%d:%d", frameInfoPrefix, width, height))
}

func ParseFrameInfo(src []byte) (width, height uint32, err error) {
	if !IsFrameInfo(src) {
		return 0, 0, errors.New("not a frame info packet")
	}
	var w, h uint32
	n, err := fmt.Sscanf(string(src), frameInfoPrefix+"%d:%d", &w, &h)
	if err != nil || n != 2 {
		return 0, 0, fmt.Errorf("malformed frame info %q", src)
	}
	return w, h, nil
}

func IsFrameInfo(src []byte) bool {
	return bytes.HasPrefix(src, []byte(frameInfoPrefix))
}

func IsHandshake(src []byte) bool {
	return bytes.Equal(src, []byte(HandshakeToken))
}

func IsHandshakeAck(src []byte) bool {
	return bytes.Equal(src, []byte(HandshakeAck))
}
