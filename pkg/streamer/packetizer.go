package streamer

import (
	"fmt"

	"github.com/TabCasterOrg/TabCaster/pkg/streamwire"
)

// Packetize slices one frame payload into transport-sized fragments. Every
// fragment carries the same frame id and total count so the receiver can
// detect a complete set without external bookkeeping. Fragment payloads are
// sub-slices of payload; callers must not mutate it until the fragments have
// been transmitted.
func Packetize(frameID uint32, payload []byte, maxPacketSize int) ([]streamwire.DataPacket, error) {
	if maxPacketSize <= streamwire.HeaderLen {
		return nil, fmt.Errorf("max packet size %d must exceed header size %d", maxPacketSize, streamwire.HeaderLen)
	}

	dataPerPacket := maxPacketSize - streamwire.HeaderLen
	total := (len(payload) + dataPerPacket - 1) / dataPerPacket
	if total == 0 {
		return nil, nil
	}

	packets := make([]streamwire.DataPacket, 0, total)
	for id := 0; id < total; id++ {
		start := id * dataPerPacket
		end := start + dataPerPacket
		if end > len(payload) {
			end = len(payload)
		}
		packets = append(packets, streamwire.DataPacket{
			FrameID:      frameID,
			PacketID:     uint32(id),
			TotalPackets: uint32(total),
			DataSize:     uint32(end - start),
			Payload:      payload[start:end],
		})
	}
	return packets, nil
}
