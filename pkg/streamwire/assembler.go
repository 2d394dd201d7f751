package streamwire

// Assembler reconstructs frame payloads from data packets on the receiving
// side. It tracks a single frame at a time: whenever a fragment from a newer
// frame arrives, the incomplete older frame is dropped. A frame is surfaced
// only once all TotalPackets fragments are present, so a half-received frame
// can never be displayed.
type Assembler struct {
	frameID  uint32
	total    uint32
	parts    map[uint32][]byte
	tracking bool
}

func NewAssembler() *Assembler {
	return &Assembler{
		parts: make(map[uint32][]byte),
	}
}

// Add feeds one decoded packet into the assembler. When the packet completes
// a frame, the reassembled payload and its frame id are returned with
// ok == true. Packets from frames older than the one being tracked are
// ignored.
func (a *Assembler) Add(p *DataPacket) (payload []byte, frameID uint32, ok bool) {
	if a.tracking {
		// Serial-number comparison so the uint32 wraparound keeps working.
		diff := int32(p.FrameID - a.frameID)
		if diff < 0 {
			return nil, 0, false
		}
		if diff > 0 {
			a.reset(p)
		}
	} else {
		a.reset(p)
	}

	if p.TotalPackets != a.total {
		// Inconsistent fragment set; start over from this packet.
		a.reset(p)
	}

	if _, dup := a.parts[p.PacketID]; !dup {
		a.parts[p.PacketID] = append([]byte(nil), p.Payload...)
	}

	if uint32(len(a.parts)) < a.total {
		return nil, 0, false
	}

	out := make([]byte, 0, a.payloadLen())
	for id := uint32(0); id < a.total; id++ {
		out = append(out, a.parts[id]...)
	}
	frameID = a.frameID
	a.tracking = false
	a.parts = make(map[uint32][]byte)
	return out, frameID, true
}

// FrameID reports the frame currently being assembled.
func (a *Assembler) FrameID() (uint32, bool) {
	return a.frameID, a.tracking
}

func (a *Assembler) payloadLen() int {
	n := 0
	for _, part := range a.parts {
		n += len(part)
	}
	return n
}

func (a *Assembler) reset(p *DataPacket) {
	a.frameID = p.FrameID
	a.total = p.TotalPackets
	a.parts = make(map[uint32][]byte)
	a.tracking = true
}
