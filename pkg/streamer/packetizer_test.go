package streamer

import (
	"bytes"
	"testing"

	"github.com/TabCasterOrg/TabCaster/pkg/streamwire"
)

func TestPacketizeSplitsEvenly(t *testing.T) {
	// Three full fragments: payload is an exact multiple of the data room.
	dataPerPacket := streamwire.MaxPacketSize - streamwire.HeaderLen
	payload := bytes.Repeat([]byte{0x5a}, 3*dataPerPacket)

	packets, err := Packetize(42, payload, streamwire.MaxPacketSize)
	if err != nil {
		t.Fatalf("packetize failed: %v", err)
	}
	if len(packets) != 3 {
		t.Fatalf("expected 3 packets, got %d", len(packets))
	}
	for i, p := range packets {
		if p.FrameID != 42 {
			t.Fatalf("packet %d has frame id %d, want 42", i, p.FrameID)
		}
		if p.PacketID != uint32(i) {
			t.Fatalf("packet %d has id %d", i, p.PacketID)
		}
		if p.TotalPackets != 3 {
			t.Fatalf("packet %d reports total %d, want 3", i, p.TotalPackets)
		}
		if int(p.DataSize) != dataPerPacket || len(p.Payload) != dataPerPacket {
			t.Fatalf("packet %d carries %d bytes, want %d", i, p.DataSize, dataPerPacket)
		}
	}
}

func TestPacketizeShortTail(t *testing.T) {
	// The spec's full-screen RGB frame scenario (7,560,960 bytes) does
	// not divide evenly by the per-packet data room.
	payload := make([]byte, 7560960)
	dataPerPacket := streamwire.MaxPacketSize - streamwire.HeaderLen

	packets, err := Packetize(1, payload, streamwire.MaxPacketSize)
	if err != nil {
		t.Fatalf("packetize failed: %v", err)
	}

	wantTotal := (len(payload) + dataPerPacket - 1) / dataPerPacket
	if wantTotal != 5464 {
		t.Fatalf("test arithmetic drifted: want 5464 packets, computed %d", wantTotal)
	}
	if len(packets) != wantTotal {
		t.Fatalf("expected %d packets, got %d", wantTotal, len(packets))
	}

	last := packets[len(packets)-1]
	wantTail := len(payload) - (wantTotal-1)*dataPerPacket
	if wantTail != 168 {
		t.Fatalf("test arithmetic drifted: want tail of 168 bytes, computed %d", wantTail)
	}
	if int(last.DataSize) != wantTail {
		t.Fatalf("last packet carries %d bytes, want %d", last.DataSize, wantTail)
	}

	n := 0
	for _, p := range packets {
		n += len(p.Payload)
	}
	if n != len(payload) {
		t.Fatalf("fragments cover %d bytes, payload is %d", n, len(payload))
	}
}

func TestPacketizeConcatenationRestoresPayload(t *testing.T) {
	payload := make([]byte, 5000)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	packets, err := Packetize(7, payload, 100)
	if err != nil {
		t.Fatalf("packetize failed: %v", err)
	}

	var rebuilt []byte
	for _, p := range packets {
		rebuilt = append(rebuilt, p.Payload...)
	}
	if !bytes.Equal(rebuilt, payload) {
		t.Fatal("concatenated fragments do not restore the payload")
	}
}

func TestPacketizeEmptyPayload(t *testing.T) {
	packets, err := Packetize(1, nil, streamwire.MaxPacketSize)
	if err != nil {
		t.Fatalf("packetize failed: %v", err)
	}
	if len(packets) != 0 {
		t.Fatalf("expected no packets for an empty payload, got %d", len(packets))
	}
}

func TestPacketizeRejectsTinyPacketSize(t *testing.T) {
	if _, err := Packetize(1, []byte{1}, streamwire.HeaderLen); err == nil {
		t.Fatal("expected error when max packet size leaves no payload room")
	}
}
