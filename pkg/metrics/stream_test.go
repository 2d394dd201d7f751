package metrics

import "testing"

func TestStreamCollectorCounters(t *testing.T) {
	c := NewStreamCollector("test")

	c.ObserveFrameCaptured()
	c.ObserveFrameCaptured()
	c.ObserveCaptureFailure()
	c.ObservePacketSend(1400)
	c.ObservePacketSend(184)
	c.ObserveFrameSent()
	c.ObserveSendError()

	s := c.Snapshot()
	if s.FramesCaptured != 2 {
		t.Fatalf("frames captured %d, want 2", s.FramesCaptured)
	}
	if s.CaptureFailures != 1 {
		t.Fatalf("capture failures %d, want 1", s.CaptureFailures)
	}
	if s.FramesSent != 1 {
		t.Fatalf("frames sent %d, want 1", s.FramesSent)
	}
	if s.PacketsSent != 2 {
		t.Fatalf("packets sent %d, want 2", s.PacketsSent)
	}
	if s.BytesSent != 1584 {
		t.Fatalf("bytes sent %d, want 1584", s.BytesSent)
	}
	if s.SendErrors != 1 {
		t.Fatalf("send errors %d, want 1", s.SendErrors)
	}
	if s.Elapsed <= 0 {
		t.Fatal("elapsed not tracked after first observation")
	}
}

func TestStreamCollectorIgnoresNegativeSizes(t *testing.T) {
	c := NewStreamCollector("test")
	c.ObservePacketSend(-1)

	s := c.Snapshot()
	if s.PacketsSent != 0 || s.BytesSent != 0 {
		t.Fatalf("negative observations counted: %+v", s)
	}
}

func TestStreamCollectorRegistryGathers(t *testing.T) {
	c := NewStreamCollector("test")
	c.ObservePacketSend(100)

	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "test_stream_packets_sent_total" {
			found = true
			if v := mf.GetMetric()[0].GetCounter().GetValue(); v != 1 {
				t.Fatalf("packets_sent_total is %v, want 1", v)
			}
		}
	}
	if !found {
		t.Fatal("packets_sent_total not exported by the registry")
	}
}

func TestStreamCollectorEmptyNamespaceFallsBack(t *testing.T) {
	c := NewStreamCollector("  ")

	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		name := mf.GetName()
		if len(name) < len(defaultNamespace) || name[:len(defaultNamespace)] != defaultNamespace {
			t.Fatalf("metric %q does not carry the default namespace", name)
		}
	}
}
