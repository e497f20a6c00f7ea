package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
)

func TestOutboundNotOpenBeforeAttach(t *testing.T) {
	o := newOutbound(slog.Default())
	if err := o.send(NewToolOutput("c1", "x")); !errors.Is(err, ErrNotOpen) {
		t.Errorf("err = %v, want ErrNotOpen", err)
	}
}

func TestOutboundNotOpenAfterShut(t *testing.T) {
	ch := newFakeChannel(true)
	o := newOutbound(slog.Default())
	o.attach(ch)
	o.shut()

	if err := o.send(NewToolOutput("c1", "x")); !errors.Is(err, ErrNotOpen) {
		t.Errorf("err = %v, want ErrNotOpen", err)
	}
	if n := len(ch.sentFrames()); n != 0 {
		t.Errorf("channel received %d frames, want 0", n)
	}
}

func TestOutboundStampsEventID(t *testing.T) {
	ch := newFakeChannel(true)
	o := newOutbound(slog.Default())
	o.attach(ch)

	if err := o.send(NewToolOutput("c1", "x")); err != nil {
		t.Fatalf("send: %v", err)
	}
	frames := ch.sentFrames()
	if len(frames) != 1 {
		t.Fatalf("sent %d frames", len(frames))
	}
	var e Event
	if err := json.Unmarshal(frames[0], &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.EventID == "" {
		t.Error("event id not stamped")
	}
}

func TestOutboundForwardsUnknownRaw(t *testing.T) {
	ch := newFakeChannel(true)
	o := newOutbound(slog.Default())
	o.attach(ch)

	raw := []byte(`{"type":"custom.vendor_event","payload":{"k":1}}`)
	e, err := parseEvent(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := o.send(e); err != nil {
		t.Fatalf("send: %v", err)
	}
	frames := ch.sentFrames()
	if len(frames) != 1 || string(frames[0]) != string(raw) {
		t.Errorf("frame = %s", frames[0])
	}
}

func TestOutboundPerSenderOrder(t *testing.T) {
	ch := newFakeChannel(true)
	o := newOutbound(slog.Default())
	o.attach(ch)

	const senders, perSender = 4, 25
	var wg sync.WaitGroup
	for s := 0; s < senders; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				e := NewToolOutput(fmt.Sprintf("s%d", s), fmt.Sprintf("%d", i))
				if err := o.send(e); err != nil {
					t.Errorf("send: %v", err)
				}
			}
		}(s)
	}
	wg.Wait()

	frames := ch.sentFrames()
	if len(frames) != senders*perSender {
		t.Fatalf("sent %d frames, want %d", len(frames), senders*perSender)
	}

	// Each sender's events must appear in its own send order.
	last := map[string]int{}
	for _, frame := range frames {
		var e Event
		if err := json.Unmarshal(frame, &e); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		var i int
		fmt.Sscanf(e.Output, "%d", &i)
		if prev, seen := last[e.CallID]; seen && i != prev+1 {
			t.Fatalf("sender %s out of order: %d after %d", e.CallID, i, prev)
		}
		last[e.CallID] = i
	}
}
