package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// outbound serializes application-issued events and tool outputs to the
// channel with strict first-in-first-out ordering. A single mutex is the
// writer discipline: callers never interleave partial frames, and send order
// is preserved relative to other sends.
type outbound struct {
	logger *slog.Logger

	mu   sync.Mutex
	ch   DataChannel
	open bool
}

func newOutbound(logger *slog.Logger) *outbound {
	return &outbound{logger: logger}
}

// attach hands the open channel to the queue and starts accepting sends.
func (o *outbound) attach(ch DataChannel) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ch = ch
	o.open = true
}

// shut rejects all further sends. Called before the channel is released so a
// late send can never produce a partial frame.
func (o *outbound) shut() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.open = false
}

// send encodes the event and writes it to the channel. Fails with ErrNotOpen
// once the channel has left the open state.
func (o *outbound) send(e *Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.open {
		return ErrNotOpen
	}
	if e.EventID == "" && e.Known() {
		e.EventID = generateEventID()
	}

	payload, err := encodeEvent(e)
	if err != nil {
		return err
	}

	if o.logger.Enabled(context.Background(), slog.LevelDebug) {
		if pretty, err := json.MarshalIndent(e, "", "  "); err == nil {
			str := string(pretty)
			if len(str) > 500 {
				str = str[:500] + "..."
			}
			o.logger.Debug("sending event", "content", str)
		}
	}

	return o.ch.Send(payload)
}
