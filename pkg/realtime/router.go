package realtime

import (
	"context"
	"log/slog"
	"sync"
)

// router deserializes inbound channel frames and fans them out, in arrival
// order, to every active subscriber and to the tool dispatcher. Parsing is
// permissive: an unrecognized discriminator becomes a generic event; a
// malformed frame is dropped with a reported parse error and never terminates
// the fan-out.
type router struct {
	logger *slog.Logger

	// observe is called for every parsed event before fan-out (session id
	// tracking). onToolCall hands tool_call events to the dispatcher.
	observe    func(*Event)
	onToolCall func(*Event)

	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

func newRouter(logger *slog.Logger) *router {
	return &router{
		logger: logger,
		subs:   make(map[*subscriber]struct{}),
	}
}

// route handles one inbound frame. It runs on the transport's delivery
// goroutine and never blocks: subscriber queues are unbounded and tool
// execution is spawned by the dispatcher.
func (r *router) route(frame []byte) {
	if r.logger.Enabled(context.Background(), slog.LevelDebug) {
		str := string(frame)
		if len(str) > 1000 {
			str = str[:1000] + "..."
		}
		r.logger.Debug("received frame", "len", len(frame), "content", str)
	}

	e, err := parseEvent(frame)
	if err != nil {
		r.logger.Warn("dropping malformed frame", "error", err)
		return
	}

	if r.observe != nil {
		r.observe(e)
	}

	r.mu.Lock()
	for sub := range r.subs {
		sub.push(e)
	}
	r.mu.Unlock()

	if e.Type == EventTypeToolCall && r.onToolCall != nil {
		r.onToolCall(e)
	}
}

// subscribe registers a new subscriber. Subscribers only see events that
// arrive after registration; there is no replay.
func (r *router) subscribe() *subscriber {
	sub := newSubscriber()
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		sub.close()
		return sub
	}
	r.subs[sub] = struct{}{}
	r.mu.Unlock()
	return sub
}

func (r *router) unsubscribe(sub *subscriber) {
	r.mu.Lock()
	delete(r.subs, sub)
	r.mu.Unlock()
	sub.close()
}

// shutdown cancels the fan-out and releases every subscriber synchronously.
func (r *router) shutdown() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	subs := make([]*subscriber, 0, len(r.subs))
	for sub := range r.subs {
		subs = append(subs, sub)
	}
	r.subs = make(map[*subscriber]struct{})
	r.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}

// subscriber buffers events without bound between the router and one
// consumer, so a slow consumer never blocks delivery to the others. The
// caller is expected to keep up; there is no backpressure signal in the wire
// protocol.
type subscriber struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*Event
	closed bool

	out  chan *Event
	done chan struct{}
}

func newSubscriber() *subscriber {
	sub := &subscriber{
		out:  make(chan *Event),
		done: make(chan struct{}),
	}
	sub.cond = sync.NewCond(&sub.mu)
	go sub.pump()
	return sub
}

func (s *subscriber) push(e *Event) {
	s.mu.Lock()
	if !s.closed {
		s.queue = append(s.queue, e)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *subscriber) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	s.cond.Broadcast()
	s.mu.Unlock()
}

// pump drains the queue into the consumer channel, preserving order.
func (s *subscriber) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		e := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- e:
		case <-s.done:
			return
		}
	}
}
