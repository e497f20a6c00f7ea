package realtime

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
)

// State is the connection state of a Controller. Transitions are monotonic
// through the handshake; any non-terminal state may move to StateFailed, and
// disposal moves any state to StateClosed.
type State int

const (
	StateIdle State = iota
	StateNegotiating
	StateAwaitingChannelOpen
	StateOpen
	StateClosing
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNegotiating:
		return "negotiating"
	case StateAwaitingChannelOpen:
		return "awaiting_channel_open"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DefaultChannelLabel is the name of the reliable ordered channel carrying
// control events.
const DefaultChannelLabel = "oai-events"

// Controller drives one realtime session: it performs the handshake with the
// negotiation service, owns the transport and its control channel, routes
// inbound events and dispatches tool calls. One Controller serves one
// session; Connect may be called at most once per instance.
type Controller struct {
	cfg          *SessionConfig
	negotiator   Negotiator
	newTransport func() (Transport, error)
	onReady      func(*Handle)
	logger       *slog.Logger
	channelLabel string

	registry map[string]*Tool

	router *router
	out    *outbound
	disp   *dispatcher

	mu        sync.Mutex
	state     State
	transport Transport
	channel   DataChannel
	handle    *Handle
	sessionID string

	closing atomic.Bool
	done    chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithNegotiator sets the negotiation client used during Connect.
func WithNegotiator(n Negotiator) Option {
	return func(c *Controller) { c.negotiator = n }
}

// WithTransport sets a pre-built transport instead of the default WebRTC
// transport.
func WithTransport(t Transport) Option {
	return func(c *Controller) {
		c.newTransport = func() (Transport, error) { return t, nil }
	}
}

// WithReadyFunc sets a callback invoked exactly once when the session
// reaches the Open state.
func WithReadyFunc(f func(*Handle)) Option {
	return func(c *Controller) { c.onReady = f }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithChannelLabel overrides the control channel name.
func WithChannelLabel(label string) Option {
	return func(c *Controller) { c.channelLabel = label }
}

// NewController builds a controller for the given session configuration. The
// tool registry is built once here and is immutable for the session's
// lifetime; duplicate tool names are rejected.
func NewController(cfg *SessionConfig, opts ...Option) (*Controller, error) {
	if cfg == nil {
		cfg = &SessionConfig{}
	}
	c := &Controller{
		cfg:          cfg,
		logger:       slog.Default(),
		channelLabel: DefaultChannelLabel,
		registry:     make(map[string]*Tool, len(cfg.Tools)),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, tool := range cfg.Tools {
		if tool.Name == "" {
			return nil, fmt.Errorf("realtime: tool with empty name")
		}
		if _, dup := c.registry[tool.Name]; dup {
			return nil, fmt.Errorf("realtime: duplicate tool %q", tool.Name)
		}
		c.registry[tool.Name] = tool
	}

	if c.newTransport == nil {
		c.newTransport = func() (Transport, error) {
			return NewWebRTCTransport(nil)
		}
	}

	c.router = newRouter(c.logger)
	c.out = newOutbound(c.logger)
	c.disp = newDispatcher(c.registry, c.out, c.Handle, c.logger)
	c.router.observe = c.observe
	c.router.onToolCall = c.disp.dispatch
	return c, nil
}

// State returns the current connection state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the session id assigned during negotiation, or the empty
// string if none has been assigned yet.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Handle returns the session handle, or nil before the session is open.
func (c *Controller) Handle() *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// Connect performs the full handshake: transport creation, local description,
// negotiation round trip, answer application, channel creation and the wait
// for channel readiness. It returns once the channel is confirmed open, or
// with a typed fatal error. There is no built-in timeout on the channel-open
// wait; bound it with the context.
//
// Connect may be called at most once per controller instance.
func (c *Controller) Connect(ctx context.Context) (*Handle, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil, ErrAlreadyConnected
	}
	c.state = StateNegotiating
	c.mu.Unlock()

	if c.negotiator == nil {
		return nil, c.fail(nil, &NegotiationError{
			Code:    "no_negotiator",
			Message: "no negotiation client configured",
		})
	}

	tr, err := c.newTransport()
	if err != nil {
		return nil, c.fail(nil, &ChannelError{Op: "create transport", Err: err})
	}

	offer, err := tr.CreateOffer(ctx)
	if err != nil {
		return nil, c.fail(tr, &ChannelError{Op: "create offer", Err: err})
	}

	// The only network round trip beyond the transport's own negotiation.
	// It must complete before the channel is created.
	neg, err := c.negotiator.Negotiate(ctx, offer, c.cfg)
	if err != nil {
		if _, typed := err.(*NegotiationError); !typed {
			err = &NegotiationError{Message: err.Error(), Err: err}
		}
		return nil, c.fail(tr, err)
	}

	if err := tr.SetAnswer(neg.AnswerSDP); err != nil {
		return nil, c.fail(tr, &ChannelError{Op: "apply answer", Err: err})
	}

	c.mu.Lock()
	if c.state != StateNegotiating {
		c.mu.Unlock()
		tr.Close()
		return nil, ErrClosed
	}
	c.state = StateAwaitingChannelOpen
	c.sessionID = neg.SessionID
	c.mu.Unlock()

	ch, err := tr.CreateDataChannel(c.channelLabel)
	if err != nil {
		return nil, c.fail(tr, &ChannelError{Op: "create channel", Err: err})
	}

	openCh := make(chan struct{})
	var openOnce sync.Once
	ch.OnOpen(func() {
		c.logger.Debug("channel opened", "label", c.channelLabel)
		openOnce.Do(func() { close(openCh) })
	})
	ch.OnMessage(c.router.route)
	ch.OnClose(func() {
		c.logger.Debug("channel closed", "label", c.channelLabel)
		// A close caused by a failed connect already tore the session down.
		if c.State() == StateFailed {
			return
		}
		c.shutdown()
	})

	select {
	case <-openCh:
	case <-c.done:
		tr.Close()
		return nil, &ChannelError{Op: "await channel open", Err: ErrClosed}
	case <-ctx.Done():
		return nil, c.fail(tr, &ChannelError{Op: "await channel open", Err: ctx.Err()})
	}

	c.mu.Lock()
	if c.state != StateAwaitingChannelOpen {
		c.mu.Unlock()
		tr.Close()
		return nil, ErrClosed
	}
	c.transport = tr
	c.channel = ch
	c.state = StateOpen
	h := &Handle{ctrl: c}
	c.handle = h
	c.mu.Unlock()

	c.out.attach(ch)

	if c.onReady != nil {
		c.onReady(h)
	}
	return h, nil
}

// Send enqueues the event for transmission. It fails with ErrNotOpen when
// the session is not in the Open state.
func (c *Controller) Send(e *Event) error {
	return c.out.send(e)
}

// Events returns the stream of inbound events, in arrival order, for the
// remainder of the session. Multiple iterations observe the same order; each
// subscription starts at the point of subscription (no replay). The buffer is
// unbounded; consumers are expected to keep up.
func (c *Controller) Events() iter.Seq[*Event] {
	return func(yield func(*Event) bool) {
		sub := c.router.subscribe()
		defer c.router.unsubscribe(sub)
		for e := range sub.out {
			if !yield(e) {
				return
			}
		}
	}
}

// Dispose releases the transport and channel, cancels the event fan-out and
// transitions to StateClosed. It is idempotent and safe to call from any
// state, including StateFailed. In-flight tool executions are not cancelled;
// their late outputs are discarded.
func (c *Controller) Dispose() {
	c.shutdown()
}

// fail moves the controller to StateFailed, releases the transport if one
// was created, and returns the typed error for the Connect caller.
func (c *Controller) fail(tr Transport, err error) error {
	c.mu.Lock()
	if c.state == StateClosed || c.state == StateClosing {
		c.mu.Unlock()
		if tr != nil {
			tr.Close()
		}
		return ErrClosed
	}
	c.state = StateFailed
	c.mu.Unlock()

	if tr != nil {
		if cerr := tr.Close(); cerr != nil {
			c.logger.Error("release transport after failure", "error", cerr)
		}
	}
	c.logger.Error("connect failed", "error", err)
	return err
}

// shutdown is the single teardown path, shared by Dispose and the channel
// close callback. It rejects further sends, releases subscribers, then
// releases the channel and transport. Release failures are reported, never
// propagated. Re-entrant calls (a channel whose Close fires its own close
// callback) return immediately.
func (c *Controller) shutdown() {
	if !c.closing.CompareAndSwap(false, true) {
		return
	}
	close(c.done)

	c.mu.Lock()
	if c.state == StateOpen {
		c.state = StateClosing
	}
	ch := c.channel
	tr := c.transport
	c.channel = nil
	c.transport = nil
	c.mu.Unlock()

	c.out.shut()
	c.router.shutdown()

	if ch != nil {
		if err := ch.Close(); err != nil {
			c.logger.Error("close channel", "error", err)
		}
	}
	if tr != nil {
		if err := tr.Close(); err != nil {
			c.logger.Error("close transport", "error", err)
		}
	}

	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
}

// observe runs before fan-out for every inbound event.
func (c *Controller) observe(e *Event) {
	if e.Type == EventTypeSessionCreated && e.Session != nil && e.Session.ID != "" {
		c.mu.Lock()
		c.sessionID = e.Session.ID
		c.mu.Unlock()
	}
}
