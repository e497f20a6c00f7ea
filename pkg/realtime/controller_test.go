package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeChannel is a deterministic in-memory DataChannel.
type fakeChannel struct {
	openImmediately bool

	mu        sync.Mutex
	onOpen    func()
	onMessage func([]byte)
	onClose   func()
	sent      [][]byte
	closed    bool
}

func newFakeChannel(openImmediately bool) *fakeChannel {
	return &fakeChannel{openImmediately: openImmediately}
}

func (c *fakeChannel) OnOpen(f func()) {
	c.mu.Lock()
	c.onOpen = f
	c.mu.Unlock()
	if c.openImmediately {
		f()
	}
}

func (c *fakeChannel) OnMessage(f func(data []byte)) {
	c.mu.Lock()
	c.onMessage = f
	c.mu.Unlock()
}

func (c *fakeChannel) OnClose(f func()) {
	c.mu.Lock()
	c.onClose = f
	c.mu.Unlock()
}

func (c *fakeChannel) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("channel closed")
	}
	c.sent = append(c.sent, append([]byte(nil), data...))
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	onClose := c.onClose
	c.mu.Unlock()
	if onClose != nil {
		onClose()
	}
	return nil
}

// inject delivers a frame as if it arrived on the channel.
func (c *fakeChannel) inject(frame string) {
	c.mu.Lock()
	onMessage := c.onMessage
	c.mu.Unlock()
	if onMessage != nil {
		onMessage([]byte(frame))
	}
}

func (c *fakeChannel) sentFrames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

// fakeTransport is a deterministic in-memory Transport.
type fakeTransport struct {
	ch        *fakeChannel
	offerErr  error
	answerErr error
	chanErr   error

	mu     sync.Mutex
	answer string
	closes int
}

func (t *fakeTransport) CreateOffer(ctx context.Context) (string, error) {
	if t.offerErr != nil {
		return "", t.offerErr
	}
	return "v=0 fake offer", nil
}

func (t *fakeTransport) SetAnswer(sdp string) error {
	if t.answerErr != nil {
		return t.answerErr
	}
	t.mu.Lock()
	t.answer = sdp
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) CreateDataChannel(label string) (DataChannel, error) {
	if t.chanErr != nil {
		return nil, t.chanErr
	}
	return t.ch, nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	t.closes++
	t.mu.Unlock()
	if t.ch != nil {
		t.ch.Close()
	}
	return nil
}

func (t *fakeTransport) closeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closes
}

type negotiatorFunc func(ctx context.Context, offerSDP string, cfg *SessionConfig) (*Negotiation, error)

func (f negotiatorFunc) Negotiate(ctx context.Context, offerSDP string, cfg *SessionConfig) (*Negotiation, error) {
	return f(ctx, offerSDP, cfg)
}

func okNegotiator() negotiatorFunc {
	return func(ctx context.Context, offerSDP string, cfg *SessionConfig) (*Negotiation, error) {
		return &Negotiation{AnswerSDP: "v=0 fake answer", SessionID: "sess_1"}, nil
	}
}

// waitUntil polls cond until it holds or the deadline expires.
func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func newTestController(t *testing.T, cfg *SessionConfig, tr *fakeTransport, opts ...Option) *Controller {
	t.Helper()
	opts = append([]Option{WithNegotiator(okNegotiator()), WithTransport(tr)}, opts...)
	c, err := NewController(cfg, opts...)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c
}

func TestConnectHappyPath(t *testing.T) {
	tr := &fakeTransport{ch: newFakeChannel(true)}

	var readyCalls atomic.Int32
	var negotiated *SessionConfig
	cfg := &SessionConfig{Model: ModelGPT4oRealtimePreview}
	c, err := NewController(cfg,
		WithTransport(tr),
		WithNegotiator(negotiatorFunc(func(ctx context.Context, offerSDP string, got *SessionConfig) (*Negotiation, error) {
			if offerSDP != "v=0 fake offer" {
				t.Errorf("offer = %q", offerSDP)
			}
			negotiated = got
			return &Negotiation{AnswerSDP: "v=0 fake answer", SessionID: "sess_1"}, nil
		})),
		WithReadyFunc(func(h *Handle) { readyCalls.Add(1) }),
	)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	h, err := c.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer h.Dispose()

	if c.State() != StateOpen {
		t.Errorf("state = %v, want open", c.State())
	}
	if got := readyCalls.Load(); got != 1 {
		t.Errorf("ready callback called %d times", got)
	}
	if negotiated != cfg {
		t.Error("negotiator did not receive the session config")
	}
	if tr.answer != "v=0 fake answer" {
		t.Errorf("answer = %q", tr.answer)
	}
	if c.SessionID() != "sess_1" {
		t.Errorf("session id = %q", c.SessionID())
	}
}

func TestConnectAtMostOnce(t *testing.T) {
	tr := &fakeTransport{ch: newFakeChannel(true)}
	c := newTestController(t, nil, tr)

	h, err := c.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer h.Dispose()

	if _, err := c.Connect(context.Background()); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("second Connect: err = %v, want ErrAlreadyConnected", err)
	}
}

func TestConnectNegotiationFailure(t *testing.T) {
	tr := &fakeTransport{ch: newFakeChannel(true)}
	c, err := NewController(nil,
		WithTransport(tr),
		WithNegotiator(negotiatorFunc(func(ctx context.Context, offerSDP string, cfg *SessionConfig) (*Negotiation, error) {
			return nil, &NegotiationError{Code: "session_creation_failed", Message: "boom", HTTPStatus: 500}
		})))
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	_, err = c.Connect(context.Background())
	var negErr *NegotiationError
	if !errors.As(err, &negErr) {
		t.Fatalf("err = %v, want *NegotiationError", err)
	}
	if c.State() != StateFailed {
		t.Errorf("state = %v, want failed", c.State())
	}
	if tr.closeCount() == 0 {
		t.Error("transport not released after failure")
	}
}

func TestConnectChannelCreateFailure(t *testing.T) {
	tr := &fakeTransport{ch: newFakeChannel(true), chanErr: errors.New("sctp down")}
	c := newTestController(t, nil, tr)

	_, err := c.Connect(context.Background())
	var chErr *ChannelError
	if !errors.As(err, &chErr) {
		t.Fatalf("err = %v, want *ChannelError", err)
	}
	if c.State() != StateFailed {
		t.Errorf("state = %v, want failed", c.State())
	}
}

func TestConnectContextCancelledAwaitingOpen(t *testing.T) {
	tr := &fakeTransport{ch: newFakeChannel(false)} // never opens
	c := newTestController(t, nil, tr)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.Connect(ctx)
	var chErr *ChannelError
	if !errors.As(err, &chErr) {
		t.Fatalf("err = %v, want *ChannelError", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err should wrap context.Canceled: %v", err)
	}
	if c.State() != StateFailed {
		t.Errorf("state = %v, want failed", c.State())
	}
}

func TestSendNotOpen(t *testing.T) {
	tr := &fakeTransport{ch: newFakeChannel(true)}
	c := newTestController(t, nil, tr)

	if err := c.Send(NewUserMessage("hi")); !errors.Is(err, ErrNotOpen) {
		t.Errorf("send before connect: err = %v, want ErrNotOpen", err)
	}

	h, err := c.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := h.Send(NewUserMessage("hi")); err != nil {
		t.Errorf("send while open: %v", err)
	}

	h.Dispose()
	if err := h.Send(NewUserMessage("hi")); !errors.Is(err, ErrNotOpen) {
		t.Errorf("send after dispose: err = %v, want ErrNotOpen", err)
	}
	if n := len(tr.ch.sentFrames()); n != 1 {
		t.Errorf("channel saw %d frames, want 1", n)
	}
}

func TestDisposeIdempotent(t *testing.T) {
	tr := &fakeTransport{ch: newFakeChannel(true)}
	c := newTestController(t, nil, tr)

	h, err := c.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	h.Dispose()
	if c.State() != StateClosed {
		t.Errorf("state after first dispose = %v, want closed", c.State())
	}
	h.Dispose()
	if c.State() != StateClosed {
		t.Errorf("state after second dispose = %v, want closed", c.State())
	}
}

func TestDisposeFromFailedState(t *testing.T) {
	tr := &fakeTransport{ch: newFakeChannel(true), offerErr: errors.New("no ice")}
	c := newTestController(t, nil, tr)

	if _, err := c.Connect(context.Background()); err == nil {
		t.Fatal("expected connect failure")
	}
	if c.State() != StateFailed {
		t.Fatalf("state = %v, want failed", c.State())
	}

	c.Dispose()
	if c.State() != StateClosed {
		t.Errorf("state = %v, want closed", c.State())
	}
}

func TestDuplicateToolNamesRejected(t *testing.T) {
	ping := MustNewTool("ping", "", func(ctx context.Context, h *Handle, _ struct{}) (string, error) {
		return "pong", nil
	})
	_, err := NewController(&SessionConfig{Tools: []*Tool{ping, ping}})
	if err == nil {
		t.Fatal("expected duplicate tool name error")
	}
}

func TestToolCallScenario(t *testing.T) {
	clock := MustNewTool("get_current_time", "Returns the current time.",
		func(ctx context.Context, h *Handle, _ struct{}) (string, error) {
			return time.Now().Format(time.RFC3339), nil
		})

	tr := &fakeTransport{ch: newFakeChannel(true)}
	c := newTestController(t, &SessionConfig{Tools: []*Tool{clock}}, tr)

	h, err := c.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer h.Dispose()

	tr.ch.inject(`{"type":"tool_call","call_id":"call_1","name":"get_current_time","arguments":"{}"}`)
	c.disp.wait()

	frames := tr.ch.sentFrames()
	if len(frames) != 1 {
		t.Fatalf("sent %d frames, want exactly 1", len(frames))
	}
	var out Event
	if err := json.Unmarshal(frames[0], &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Type != EventTypeToolOutput || out.CallID != "call_1" {
		t.Errorf("output = %+v", out)
	}
	if _, err := time.Parse(time.RFC3339, out.Output); err != nil {
		t.Errorf("output %q is not a timestamp: %v", out.Output, err)
	}
}

func TestUnregisteredToolEmitsErrorOutput(t *testing.T) {
	tr := &fakeTransport{ch: newFakeChannel(true)}
	c := newTestController(t, nil, tr)

	h, err := c.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer h.Dispose()

	tr.ch.inject(`{"type":"tool_call","call_id":"call_9","name":"nope","arguments":"{}"}`)

	frames := tr.ch.sentFrames()
	if len(frames) != 1 {
		t.Fatalf("sent %d frames, want exactly 1", len(frames))
	}
	var out Event
	if err := json.Unmarshal(frames[0], &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Type != EventTypeToolOutput || out.CallID != "call_9" {
		t.Errorf("output = %+v", out)
	}
	if out.Error == nil || out.Error.Code != "tool_not_found" {
		t.Errorf("error = %+v", out.Error)
	}
	if c.State() != StateOpen {
		t.Errorf("state = %v, want open", c.State())
	}
}

func TestHandlerErrorKeepsSessionAlive(t *testing.T) {
	boom := MustNewTool("boom", "", func(ctx context.Context, h *Handle, _ struct{}) (string, error) {
		return "", errors.New("kaboom")
	})

	tr := &fakeTransport{ch: newFakeChannel(true)}
	c := newTestController(t, &SessionConfig{Tools: []*Tool{boom}}, tr)

	h, err := c.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer h.Dispose()

	done := make(chan []*Event)
	go func() {
		var got []*Event
		for e := range h.Events() {
			got = append(got, e)
			if len(got) == 2 {
				break
			}
		}
		done <- got
	}()
	waitUntil(t, func() bool {
		c.router.mu.Lock()
		defer c.router.mu.Unlock()
		return len(c.router.subs) == 1
	})

	tr.ch.inject(`{"type":"tool_call","call_id":"call_2","name":"boom","arguments":"{}"}`)
	c.disp.wait()
	tr.ch.inject(`{"type":"message","role":"assistant"}`)

	got := <-done
	if got[0].Type != EventTypeToolCall || got[1].Type != EventTypeMessage {
		t.Errorf("delivery order = %q, %q", got[0].Type, got[1].Type)
	}

	frames := tr.ch.sentFrames()
	if len(frames) != 1 {
		t.Fatalf("sent %d frames, want 1", len(frames))
	}
	var out Event
	json.Unmarshal(frames[0], &out)
	if out.Error == nil || out.Error.Code != "tool_execution_error" {
		t.Errorf("error = %+v", out.Error)
	}
	if c.State() != StateOpen {
		t.Errorf("state = %v, want open", c.State())
	}
}

func TestEventsMultiSubscriberOrder(t *testing.T) {
	tr := &fakeTransport{ch: newFakeChannel(true)}
	c := newTestController(t, nil, tr)

	h, err := c.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer h.Dispose()

	const n = 20
	results := make(chan []string, 2)
	for i := 0; i < 2; i++ {
		go func() {
			var got []string
			for e := range h.Events() {
				got = append(got, e.Delta)
				if len(got) == n {
					break
				}
			}
			results <- got
		}()
	}
	waitUntil(t, func() bool {
		c.router.mu.Lock()
		defer c.router.mu.Unlock()
		return len(c.router.subs) == 2
	})

	for i := 0; i < n; i++ {
		tr.ch.inject(fmt.Sprintf(`{"type":"response.text.delta","delta":"d%d"}`, i))
	}

	for s := 0; s < 2; s++ {
		got := <-results
		if len(got) != n {
			t.Fatalf("subscriber received %d events, want %d", len(got), n)
		}
		for i, delta := range got {
			if want := fmt.Sprintf("d%d", i); delta != want {
				t.Errorf("event %d: delta = %q, want %q", i, delta, want)
			}
		}
	}
}

func TestRemoteChannelCloseEndsSession(t *testing.T) {
	tr := &fakeTransport{ch: newFakeChannel(true)}
	c := newTestController(t, nil, tr)

	if _, err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	// Remote side closes the channel.
	tr.ch.Close()
	waitUntil(t, func() bool { return c.State() == StateClosed })

	if err := c.Send(NewUserMessage("hi")); !errors.Is(err, ErrNotOpen) {
		t.Errorf("send after remote close: err = %v, want ErrNotOpen", err)
	}
}
