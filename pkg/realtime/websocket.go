package realtime

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// ConnectWebSocket establishes a WebSocket session instead of a WebRTC one.
// There is no description exchange in this mode; the session configuration
// (including tool declarations) is applied with a session.update once the
// connection is open. Suitable for server-side applications.
func (c *Client) ConnectWebSocket(ctx context.Context, cfg *SessionConfig, opts ...Option) (*Handle, error) {
	if cfg == nil {
		cfg = &SessionConfig{}
	}
	model := cfg.Model
	if model == "" {
		model = ModelGPT4oRealtimePreview
	}

	url := fmt.Sprintf("%s?model=%s", c.config.wsURL, model)

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.config.apiKey)
	headers.Set("OpenAI-Beta", "realtime=v1")
	if c.config.organization != "" {
		headers.Set("OpenAI-Organization", c.config.organization)
	}
	if c.config.project != "" {
		headers.Set("OpenAI-Project", c.config.project)
	}

	tr := &WebSocketTransport{
		dialCtx: ctx,
		url:     url,
		header:  headers,
		dialer: &websocket.Dialer{
			HandshakeTimeout: c.config.httpClient.Timeout,
		},
	}

	ctrl, err := NewController(cfg,
		append([]Option{WithNegotiator(noopNegotiator{}), WithTransport(tr)}, opts...)...)
	if err != nil {
		return nil, err
	}

	h, err := ctrl.Connect(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.UpdateSession(cfg); err != nil {
		h.Dispose()
		return nil, err
	}
	return h, nil
}

// noopNegotiator satisfies the controller's negotiation step for transports
// that carry no session description.
type noopNegotiator struct{}

func (noopNegotiator) Negotiate(ctx context.Context, offerSDP string, cfg *SessionConfig) (*Negotiation, error) {
	return &Negotiation{}, nil
}

// WebSocketTransport carries the control channel over a WebSocket
// connection. It has no session description; CreateOffer returns an empty
// description and SetAnswer is a no-op. The dial happens when the channel is
// created, and the channel opens immediately on success.
type WebSocketTransport struct {
	dialCtx context.Context
	url     string
	header  http.Header
	dialer  *websocket.Dialer

	mu        sync.Mutex
	conn      *websocket.Conn
	onMessage func([]byte)
	onClose   func()
	pending   [][]byte
	replaying bool
	readEnded bool
	closeOnce sync.Once
}

func (t *WebSocketTransport) CreateOffer(ctx context.Context) (string, error) {
	return "", nil
}

func (t *WebSocketTransport) SetAnswer(sdp string) error {
	return nil
}

func (t *WebSocketTransport) CreateDataChannel(label string) (DataChannel, error) {
	conn, resp, err := t.dialer.DialContext(t.dialCtx, t.url, t.header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: status %d: %w", t.url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", t.url, err)
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	ch := &wsChannel{t: t}
	go t.readLoop(conn)
	return ch, nil
}

func (t *WebSocketTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.mu.Lock()
		conn := t.conn
		t.mu.Unlock()
		if conn != nil {
			err = conn.Close()
		}
	})
	return err
}

// readLoop delivers inbound text frames in arrival order until the
// connection ends.
func (t *WebSocketTransport) readLoop(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			t.readEnded = true
			onClose := t.onClose
			t.mu.Unlock()
			if onClose != nil {
				onClose()
			}
			return
		}
		t.deliver(message)
	}
}

// deliver hands one inbound frame to the registered handler. Frames are
// buffered while no handler is registered, and also while a replay of
// buffered frames is still in progress, so the replaying goroutine remains
// the sole deliverer and arrival order is preserved.
func (t *WebSocketTransport) deliver(message []byte) {
	t.mu.Lock()
	if t.onMessage == nil || t.replaying {
		t.pending = append(t.pending, message)
		t.mu.Unlock()
		return
	}
	onMessage := t.onMessage
	t.mu.Unlock()
	onMessage(message)
}

// wsChannel presents the WebSocket connection as the session's control
// channel. The connection is already established when the channel is
// created, so OnOpen fires immediately.
type wsChannel struct {
	t       *WebSocketTransport
	writeMu sync.Mutex
}

func (c *wsChannel) OnOpen(f func()) { f() }

func (c *wsChannel) OnMessage(f func(data []byte)) {
	t := c.t
	t.mu.Lock()
	t.onMessage = f
	t.replaying = true
	for len(t.pending) > 0 {
		pending := t.pending
		t.pending = nil
		t.mu.Unlock()
		for _, frame := range pending {
			f(frame)
		}
		t.mu.Lock()
	}
	t.replaying = false
	t.mu.Unlock()
}

func (c *wsChannel) OnClose(f func()) {
	c.t.mu.Lock()
	c.t.onClose = f
	ended := c.t.readEnded
	c.t.mu.Unlock()
	if ended {
		f()
	}
}

func (c *wsChannel) Send(data []byte) error {
	c.t.mu.Lock()
	conn := c.t.conn
	c.t.mu.Unlock()
	if conn == nil {
		return ErrNotOpen
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsChannel) Close() error {
	return c.t.Close()
}

var _ Transport = (*WebSocketTransport)(nil)
