package realtime

import "context"

// Transport creates the peer resources the controller drives during the
// handshake: a local session description, application of the remote answer,
// and a named reliable ordered channel. Implementations: WebRTCTransport
// (pion peer connection) and WebSocketTransport.
type Transport interface {
	// CreateOffer produces the local session description, blocking until it
	// is complete enough to submit for negotiation.
	CreateOffer(ctx context.Context) (string, error)

	// SetAnswer applies the remote session description received from the
	// negotiation service.
	SetAnswer(sdp string) error

	// CreateDataChannel creates the named reliable ordered channel. The
	// returned channel may not be open yet; readiness is signaled through
	// OnOpen.
	CreateDataChannel(label string) (DataChannel, error)

	// Close releases the transport.
	Close() error
}

// DataChannel is a reliable, ordered, bidirectional message channel carrying
// JSON control frames. Callback registration is not safe concurrently with
// delivery; the controller registers all callbacks before the channel opens.
type DataChannel interface {
	// OnOpen registers the readiness callback. If the channel is already
	// open, the callback is invoked immediately.
	OnOpen(func())

	// OnMessage registers the inbound frame callback. Frames are delivered
	// one at a time, in arrival order.
	OnMessage(func(data []byte))

	// OnClose registers the close callback.
	OnClose(func())

	// Send writes one frame to the channel.
	Send(data []byte) error

	// Close closes the channel.
	Close() error
}
