package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v3"
)

// WebRTCTransport is the peer-connection transport. It is created with a
// recvonly audio transceiver so the remote side can stream audio, and
// exposes the remote track and local track attachment for callers that
// bridge media.
type WebRTCTransport struct {
	pc *webrtc.PeerConnection

	mu          sync.Mutex
	remoteTrack *webrtc.TrackRemote
	localTrack  *webrtc.TrackLocalStaticSample
}

// NewWebRTCTransport creates a peer connection. Pass nil for the default
// configuration (a public STUN server).
func NewWebRTCTransport(cfg *webrtc.Configuration) (*WebRTCTransport, error) {
	if cfg == nil {
		cfg = &webrtc.Configuration{
			ICEServers: []webrtc.ICEServer{
				{URLs: []string{"stun:stun.l.google.com:19302"}},
			},
		}
	}

	pc, err := webrtc.NewPeerConnection(*cfg)
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	t := &WebRTCTransport{pc: pc}

	_, err = pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	})
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("add audio transceiver: %w", err)
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		if track.Kind() == webrtc.RTPCodecTypeAudio {
			t.mu.Lock()
			t.remoteTrack = track
			t.mu.Unlock()
		}
	})

	return t, nil
}

// CreateOffer produces the local description, waiting for ICE gathering to
// complete so the description can be submitted in a single round trip.
func (t *WebRTCTransport) CreateOffer(ctx context.Context) (string, error) {
	offer, err := t.pc.CreateOffer(nil)
	if err != nil {
		return "", fmt.Errorf("create offer: %w", err)
	}
	if err := t.pc.SetLocalDescription(offer); err != nil {
		return "", fmt.Errorf("set local description: %w", err)
	}

	select {
	case <-webrtc.GatheringCompletePromise(t.pc):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return t.pc.LocalDescription().SDP, nil
}

// SetAnswer applies the remote description.
func (t *WebRTCTransport) SetAnswer(sdp string) error {
	return t.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  sdp,
	})
}

// CreateDataChannel creates the named reliable ordered channel.
func (t *WebRTCTransport) CreateDataChannel(label string) (DataChannel, error) {
	dc, err := t.pc.CreateDataChannel(label, nil)
	if err != nil {
		return nil, fmt.Errorf("create data channel: %w", err)
	}
	return &webrtcChannel{dc: dc}, nil
}

// Close releases the peer connection.
func (t *WebRTCTransport) Close() error {
	return t.pc.Close()
}

// RemoteTrack returns the remote audio track, or nil if it has not been
// received yet.
func (t *WebRTCTransport) RemoteTrack() *webrtc.TrackRemote {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remoteTrack
}

// AddAudioTrack adds a local audio track for sending audio. This is the
// preferred way to send audio over WebRTC.
func (t *WebRTCTransport) AddAudioTrack(track *webrtc.TrackLocalStaticSample) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.localTrack != nil {
		return fmt.Errorf("local audio track already added")
	}
	if _, err := t.pc.AddTrack(track); err != nil {
		return err
	}
	t.localTrack = track
	return nil
}

// PeerConnection returns the underlying peer connection.
func (t *WebRTCTransport) PeerConnection() *webrtc.PeerConnection {
	return t.pc
}

// webrtcChannel adapts a pion data channel to the DataChannel boundary.
type webrtcChannel struct {
	dc *webrtc.DataChannel
}

func (c *webrtcChannel) OnOpen(f func()) {
	if c.dc.ReadyState() == webrtc.DataChannelStateOpen {
		f()
		return
	}
	c.dc.OnOpen(f)
}

func (c *webrtcChannel) OnMessage(f func(data []byte)) {
	c.dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		f(msg.Data)
	})
}

func (c *webrtcChannel) OnClose(f func()) {
	c.dc.OnClose(f)
}

func (c *webrtcChannel) Send(data []byte) error {
	if c.dc.ReadyState() != webrtc.DataChannelStateOpen {
		return ErrNotOpen
	}
	return c.dc.Send(data)
}

func (c *webrtcChannel) Close() error {
	return c.dc.Close()
}

var _ Transport = (*WebRTCTransport)(nil)
