package realtime

import (
	"errors"
	"io"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"
)

// RemoteAudioTrack returns the remote audio track of a WebRTC session, or
// nil if the session is not WebRTC-backed or the track has not arrived yet.
func (h *Handle) RemoteAudioTrack() *webrtc.TrackRemote {
	if t, ok := h.Transport().(*WebRTCTransport); ok {
		return t.RemoteTrack()
	}
	return nil
}

// AddAudioTrack attaches a local audio track for sending audio over a WebRTC
// session.
func (h *Handle) AddAudioTrack(track *webrtc.TrackLocalStaticSample) error {
	t, ok := h.Transport().(*WebRTCTransport)
	if !ok {
		return errors.New("realtime: session has no WebRTC transport")
	}
	return t.AddAudioTrack(track)
}

// ReadRemoteAudio reads RTP packets from a remote track and hands each
// non-empty payload to fn, until the track ends or reading fails. It returns
// nil on a clean end of stream.
func ReadRemoteAudio(track *webrtc.TrackRemote, fn func(payload []byte, pkt *rtp.Packet)) error {
	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if len(pkt.Payload) == 0 {
			continue
		}
		fn(pkt.Payload, pkt)
	}
}
