package realtime

import (
	"encoding/base64"
	"iter"
)

// Handle is the caller's reference to an open session. It exists from the
// moment the channel is confirmed open until Dispose; disposing it releases
// the transport and channel unconditionally.
type Handle struct {
	ctrl *Controller
}

// Send enqueues an event for transmission. Fails with ErrNotOpen once the
// session has left the Open state.
func (h *Handle) Send(e *Event) error { return h.ctrl.Send(e) }

// Events returns the ordered stream of inbound events. See Controller.Events.
func (h *Handle) Events() iter.Seq[*Event] { return h.ctrl.Events() }

// State returns the current connection state.
func (h *Handle) State() State { return h.ctrl.State() }

// SessionID returns the session id assigned by the negotiation service.
func (h *Handle) SessionID() string { return h.ctrl.SessionID() }

// Transport returns the underlying transport for mode-specific access.
func (h *Handle) Transport() Transport {
	h.ctrl.mu.Lock()
	defer h.ctrl.mu.Unlock()
	return h.ctrl.transport
}

// Dispose releases the transport and channel and transitions the session to
// StateClosed. Idempotent; safe from any state. In-flight tool executions
// run to completion and their late outputs are discarded.
func (h *Handle) Dispose() { h.ctrl.Dispose() }

// UpdateSession sends a session.update event carrying the given
// configuration.
func (h *Handle) UpdateSession(cfg *SessionConfig) error {
	return h.Send(&Event{Type: EventTypeSessionUpdate, Session: cfg})
}

// AddUserMessage adds a user text message to the conversation.
func (h *Handle) AddUserMessage(text string) error {
	return h.Send(NewUserMessage(text))
}

// SendToolOutput sends a tool_output event for the given correlation id.
// Tool outputs for registered handlers are sent automatically; this is for
// calls the application serves itself.
func (h *Handle) SendToolOutput(callID, output string) error {
	return h.Send(NewToolOutput(callID, output))
}

// CreateResponse requests the model to generate a response. Pass nil for
// default options.
func (h *Handle) CreateResponse(r *Response) error {
	return h.Send(NewResponseCreate(r))
}

// CancelResponse cancels the current response generation.
func (h *Handle) CancelResponse() error {
	return h.Send(&Event{Type: EventTypeResponseCancel})
}

// AppendAudio appends PCM audio data to the input audio buffer. The audio is
// base64 encoded before sending. For WebRTC sessions, prefer streaming over
// the media track.
func (h *Handle) AppendAudio(audio []byte) error {
	return h.AppendAudioBase64(base64.StdEncoding.EncodeToString(audio))
}

// AppendAudioBase64 appends base64-encoded audio data to the input buffer.
func (h *Handle) AppendAudioBase64(audioBase64 string) error {
	return h.Send(&Event{Type: EventTypeInputAudioBufferAppend, Audio: audioBase64})
}

// CommitInput commits the audio buffer and creates a user message.
func (h *Handle) CommitInput() error {
	return h.Send(&Event{Type: EventTypeInputAudioBufferCommit})
}

// ClearInput clears the input audio buffer without creating a message.
func (h *Handle) ClearInput() error {
	return h.Send(&Event{Type: EventTypeInputAudioBufferClear})
}
