package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Client event types (sent from client to server).
const (
	// Session events
	EventTypeSessionUpdate = "session.update"

	// Input audio buffer events
	EventTypeInputAudioBufferAppend = "input_audio_buffer.append"
	EventTypeInputAudioBufferCommit = "input_audio_buffer.commit"
	EventTypeInputAudioBufferClear  = "input_audio_buffer.clear"

	// Conversation item events
	EventTypeConversationItemCreate   = "conversation.item.create"
	EventTypeConversationItemTruncate = "conversation.item.truncate"
	EventTypeConversationItemDelete   = "conversation.item.delete"

	// Response events
	EventTypeResponseCreate = "response.create"
	EventTypeResponseCancel = "response.cancel"

	// Tool call output (correlated reply to a tool_call event)
	EventTypeToolOutput = "tool_output"
)

// Server event types (sent from server to client).
const (
	// Error event
	EventTypeError = "error"

	// Session events
	EventTypeSessionCreated = "session.created"
	EventTypeSessionUpdated = "session.updated"

	// Conversation events
	EventTypeConversationItemCreated = "conversation.item.created"
	EventTypeConversationItemDeleted = "conversation.item.deleted"

	// Message item event (role + content + delivery status)
	EventTypeMessage = "message"

	// Tool call invocation (correlation id + tool name + serialized arguments)
	EventTypeToolCall = "tool_call"

	// Input audio buffer events
	EventTypeInputAudioBufferCommitted     = "input_audio_buffer.committed"
	EventTypeInputAudioBufferCleared       = "input_audio_buffer.cleared"
	EventTypeInputAudioBufferSpeechStarted = "input_audio_buffer.speech_started"
	EventTypeInputAudioBufferSpeechStopped = "input_audio_buffer.speech_stopped"

	// Response events
	EventTypeResponseCreated = "response.created"
	EventTypeResponseDone    = "response.done"

	// Response text events
	EventTypeResponseTextDelta = "response.text.delta"
	EventTypeResponseTextDone  = "response.text.done"

	// Response audio events
	EventTypeResponseAudioDelta = "response.audio.delta"
	EventTypeResponseAudioDone  = "response.audio.done"

	// Response audio transcript events
	EventTypeResponseAudioTranscriptDelta = "response.audio_transcript.delta"
	EventTypeResponseAudioTranscriptDone  = "response.audio_transcript.done"
)

var knownEventTypes = map[string]bool{
	EventTypeSessionUpdate:                 true,
	EventTypeInputAudioBufferAppend:        true,
	EventTypeInputAudioBufferCommit:        true,
	EventTypeInputAudioBufferClear:         true,
	EventTypeConversationItemCreate:        true,
	EventTypeConversationItemTruncate:      true,
	EventTypeConversationItemDelete:        true,
	EventTypeResponseCreate:                true,
	EventTypeResponseCancel:                true,
	EventTypeToolOutput:                    true,
	EventTypeError:                         true,
	EventTypeSessionCreated:                true,
	EventTypeSessionUpdated:                true,
	EventTypeConversationItemCreated:       true,
	EventTypeConversationItemDeleted:       true,
	EventTypeMessage:                       true,
	EventTypeToolCall:                      true,
	EventTypeInputAudioBufferCommitted:     true,
	EventTypeInputAudioBufferCleared:       true,
	EventTypeInputAudioBufferSpeechStarted: true,
	EventTypeInputAudioBufferSpeechStopped: true,
	EventTypeResponseCreated:               true,
	EventTypeResponseDone:                  true,
	EventTypeResponseTextDelta:             true,
	EventTypeResponseTextDone:              true,
	EventTypeResponseAudioDelta:            true,
	EventTypeResponseAudioDone:             true,
	EventTypeResponseAudioTranscriptDelta:  true,
	EventTypeResponseAudioTranscriptDone:   true,
}

// Event is a wire event exchanged over the session channel. The union is keyed
// by Type; fields not used by a given type stay zero and are omitted from the
// wire form. Unrecognized types decode into a generic Event with the original
// frame preserved in Raw, so unknown kinds round-trip opaquely.
type Event struct {
	// Type is the event discriminator.
	Type string `json:"type"`

	// EventID is the unique identifier for this event. Outbound events are
	// stamped automatically if left empty.
	EventID string `json:"event_id,omitzero"`

	// Session carries session configuration or state
	// (session.update, session.created, session.updated).
	Session *SessionConfig `json:"session,omitzero"`

	// Item carries a conversation item (conversation.item.* events).
	Item *Item `json:"item,omitzero"`

	// Response carries response configuration or state (response.* events).
	Response *Response `json:"response,omitzero"`

	// === Message item events ===

	// Role is the message author role.
	Role string `json:"role,omitzero"`

	// Content is the list of message content parts.
	Content []ContentPart `json:"content,omitzero"`

	// Status is the delivery status of the item.
	Status string `json:"status,omitzero"`

	// === Tool call events ===

	// CallID is the correlation id linking a tool_call to its tool_output.
	CallID string `json:"call_id,omitzero"`

	// Name is the tool name.
	Name string `json:"name,omitzero"`

	// Arguments is the serialized JSON arguments for the tool.
	Arguments string `json:"arguments,omitzero"`

	// Output is the textual tool result.
	Output string `json:"output,omitzero"`

	// Error carries error details for error and tool_output events.
	Error *EventError `json:"error,omitzero"`

	// === Audio buffer events ===

	// Audio is base64-encoded audio for input_audio_buffer.append.
	Audio string `json:"audio,omitzero"`

	// AudioStartMs is the speech start time (speech_started).
	AudioStartMs int `json:"audio_start_ms,omitzero"`

	// AudioEndMs is the speech end time (speech_stopped, truncate).
	AudioEndMs int `json:"audio_end_ms,omitzero"`

	// === Delta / item reference events ===

	// Delta is the incremental text, transcript or base64 audio payload.
	Delta string `json:"delta,omitzero"`

	// Transcript is a completed transcript (response.audio_transcript.done).
	Transcript string `json:"transcript,omitzero"`

	// ItemID references a conversation item.
	ItemID string `json:"item_id,omitzero"`

	// ContentIndex is the index of the content part.
	ContentIndex int `json:"content_index,omitzero"`

	// ResponseID references a response.
	ResponseID string `json:"response_id,omitzero"`

	// OutputIndex is the index of the output item.
	OutputIndex int `json:"output_index,omitzero"`

	// Raw is the original JSON frame for inbound events.
	Raw []byte `json:"-"`
}

// Known reports whether the event type is one this package recognizes.
func (e *Event) Known() bool { return knownEventTypes[e.Type] }

var errMissingType = errors.New("realtime: frame missing event type")

// parseEvent decodes an inbound channel frame. Frames that are not valid JSON
// or lack the type discriminator are rejected; unrecognized type values are
// not an error.
func parseEvent(frame []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(frame, &e); err != nil {
		return nil, fmt.Errorf("realtime: parse frame: %w", err)
	}
	if e.Type == "" {
		return nil, errMissingType
	}
	e.Raw = frame
	return &e, nil
}

// encodeEvent produces the wire form of an outbound event. Unknown event
// types are forwarded verbatim from their preserved raw frame.
func encodeEvent(e *Event) ([]byte, error) {
	if !e.Known() && e.Raw != nil {
		return e.Raw, nil
	}
	return json.Marshal(e)
}

// generateEventID generates a unique event ID.
func generateEventID() string {
	return "evt_" + uuid.New().String()[:12]
}

// NewToolOutput builds a tool_output event carrying a successful result for
// the given correlation id.
func NewToolOutput(callID, output string) *Event {
	return &Event{
		Type:   EventTypeToolOutput,
		CallID: callID,
		Output: output,
	}
}

// NewToolErrorOutput builds an error-tagged tool_output event for the given
// correlation id.
func NewToolErrorOutput(callID, code string, err error) *Event {
	return &Event{
		Type:   EventTypeToolOutput,
		CallID: callID,
		Error: &EventError{
			Type:    "tool_error",
			Code:    code,
			Message: err.Error(),
		},
	}
}

// NewUserMessage builds a conversation.item.create event with a user text
// message.
func NewUserMessage(text string) *Event {
	return &Event{
		Type: EventTypeConversationItemCreate,
		Item: &Item{
			Type: ItemTypeMessage,
			Role: RoleUser,
			Content: []ContentPart{
				{Type: ContentTypeInputText, Text: text},
			},
		},
	}
}

// NewResponseCreate builds a response.create event. Pass nil for default
// options.
func NewResponseCreate(r *Response) *Event {
	return &Event{Type: EventTypeResponseCreate, Response: r}
}
