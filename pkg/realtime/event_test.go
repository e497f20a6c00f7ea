package realtime

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestEventRoundTrip(t *testing.T) {
	temp := 0.7
	events := map[string]*Event{
		"tool_call": {
			Type:      EventTypeToolCall,
			CallID:    "call_1",
			Name:      "get_weather",
			Arguments: `{"city":"Oslo"}`,
		},
		"tool_output": {
			Type:   EventTypeToolOutput,
			CallID: "call_1",
			Output: "sunny",
		},
		"tool_output_error": {
			Type:   EventTypeToolOutput,
			CallID: "call_2",
			Error:  &EventError{Type: "tool_error", Code: "tool_not_found", Message: "no such tool"},
		},
		"message": {
			Type:    EventTypeMessage,
			Role:    RoleAssistant,
			Status:  "completed",
			Content: []ContentPart{{Type: ContentTypeText, Text: "hello"}},
		},
		"response.create": {
			Type: EventTypeResponseCreate,
			Response: &Response{
				Modalities:  []string{ModalityText},
				Temperature: &temp,
				Input: []Item{
					{
						Type: ItemTypeMessage,
						Role: RoleUser,
						Content: []ContentPart{
							{Type: ContentTypeInputText, Text: "hi"},
						},
					},
				},
			},
		},
		"session.update": {
			Type: EventTypeSessionUpdate,
			Session: &SessionConfig{
				Model:        ModelGPT4oRealtimePreview,
				Instructions: "be brief",
				Modalities:   []string{ModalityText, ModalityAudio},
			},
		},
		"input_audio_buffer.append": {
			Type:  EventTypeInputAudioBufferAppend,
			Audio: "AAAA",
		},
		"response.text.delta": {
			Type:       EventTypeResponseTextDelta,
			ResponseID: "resp_1",
			ItemID:     "item_1",
			Delta:      "hel",
		},
		"error": {
			Type:  EventTypeError,
			Error: &EventError{Type: "invalid_request_error", Message: "bad"},
		},
	}

	for name, e := range events {
		t.Run(name, func(t *testing.T) {
			frame, err := json.Marshal(e)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			parsed, err := parseEvent(frame)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !parsed.Known() {
				t.Errorf("Known() = false for %q", parsed.Type)
			}
			again, err := encodeEvent(parsed)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if !bytes.Equal(frame, again) {
				t.Errorf("round trip mismatch:\n  sent: %s\n  got:  %s", frame, again)
			}
		})
	}
}

func TestParseEventUnknownType(t *testing.T) {
	frame := []byte(`{"type":"rate_limits.updated","rate_limits":[{"name":"requests","limit":100}]}`)
	e, err := parseEvent(frame)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if e.Type != "rate_limits.updated" {
		t.Errorf("Type = %q", e.Type)
	}
	if e.Known() {
		t.Error("Known() should be false for an unrecognized type")
	}
	if !bytes.Equal(e.Raw, frame) {
		t.Errorf("Raw not preserved: %s", e.Raw)
	}

	// Unknown events forward opaquely.
	out, err := encodeEvent(e)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(out, frame) {
		t.Errorf("unknown event not forwarded verbatim: %s", out)
	}
}

func TestParseEventMalformed(t *testing.T) {
	if _, err := parseEvent([]byte("not json")); err == nil {
		t.Error("expected error for non-JSON frame")
	}
	if _, err := parseEvent([]byte(`{"event_id":"evt_1"}`)); err == nil {
		t.Error("expected error for frame without type")
	}
	if _, err := parseEvent([]byte(`{"type":""}`)); err == nil {
		t.Error("expected error for empty type")
	}
}

func TestGenerateEventID(t *testing.T) {
	a, b := generateEventID(), generateEventID()
	if a == b {
		t.Errorf("event ids should be unique: %q", a)
	}
	if len(a) != len("evt_")+12 {
		t.Errorf("unexpected id format: %q", a)
	}
}
