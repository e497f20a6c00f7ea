package realtime

// Models supported by the realtime endpoint.
const (
	// ModelGPT4oRealtimePreview is the GPT-4o realtime preview model.
	ModelGPT4oRealtimePreview = "gpt-4o-realtime-preview"
	// ModelGPT4oMiniRealtimePreview is the GPT-4o mini realtime preview model.
	ModelGPT4oMiniRealtimePreview = "gpt-4o-mini-realtime-preview"
)

// Audio formats.
const (
	// AudioFormatPCM16 is 16-bit PCM audio at 24kHz, mono, little-endian.
	AudioFormatPCM16 = "pcm16"
	// AudioFormatG711ULaw is G.711 u-law audio at 8kHz.
	AudioFormatG711ULaw = "g711_ulaw"
	// AudioFormatG711ALaw is G.711 A-law audio at 8kHz.
	AudioFormatG711ALaw = "g711_alaw"
)

// Voice options for audio output.
const (
	VoiceAlloy   = "alloy"
	VoiceAsh     = "ash"
	VoiceCoral   = "coral"
	VoiceEcho    = "echo"
	VoiceSage    = "sage"
	VoiceShimmer = "shimmer"
	VoiceVerse   = "verse"
)

// Modality types.
const (
	ModalityText  = "text"
	ModalityAudio = "audio"
)

// Tool choice policies.
const (
	ToolChoiceAuto     = "auto"
	ToolChoiceNone     = "none"
	ToolChoiceRequired = "required"
)

// VAD modes for turn detection.
const (
	// VADServerVAD enables server-side voice activity detection.
	VADServerVAD = "server_vad"
	// VADSemanticVAD enables semantic voice activity detection.
	VADSemanticVAD = "semantic_vad"
)

// Item types.
const (
	ItemTypeMessage    = "message"
	ItemTypeToolCall   = "tool_call"
	ItemTypeToolOutput = "tool_output"
)

// Roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Content part types.
const (
	ContentTypeInputText  = "input_text"
	ContentTypeInputAudio = "input_audio"
	ContentTypeText       = "text"
	ContentTypeAudio      = "audio"
)

// SessionConfig describes a session: model choice, instructions, modality
// selection, registered tools, tool-choice policy, sampling parameters,
// tracing and credential lifetime hints. It is created by the caller before
// Connect and never mutated afterwards. The same shape carries session state
// on inbound session.created/session.updated events.
type SessionConfig struct {
	// ID is the server-assigned session id (inbound only).
	ID string `json:"id,omitzero"`

	// Object is the resource kind (inbound only).
	Object string `json:"object,omitzero"`

	// ExpiresAt is the session expiry (inbound only).
	ExpiresAt int64 `json:"expires_at,omitzero"`

	// Model is the model ID to use.
	// Default: gpt-4o-realtime-preview
	Model string `json:"model,omitzero"`

	// Modalities specifies the output modalities.
	// Default: ["text", "audio"]
	Modalities []string `json:"modalities,omitzero"`

	// Instructions is the system prompt.
	Instructions string `json:"instructions,omitzero"`

	// Voice is the voice ID for audio output.
	Voice string `json:"voice,omitzero"`

	// InputAudioFormat specifies the input audio format.
	// Default: pcm16
	InputAudioFormat string `json:"input_audio_format,omitzero"`

	// OutputAudioFormat specifies the output audio format.
	// Default: pcm16
	OutputAudioFormat string `json:"output_audio_format,omitzero"`

	// InputAudioTranscription configures input audio transcription.
	InputAudioTranscription *TranscriptionConfig `json:"input_audio_transcription,omitzero"`

	// TurnDetection configures voice activity detection.
	TurnDetection *TurnDetection `json:"turn_detection,omitzero"`

	// Tools are the handlers registered for this session. Names must be
	// unique; the set is immutable for the session's lifetime. On the wire
	// each tool is declared as {type, name, description, parameters}.
	Tools []*Tool `json:"tools,omitzero"`

	// ToolChoice specifies how the model should use tools.
	// Can be a string ("auto", "none", "required") or an object:
	//   {"type": "function", "name": "my_function"}
	ToolChoice any `json:"tool_choice,omitzero"`

	// Temperature controls randomness (0.6-1.2).
	// Default: 0.8
	Temperature *float64 `json:"temperature,omitzero"`

	// MaxOutputTokens limits the output length.
	MaxOutputTokens *int `json:"max_response_output_tokens,omitzero"`

	// Speed adjusts the model's speaking speed.
	Speed float64 `json:"speed,omitzero"`

	// Tracing configures tracing. Can be "auto" or a configuration object.
	Tracing any `json:"tracing,omitzero"`

	// ExpiresAfter hints the desired lifetime of the short-lived credential
	// minted during negotiation.
	ExpiresAfter *ExpiresAfter `json:"expires_after,omitzero"`

	// ClientSecret is the short-lived credential (inbound only).
	ClientSecret *ClientSecret `json:"client_secret,omitzero"`
}

// TranscriptionConfig configures input audio transcription.
type TranscriptionConfig struct {
	// Model is the transcription model to use.
	// Default: whisper-1
	Model string `json:"model,omitzero"`
}

// TurnDetection configures voice activity detection.
type TurnDetection struct {
	// Type is the VAD mode: "server_vad" or "semantic_vad".
	Type string `json:"type,omitzero"`

	// Threshold is the VAD sensitivity (0.0-1.0).
	Threshold float64 `json:"threshold,omitzero"`

	// PrefixPaddingMs is the padding before speech start (ms).
	PrefixPaddingMs int `json:"prefix_padding_ms,omitzero"`

	// SilenceDurationMs is the silence duration to detect end of speech (ms).
	SilenceDurationMs int `json:"silence_duration_ms,omitzero"`

	// CreateResponse specifies whether to automatically create a response
	// when VAD detects end of speech.
	CreateResponse *bool `json:"create_response,omitzero"`

	// InterruptResponse specifies whether to interrupt the current response
	// when the user starts speaking.
	InterruptResponse *bool `json:"interrupt_response,omitzero"`
}

// ExpiresAfter is a credential lifetime hint sent with the negotiation
// request.
type ExpiresAfter struct {
	// Anchor is the reference point for the lifetime ("created_at").
	Anchor string `json:"anchor,omitzero"`

	// Seconds is the lifetime in seconds.
	Seconds int `json:"seconds,omitzero"`
}

// ClientSecret is the short-lived credential returned by the negotiation
// service.
type ClientSecret struct {
	Value     string `json:"value,omitzero"`
	ExpiresAt int64  `json:"expires_at,omitzero"`
}

// Item is a conversation item: a message, a tool call or a tool output.
type Item struct {
	ID        string        `json:"id,omitzero"`
	Type      string        `json:"type,omitzero"`
	Status    string        `json:"status,omitzero"`
	Role      string        `json:"role,omitzero"`
	Content   []ContentPart `json:"content,omitzero"`
	CallID    string        `json:"call_id,omitzero"`
	Name      string        `json:"name,omitzero"`
	Arguments string        `json:"arguments,omitzero"`
	Output    string        `json:"output,omitzero"`
}

// ContentPart is a part of message content.
type ContentPart struct {
	Type       string `json:"type,omitzero"`
	Text       string `json:"text,omitzero"`
	Audio      string `json:"audio,omitzero"` // base64 encoded
	Transcript string `json:"transcript,omitzero"`
}

// Response carries response configuration on response.create and response
// state on response.created/response.done.
type Response struct {
	ID string `json:"id,omitzero"`

	// Status is "in_progress", "completed", "cancelled", "incomplete" or
	// "failed" (inbound only).
	Status string `json:"status,omitzero"`

	// Modalities overrides the output modalities for this response.
	Modalities []string `json:"modalities,omitzero"`

	// Instructions overrides the system prompt for this response.
	Instructions string `json:"instructions,omitzero"`

	// Voice overrides the voice for this response.
	Voice string `json:"voice,omitzero"`

	// OutputAudioFormat overrides the audio format for this response.
	OutputAudioFormat string `json:"output_audio_format,omitzero"`

	// Tools overrides the tool declarations for this response.
	Tools []*Tool `json:"tools,omitzero"`

	// ToolChoice overrides the tool-choice policy for this response.
	ToolChoice any `json:"tool_choice,omitzero"`

	// Temperature overrides the sampling temperature for this response.
	Temperature *float64 `json:"temperature,omitzero"`

	// MaxOutputTokens limits the output length for this response.
	MaxOutputTokens *int `json:"max_output_tokens,omitzero"`

	// Input provides message items directly instead of using the
	// conversation buffer.
	Input []Item `json:"input,omitzero"`

	// Output contains the generated items (inbound only).
	Output []Item `json:"output,omitzero"`

	// Usage contains token usage (inbound only).
	Usage *Usage `json:"usage,omitzero"`
}

// Usage contains token usage information.
type Usage struct {
	TotalTokens  int `json:"total_tokens,omitzero"`
	InputTokens  int `json:"input_tokens,omitzero"`
	OutputTokens int `json:"output_tokens,omitzero"`
}
