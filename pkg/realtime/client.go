package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	// DefaultBaseURL is the default HTTP endpoint for session negotiation.
	DefaultBaseURL = "https://api.openai.com/v1/realtime"

	// DefaultWebSocketURL is the default WebSocket endpoint.
	DefaultWebSocketURL = "wss://api.openai.com/v1/realtime"
)

// Negotiation is the result of the negotiation round trip: the remote
// session description plus optional session and credential metadata.
type Negotiation struct {
	// AnswerSDP is the remote session description.
	AnswerSDP string

	// SessionID is the server-assigned session id, if any.
	SessionID string

	// ClientSecret is the short-lived credential minted for this session.
	ClientSecret string

	// ExpiresAt is the credential expiry, if any.
	ExpiresAt int64
}

// Negotiator converts a local session description plus session configuration
// into a remote description.
type Negotiator interface {
	Negotiate(ctx context.Context, offerSDP string, cfg *SessionConfig) (*Negotiation, error)
}

// Client talks to the remote negotiation service over HTTP and builds
// session controllers bound to it.
type Client struct {
	config *clientConfig
}

type clientConfig struct {
	apiKey       string
	organization string
	project      string
	baseURL      string
	wsURL        string
	httpClient   *http.Client
}

// ClientOption configures the Client.
type ClientOption func(*clientConfig)

// NewClient creates a negotiation client. The apiKey is required.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	if apiKey == "" {
		panic("realtime: API key is required")
	}
	cfg := &clientConfig{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		wsURL:      DefaultWebSocketURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Client{config: cfg}
}

// WithOrganization sets the organization ID for API requests.
func WithOrganization(orgID string) ClientOption {
	return func(c *clientConfig) { c.organization = orgID }
}

// WithProject sets the project ID for API requests.
func WithProject(projectID string) ClientOption {
	return func(c *clientConfig) { c.project = projectID }
}

// WithBaseURL sets the HTTP URL for session negotiation.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) { c.baseURL = url }
}

// WithWebSocketURL sets the WebSocket URL.
func WithWebSocketURL(url string) ClientOption {
	return func(c *clientConfig) { c.wsURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *clientConfig) { c.httpClient = client }
}

// Connect builds a controller for cfg bound to this client's negotiation
// endpoint and performs the WebRTC handshake.
func (c *Client) Connect(ctx context.Context, cfg *SessionConfig, opts ...Option) (*Handle, error) {
	ctrl, err := NewController(cfg, append([]Option{WithNegotiator(c)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return ctrl.Connect(ctx)
}

// sessionResponse is the response from the session creation endpoint.
type sessionResponse struct {
	ID           string `json:"id"`
	Object       string `json:"object"`
	Model        string `json:"model"`
	ExpiresAt    int64  `json:"expires_at"`
	ClientSecret struct {
		Value     string `json:"value"`
		ExpiresAt int64  `json:"expires_at"`
	} `json:"client_secret"`
}

// Negotiate implements Negotiator: it mints a short-lived credential by
// submitting the session configuration, then exchanges the local description
// for the remote one.
func (c *Client) Negotiate(ctx context.Context, offerSDP string, cfg *SessionConfig) (*Negotiation, error) {
	if cfg == nil {
		cfg = &SessionConfig{}
	}
	model := cfg.Model
	if model == "" {
		model = ModelGPT4oRealtimePreview
	}

	sess, err := c.createSession(ctx, model, cfg)
	if err != nil {
		return nil, err
	}

	answer, err := c.exchangeSDP(ctx, sess.ClientSecret.Value, model, offerSDP)
	if err != nil {
		return nil, err
	}

	return &Negotiation{
		AnswerSDP:    answer,
		SessionID:    sess.ID,
		ClientSecret: sess.ClientSecret.Value,
		ExpiresAt:    sess.ClientSecret.ExpiresAt,
	}, nil
}

// createSession submits the session configuration, including the tool
// declarations, and returns the session with its short-lived credential.
func (c *Client) createSession(ctx context.Context, model string, cfg *SessionConfig) (*sessionResponse, error) {
	body := *cfg
	body.Model = model
	jsonBody, err := json.Marshal(&body)
	if err != nil {
		return nil, &NegotiationError{
			Code:    "session_creation_failed",
			Message: fmt.Sprintf("encode session config: %v", err),
			Err:     err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.baseURL+"/sessions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &NegotiationError{Code: "session_creation_failed", Message: err.Error(), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.config.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.config.organization != "" {
		req.Header.Set("OpenAI-Organization", c.config.organization)
	}
	if c.config.project != "" {
		req.Header.Set("OpenAI-Project", c.config.project)
	}

	resp, err := c.config.httpClient.Do(req)
	if err != nil {
		return nil, &NegotiationError{Code: "session_creation_failed", Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &NegotiationError{
			Code:       "session_creation_failed",
			Message:    fmt.Sprintf("failed to create session: %s", string(respBody)),
			HTTPStatus: resp.StatusCode,
		}
	}

	var sess sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, &NegotiationError{Code: "session_creation_failed", Message: err.Error(), Err: err}
	}
	return &sess, nil
}

// exchangeSDP sends the local description and returns the remote one.
func (c *Client) exchangeSDP(ctx context.Context, token, model, sdp string) (string, error) {
	url := fmt.Sprintf("%s?model=%s", c.config.baseURL, model)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader([]byte(sdp)))
	if err != nil {
		return "", &NegotiationError{Code: "sdp_exchange_failed", Message: err.Error(), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/sdp")

	resp, err := c.config.httpClient.Do(req)
	if err != nil {
		return "", &NegotiationError{Code: "sdp_exchange_failed", Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &NegotiationError{
			Code:       "sdp_exchange_failed",
			Message:    fmt.Sprintf("failed to exchange SDP: %s", string(respBody)),
			HTTPStatus: resp.StatusCode,
		}
	}

	answer, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NegotiationError{Code: "sdp_exchange_failed", Message: err.Error(), Err: err}
	}
	return string(answer), nil
}
