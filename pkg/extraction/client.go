package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/huddleplan/huddle-pipeline/internal/domain/entities"
	"github.com/huddleplan/huddle-pipeline/pkg/config"
)

// Client is a minimal client for the structured-extraction service. The
// service turns one turn's audio (and optional transcript text) into an
// ordered list of edit actions plus a conversation continuation token.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates an extraction client using values from the provided
// config. Pass a nil config to fall back to environment variables.
func NewClient(cfg *config.ExtractionConfig) *Client {
	var apiKey string
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("EXTRACTION_API_KEY")
	}

	var base string
	if cfg != nil && cfg.BaseURL != "" {
		base = cfg.BaseURL
	} else {
		base = os.Getenv("EXTRACTION_BASE_URL")
	}

	timeout := 45 * time.Second
	if cfg != nil && cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &Client{
		apiKey:  apiKey,
		baseURL: base,
		client:  &http.Client{Timeout: timeout},
	}
}

// KnownItem tells the extraction service which conversation-scoped keys are
// already addressable, so follow-up turns can reference earlier items.
type KnownItem struct {
	ItemKey string            `json:"item_key"`
	Kind    entities.ItemKind `json:"kind"`
	Text    string            `json:"text"`
}

// Request is the payload for /v1/extract
type Request struct {
	HuddleID          string      `json:"huddle_id"`
	SpeakerID         string      `json:"speaker_id"`
	SpeakerLabel      string      `json:"speaker_label,omitempty"`
	Clip              []byte      `json:"-"`
	MimeType          string      `json:"mime_type"`
	Transcript        string      `json:"transcript,omitempty"`
	KnownItemKeys     []KnownItem `json:"known_item_keys,omitempty"`
	ConversationToken string      `json:"conversation_token,omitempty"`
}

// requestWire is Request with the clip encoded for the JSON body
type requestWire struct {
	Request
	ClipBase64 string `json:"clip"`
}

// Response is the extraction result. ConversationToken is opaque; it is
// handed back verbatim on the next call for the same session.
type Response struct {
	Actions           []entities.EditAction `json:"actions"`
	Rationale         string                `json:"rationale,omitempty"`
	ConversationToken string                `json:"conversation_token"`
}

// ExtractActions sends a finished turn to the extraction service. The call
// is slow and fallible; failures propagate as errors and nothing is
// partially applied.
func (c *Client) ExtractActions(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || len(req.Clip) == 0 {
		return nil, fmt.Errorf("extraction request requires a clip")
	}

	wire := requestWire{
		Request:    *req,
		ClipBase64: base64.StdEncoding.EncodeToString(req.Clip),
	}
	b, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/v1/extract"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("extraction service returned status %d", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	for i := range out.Actions {
		if err := out.Actions[i].Validate(); err != nil {
			return nil, fmt.Errorf("extraction returned malformed action %d: %w", i, err)
		}
	}
	return &out, nil
}
