// Package llm provides a minimal client for OpenAI-compatible
// chat-completions gateways. The insight service is its only consumer; it
// sends a system+user prompt pair and reads back the first choice's content.
package llm

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Message is a single chat message.
type Message struct {
	Role    string
	Content string
}

// Client produces a completion for a conversation.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Config holds the gateway connection settings.
type Config struct {
	// BaseURL is the gateway root, e.g. https://api.example.com/v1.
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// HTTPClient implements Client against an OpenAI-compatible HTTP gateway.
type HTTPClient struct {
	cfg Config
	hc  *http.Client
}

// NewHTTPClient creates a client with the given configuration.
func NewHTTPClient(cfg Config) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		cfg: cfg,
		hc:  &http.Client{Timeout: timeout},
	}
}

// Complete posts the conversation to /chat/completions and returns the
// content of the first choice.
func (c *HTTPClient) Complete(ctx context.Context, messages []Message) (string, error) {
	body := encodeRequest(c.cfg.Model, messages)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "post chat completion")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("chat completion: unexpected status %d", resp.StatusCode)
	}

	content, err := decodeContent(raw)
	if err != nil {
		return "", errors.Wrap(err, "decode response")
	}
	return content, nil
}

func encodeRequest(model string, messages []Message) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("model")
	e.Str(model)
	e.FieldStart("messages")
	e.ArrStart()
	for _, m := range messages {
		e.ObjStart()
		e.FieldStart("role")
		e.Str(m.Role)
		e.FieldStart("content")
		e.Str(m.Content)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
	return e.Bytes()
}

// decodeContent extracts choices[0].message.content.
func decodeContent(raw []byte) (string, error) {
	var content string
	found := false

	d := jx.DecodeBytes(raw)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "choices" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			if found {
				return d.Skip()
			}
			return d.Obj(func(d *jx.Decoder, key string) error {
				if key != "message" {
					return d.Skip()
				}
				return d.Obj(func(d *jx.Decoder, key string) error {
					if key != "content" {
						return d.Skip()
					}
					s, err := d.Str()
					if err != nil {
						return err
					}
					content = s
					found = true
					return nil
				})
			})
		})
	}); err != nil {
		return "", err
	}

	if !found {
		return "", errors.New("no choices in response")
	}
	return content, nil
}
