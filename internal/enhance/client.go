// Package enhance asks a vision chat endpoint to improve heuristic design
// metadata and merges the answer over the baseline.
package enhance

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/starford/framelens/internal/apperr"
	"github.com/starford/framelens/internal/models"
)

// Defaults for the chat-completions request.
const (
	DefaultEndpoint  = "https://api.openai.com/v1/chat/completions"
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxTokens = 1000
	DefaultDetail    = "high"
	DefaultTimeout   = 60 * time.Second
)

const maxReplySize = 10 << 20

// ErrNoImage is returned when there is no rendered image to send.
var ErrNoImage = errors.New("enhance: no image to analyze")

// RemoteError is a non-success reply from the endpoint.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("enhance: remote status %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets errors.Is match apperr.ErrRemote.
func (e *RemoteError) Unwrap() error {
	return apperr.ErrRemote
}

// Config describes the endpoint and request parameters.
type Config struct {
	Endpoint  string
	Model     string
	MaxTokens int
	Detail    string
	Timeout   time.Duration
}

// Client calls the enhancement endpoint. It holds no credential; callers
// pass one per call.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Client. Zero-valued config fields take the package defaults.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Detail == "" {
		cfg.Detail = DefaultDetail
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enhance sends image and the fixed prompt to the endpoint and merges the
// reply over baseline. baseline is not modified.
func (c *Client) Enhance(ctx context.Context, image []byte, baseline models.DesignMetadata, credential string) (models.DesignMetadata, error) {
	if strings.TrimSpace(credential) == "" {
		return models.DesignMetadata{}, fmt.Errorf("enhance: %w", apperr.ErrMissingCredential)
	}
	if len(image) == 0 {
		return models.DesignMetadata{}, ErrNoImage
	}

	body, err := json.Marshal(c.buildRequest(image))
	if err != nil {
		return models.DesignMetadata{}, fmt.Errorf("enhance: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return models.DesignMetadata{}, fmt.Errorf("enhance: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return models.DesignMetadata{}, fmt.Errorf("enhance: send request: %w: %w", apperr.ErrRemote, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
	if err != nil {
		return models.DesignMetadata{}, fmt.Errorf("enhance: read reply: %w: %w", apperr.ErrRemote, err)
	}

	c.logger.Debug("enhance: reply received",
		slog.String("model", c.cfg.Model),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(raw)),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.DesignMetadata{}, remoteError(resp.StatusCode, raw)
	}

	content, err := replyContent(raw)
	if err != nil {
		return models.DesignMetadata{}, err
	}

	parsed, err := parseReply(content)
	if err != nil {
		return models.DesignMetadata{}, err
	}
	return Merge(baseline, parsed), nil
}

func (c *Client) buildRequest(image []byte) chatRequest {
	return chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: Prompt},
				{Type: "image_url", ImageURL: &imageURL{
					URL:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(image),
					Detail: c.cfg.Detail,
				}},
			},
		}},
		MaxTokens: c.cfg.MaxTokens,
	}
}

func remoteError(status int, raw []byte) error {
	msg := "enhancement request failed"
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Error != nil && er.Error.Message != "" {
		msg = er.Error.Message
	}
	return &RemoteError{StatusCode: status, Message: msg}
}

func replyContent(raw []byte) (string, error) {
	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("enhance: decode reply: %w: %w", apperr.ErrEmptyResponse, err)
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("enhance: no content in reply: %w", apperr.ErrEmptyResponse)
	}
	return cr.Choices[0].Message.Content, nil
}
