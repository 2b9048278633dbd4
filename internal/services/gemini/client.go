package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"systemqa/internal/services"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-1.5-pro"

	defaultHTTPTimeout = 60 * time.Second
)

// Config captures the runtime settings required to talk to Gemini.
type Config struct {
	APIKey string
	// BaseURL overrides the SDK endpoint; empty uses the public API.
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client wraps the genai SDK's Models service.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
	retry   retryPolicy

	once   sync.Once
	sdk    *genai.Client
	sdkErr error
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client handed to the SDK.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetryMaxAttempts sets the total number of tries per call.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) { c.retry.attempts = attempts }
}

// WithRetryBackoff sets the first and the largest wait between tries.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retry.base = baseDelay
		c.retry.ceiling = maxDelay
	}
}

// WithSleeper replaces the timer used between tries.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) { c.retry.sleep = sleeper }
}

// NewClient constructs a Gemini client using the supplied configuration. The
// SDK client is created on first use.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		model:   cmpOr(strings.TrimSpace(cfg.Model), DefaultModel),
		http:    &http.Client{Timeout: timeout},
		retry:   defaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func cmpOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

func (c *Client) models(ctx context.Context) (*genai.Models, error) {
	c.once.Do(func() {
		cc := &genai.ClientConfig{
			APIKey:     c.apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: c.http,
		}
		if c.baseURL != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL + "/"}
		}
		c.sdk, c.sdkErr = genai.NewClient(ctx, cc)
	})
	if c.sdkErr != nil {
		return nil, fmt.Errorf("gemini client: %w", c.sdkErr)
	}
	return c.sdk.Models, nil
}

// emptyContentError is a successful reply with no usable candidate text.
type emptyContentError struct {
	FinishReason string
	BlockReason  string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	if e.BlockReason != "" {
		return "gemini response blocked: " + e.BlockReason
	}
	return fmt.Sprintf("gemini response had no text (finish_reason=%q): %s", e.FinishReason, e.Snippet)
}

// IsBlocked reports whether err came from a prompt the model refused to answer.
func IsBlocked(err error) bool {
	var empty *emptyContentError
	return errors.As(err, &empty) && empty.BlockReason != ""
}

// GenerateContent sends one generateContent request and returns the text of
// the first candidate. Failures are tagged with services.ErrModel.
func (c *Client) GenerateContent(ctx context.Context, req Request) (Response, error) {
	if c.apiKey == "" {
		return Response{}, services.Wrap(services.ErrConfiguration, "gemini", "generate", "api key required", nil)
	}
	if len(req.Contents) == 0 {
		return Response{}, services.Wrap(services.ErrValidation, "gemini", "generate", "request has no contents", nil)
	}
	models, err := c.models(ctx)
	if err != nil {
		return Response{}, services.Wrap(services.ErrConfiguration, "gemini", "generate", "create sdk client", err)
	}

	var resp Response
	err = c.retry.do(ctx, func() error {
		var callErr error
		resp, callErr = c.generateOnce(ctx, models, req)
		return callErr
	})
	if err != nil {
		return Response{}, services.Wrap(services.ErrModel, "gemini", "generate", c.model, err)
	}
	return resp, nil
}

func (c *Client) generateOnce(ctx context.Context, models *genai.Models, req Request) (Response, error) {
	raw, err := models.GenerateContent(ctx, c.model, req.Contents, req.Config)
	if err != nil {
		return Response{}, err
	}
	resp, ok := first(raw)
	if ok {
		return resp, nil
	}
	empty := &emptyContentError{FinishReason: resp.FinishReason, Snippet: snippet(raw)}
	if raw.PromptFeedback != nil {
		empty.BlockReason = string(raw.PromptFeedback.BlockReason)
	}
	return resp, empty
}

// HealthCheck fetches the model resource to verify the API key and model name.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.apiKey == "" {
		return errors.New("gemini health: api key required")
	}
	models, err := c.models(ctx)
	if err != nil {
		return fmt.Errorf("gemini health: %w", err)
	}
	if _, err := models.Get(ctx, c.model, nil); err != nil {
		return fmt.Errorf("gemini health: %w", err)
	}
	return nil
}

// first returns the text of the first candidate that has any.
func first(raw *genai.GenerateContentResponse) (Response, bool) {
	var out Response
	if raw == nil {
		return out, false
	}
	out.Usage = usageOf(raw.UsageMetadata)
	for i, candidate := range raw.Candidates {
		if candidate == nil {
			continue
		}
		if i == 0 {
			out.FinishReason = string(candidate.FinishReason)
		}
		if candidate.Content == nil {
			continue
		}
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			if part != nil {
				text.WriteString(part.Text)
			}
		}
		if text.Len() > 0 {
			out.Text = text.String()
			out.FinishReason = string(candidate.FinishReason)
			return out, true
		}
	}
	return out, false
}

func snippet(raw *genai.GenerateContentResponse) string {
	const limit = 160
	data, _ := json.Marshal(raw)
	clean := strings.Join(strings.Fields(string(data)), " ")
	if clean == "" || clean == "null" {
		return "<empty>"
	}
	if runes := []rune(clean); len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return clean
}
