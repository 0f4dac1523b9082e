package gemini

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"zenith/internal/models"
)

// DefaultBaseURL is the public Gemini REST endpoint
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// Options configures a Client
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	ScriptModel string
	FocusModel  string
	ImageModel  string
	SpeechModel string
	ChatModel   string

	AspectRatio  string
	ImageWorkers int

	Logger *log.Logger
}

// Client handles communication with the Gemini API
type Client struct {
	http      *resty.Client
	streaming *resty.Client
	opts      Options
	logger    *log.Logger

	convOnce sync.Once
	conv     *Conversation
}

// NewClient creates a new Gemini client
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.AspectRatio == "" {
		opts.AspectRatio = "16:9"
	}
	if opts.ImageWorkers < 1 {
		opts.ImageWorkers = 3
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}

	return &Client{
		http:      newRestClient(opts, opts.Timeout),
		streaming: newRestClient(opts, 0), // streams run as long as the reply lasts
		opts:      opts,
		logger:    opts.Logger,
	}
}

func newRestClient(opts Options, timeout time.Duration) *resty.Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", opts.APIKey).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

// generate sends a non-streaming generateContent request
func (c *Client) generate(ctx context.Context, model string, body *generateRequest) (*generateResponse, error) {
	var result generateResponse
	var apiErr apiError

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("model", model).
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		Post("/v1beta/models/{model}:generateContent")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return nil, apiErr.asError(resp.StatusCode())
	}
	if err := result.blocked(); err != nil {
		return nil, err
	}

	return &result, nil
}

// GenerateScript writes the spoken meditation script for cfg
func (c *Client) GenerateScript(ctx context.Context, cfg models.SessionConfig) (string, error) {
	cfg = cfg.WithDefaults()
	resp, err := c.generate(ctx, c.opts.ScriptModel, &generateRequest{
		Contents:         []content{textContent("user", scriptPrompt(cfg))},
		GenerationConfig: &generationConfig{Temperature: float(0.7)},
	})
	if err != nil {
		c.logger.Printf("error generating meditation script: %v", err)
		return "", &models.GenerationError{Kind: models.KindScript, Err: err}
	}

	script := cleanScript(resp.text())
	if script == "" {
		return "", &models.GenerationError{Kind: models.KindScript, Err: fmt.Errorf("empty script")}
	}
	return script, nil
}

// GenerateAudio synthesizes script with the given prebuilt voice
func (c *Client) GenerateAudio(ctx context.Context, script string, voice models.Voice) (models.Payload, error) {
	if voice == "" {
		voice = models.VoiceKore
	}
	resp, err := c.generate(ctx, c.opts.SpeechModel, &generateRequest{
		Contents: []content{textContent("", script)},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: string(voice)},
				},
			},
		},
	})
	if err != nil {
		c.logger.Printf("error generating meditation audio: %v", err)
		return models.Payload{}, &models.GenerationError{Kind: models.KindAudio, Err: err}
	}

	b := resp.firstBlob()
	if b == nil {
		return models.Payload{}, &models.GenerationError{Kind: models.KindAudio, Err: fmt.Errorf("no audio data received")}
	}
	return models.Payload{MIMEType: b.MIMEType, Data: b.Data}, nil
}

// GenerateDailyFocus asks for a one-sentence intention
func (c *Client) GenerateDailyFocus(ctx context.Context) (string, error) {
	resp, err := c.generate(ctx, c.opts.FocusModel, &generateRequest{
		Contents:         []content{textContent("user", focusPrompt)},
		GenerationConfig: &generationConfig{Temperature: float(0.8)},
	})
	if err != nil {
		c.logger.Printf("error generating daily focus: %v", err)
		return "", &models.GenerationError{Kind: models.KindFocus, Err: err}
	}

	text := strings.TrimSpace(resp.text())
	if text == "" {
		return FallbackFocus, nil
	}
	return text, nil
}

// ListModels returns the names of models visible to the API key
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	var result modelList
	var apiErr apiError

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&apiErr).
		Get("/v1beta/models")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return nil, apiErr.asError(resp.StatusCode())
	}

	names := make([]string, len(result.Models))
	for i, m := range result.Models {
		names[i] = strings.TrimPrefix(m.Name, "models/")
	}
	return names, nil
}

// HealthCheck verifies that the API is reachable with the configured key
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := c.ListModels(ctx); err != nil {
		return fmt.Errorf("Gemini is unreachable at %s: %w", c.opts.BaseURL, err)
	}
	return nil
}

// Conversation returns the process-wide chat session, creating it on first use
func (c *Client) Conversation() *Conversation {
	c.convOnce.Do(func() {
		c.conv = c.NewConversation()
	})
	return c.conv
}

// NewConversation starts a fresh chat session carrying the Zenith persona
func (c *Client) NewConversation() *Conversation {
	return &Conversation{
		client:  c,
		model:   c.opts.ChatModel,
		persona: Persona,
		logger:  c.logger,
	}
}
