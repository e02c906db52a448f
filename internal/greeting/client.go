package greeting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Options configures Client.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	PortalName string
	Timeout    time.Duration
	RPS        float64
	Logger     zerolog.Logger
}

// Client asks an OpenAI-compatible chat endpoint for greetings.
type Client struct {
	client  openai.Client
	model   string
	portal  string
	timeout time.Duration
	hasKey  bool
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient builds a greeting client. Without an API key it never calls
// out and answers with the no-credentials fallback.
func NewClient(opts Options) *Client {
	apiKey := strings.TrimSpace(opts.APIKey)
	hasKey := apiKey != "" && apiKey != "undefined"

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	model := opts.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	rps := opts.RPS
	if rps <= 0 {
		rps = 1
	}

	if !hasKey {
		opts.Logger.Warn().Msg("Greeting API key not configured, using fallback greetings")
	}

	return &Client{
		client:  openai.NewClient(reqOpts...),
		model:   model,
		portal:  opts.PortalName,
		timeout: timeout,
		hasKey:  hasKey,
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		log:     opts.Logger,
	}
}

// Greeting implements Generator.
func (c *Client) Greeting(ctx context.Context, role Role) string {
	if !c.hasKey {
		return NoCredentials(c.portal, role)
	}
	if !c.limiter.Allow() {
		c.log.Debug().Str("role", string(role)).Msg("Greeting rate limited")
		return Failure(role)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(c.prompt(role)),
		},
		Temperature: openai.Float(0.8),
		TopP:        openai.Float(0.9),
	})
	if err != nil {
		c.log.Error().Err(err).Str("role", string(role)).Msg("Greeting request failed")
		return Failure(role)
	}

	c.log.Debug().
		Str("model", c.model).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("Greeting generated")

	if len(resp.Choices) == 0 {
		return Empty(role)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return Empty(role)
	}
	return text
}

func (c *Client) prompt(role Role) string {
	return fmt.Sprintf(
		"Generate a short, sophisticated, and welcoming one-sentence greeting in Indonesian for a user entering the %s section of a premium digital portal called '%s'. Keep it professional yet warm and poetic.",
		role, c.portal,
	)
}
